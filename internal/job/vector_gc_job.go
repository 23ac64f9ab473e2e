package job

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/repo"
	"github.com/xxxsen/literag/internal/service"
	"github.com/xxxsen/literag/internal/vectordb"
)

// VectorGCJob drops vector indexes whose owning project no longer exists.
// Such orphans appear when a process dies between deleting a project and
// deleting its index.
type VectorGCJob struct {
	projects *repo.ProjectRepo
	store    vectordb.Store
	dim      int
}

func NewVectorGCJob(projects *repo.ProjectRepo, store vectordb.Store, dim int) *VectorGCJob {
	return &VectorGCJob{projects: projects, store: store, dim: dim}
}

func (j *VectorGCJob) Name() string {
	return "vector_gc"
}

func (j *VectorGCJob) Run(ctx context.Context) error {
	names, err := j.store.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}
	ids, err := j.projects.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	alive := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		alive[service.IndexNameFor(id, j.dim)] = struct{}{}
	}
	logger := logutil.GetLogger(ctx)
	dropped := 0
	for _, name := range names {
		if !strings.HasPrefix(name, "index_") {
			continue
		}
		if _, ok := alive[name]; ok {
			continue
		}
		if err := j.store.DeleteIndex(ctx, name); err != nil {
			logger.Warn("failed to drop orphan index", zap.String("index", name), zap.Error(err))
			continue
		}
		logger.Info("orphan index dropped", zap.String("index", name))
		dropped++
	}
	if dropped > 0 {
		logger.Info("vector gc finished", zap.Int("dropped", dropped))
	}
	return nil
}
