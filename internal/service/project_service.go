package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/filestore"
	"github.com/xxxsen/literag/internal/model"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
	"github.com/xxxsen/literag/internal/pkg/timeutil"
	"github.com/xxxsen/literag/internal/repo"
)

type ProjectService struct {
	projects *repo.ProjectRepo
	assets   *repo.AssetRepo
	chunks   *repo.ChunkRepo
	vectors  *VectorService
	files    filestore.Store
}

func NewProjectService(projects *repo.ProjectRepo, assets *repo.AssetRepo, chunks *repo.ChunkRepo, vectors *VectorService, files filestore.Store) *ProjectService {
	return &ProjectService{
		projects: projects,
		assets:   assets,
		chunks:   chunks,
		vectors:  vectors,
		files:    files,
	}
}

func (s *ProjectService) Create(ctx context.Context, name, description string) (*model.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", appErr.ErrInvalid)
	}
	now := timeutil.NowUnix()
	project := &model.Project{
		ID:          newID(),
		Name:        name,
		Description: description,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.projects.Get(ctx, id)
}

func (s *ProjectService) List(ctx context.Context, limit, offset uint) ([]model.Project, error) {
	return s.projects.List(ctx, limit, offset)
}

// Delete removes a project and everything hanging off it. Steps run in
// dependency order and each failure is collected rather than aborting, so
// a broken vector store cannot strand the relational rows forever.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", id))
	if _, err := s.projects.Get(ctx, id); err != nil {
		return err
	}
	var errs []error
	if err := s.vectors.DeleteIndex(ctx, id); err != nil && !errors.Is(err, appErr.ErrIndexNotFound) {
		logger.Error("failed to delete vector index", zap.Error(err))
		errs = append(errs, fmt.Errorf("delete vector index: %w", err))
	}
	if _, err := s.chunks.DeleteByProject(ctx, id); err != nil {
		logger.Error("failed to delete chunks", zap.Error(err))
		errs = append(errs, fmt.Errorf("delete chunks: %w", err))
	}
	assets, err := s.assets.ListByProject(ctx, id)
	if err != nil {
		logger.Error("failed to list assets", zap.Error(err))
		errs = append(errs, fmt.Errorf("list assets: %w", err))
	}
	for _, asset := range assets {
		if err := s.files.Delete(ctx, asset.FileKey); err != nil {
			logger.Warn("failed to delete asset blob",
				zap.String("asset_id", asset.ID), zap.String("file_key", asset.FileKey), zap.Error(err))
			errs = append(errs, fmt.Errorf("delete blob %s: %w", asset.FileKey, err))
		}
	}
	if err := s.assets.DeleteByProject(ctx, id); err != nil {
		logger.Error("failed to delete asset rows", zap.Error(err))
		errs = append(errs, fmt.Errorf("delete assets: %w", err))
	}
	if err := s.projects.Delete(ctx, id); err != nil && !errors.Is(err, appErr.ErrNotFound) {
		logger.Error("failed to delete project row", zap.Error(err))
		errs = append(errs, fmt.Errorf("delete project: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("project deleted")
	return nil
}
