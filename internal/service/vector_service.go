package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/ai"
	"github.com/xxxsen/literag/internal/model"
	"github.com/xxxsen/literag/internal/repo"
	"github.com/xxxsen/literag/internal/vectordb"
)

// embedBatchSize is the number of chunk texts sent to the embedding
// provider per call during indexing.
const embedBatchSize = 64

// chunkPageSize is how many chunks are pulled from the database per page
// while walking a project.
const chunkPageSize = 256

// Embedder is the slice of the AI gateway the vector service needs.
type Embedder interface {
	Dimension() int
	Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// ChunkSource provides project chunks for indexing.
type ChunkSource interface {
	GetByProject(ctx context.Context, projectID string, skip, limit uint) ([]*model.DocumentChunk, error)
}

// VectorService maps projects onto vector indexes and keeps them in sync
// with the chunk store.
type VectorService struct {
	embedder Embedder
	store    vectordb.Store
	chunks   ChunkSource
}

func NewVectorService(embedder Embedder, store vectordb.Store, chunks ChunkSource) *VectorService {
	return &VectorService{embedder: embedder, store: store, chunks: chunks}
}

// IndexName derives the index name from the project and the embedding
// dimension, so switching embedding models never mixes vector widths
// inside one index.
func (s *VectorService) IndexName(projectID string) string {
	return IndexNameFor(projectID, s.embedder.Dimension())
}

// IndexNameFor builds the canonical index name for a project at a given
// embedding dimension. Non-identifier runes are replaced to keep the name
// usable as a table or collection name.
func IndexNameFor(projectID string, dim int) string {
	out := make([]rune, 0, len(projectID))
	for _, r := range projectID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return fmt.Sprintf("index_%s_%d", string(out), dim)
}

// IndexProject embeds all chunks of a project and writes them into the
// project index. With reset set the index is dropped and rebuilt; otherwise
// new vectors are appended. Returns the number of vectors inserted.
func (s *VectorService) IndexProject(ctx context.Context, projectID string, reset bool) (int, error) {
	name := s.IndexName(projectID)
	if err := s.store.CreateIndex(ctx, name, s.embedder.Dimension(), reset); err != nil {
		return 0, err
	}
	var (
		texts    []string
		vectors  [][]float32
		metadata []map[string]interface{}
		skip     uint
	)
	for {
		page, err := s.chunks.GetByProject(ctx, projectID, skip, chunkPageSize)
		if err != nil {
			return 0, err
		}
		if len(page) == 0 {
			break
		}
		for start := 0; start < len(page); start += embedBatchSize {
			end := start + embedBatchSize
			if end > len(page) {
				end = len(page)
			}
			batch := page[start:end]
			batchTexts := make([]string, 0, len(batch))
			for _, chunk := range batch {
				batchTexts = append(batchTexts, chunk.Content)
			}
			batchVectors, err := s.embedder.Embed(ctx, batchTexts, model.InputTypeDocument)
			if err != nil {
				return 0, err
			}
			for i, chunk := range batch {
				texts = append(texts, chunk.Content)
				vectors = append(vectors, batchVectors[i])
				metadata = append(metadata, chunkMetadata(chunk))
			}
		}
		skip += uint(len(page))
	}
	if err := s.store.InsertVectors(ctx, name, texts, vectors, metadata); err != nil {
		return 0, err
	}
	logutil.GetLogger(ctx).Info("project indexed",
		zap.String("project_id", projectID),
		zap.String("index", name),
		zap.Bool("reset", reset),
		zap.Int("vectors", len(vectors)))
	return len(vectors), nil
}

// chunkMetadata merges the chunk's parser metadata with its storage
// coordinates so retrieval results stay traceable to their source.
func chunkMetadata(chunk *model.DocumentChunk) map[string]interface{} {
	meta := make(map[string]interface{}, len(chunk.Metadata)+2)
	for k, v := range chunk.Metadata {
		meta[k] = v
	}
	meta["chunk_asset"] = chunk.AssetID
	meta["chunk_order"] = chunk.Order
	return meta
}

func (s *VectorService) QueryVectors(ctx context.Context, projectID, query string, topK int, threshold *float64) ([]*model.RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.store.QueryVectors(ctx, s.IndexName(projectID), vector, topK, threshold)
}

func (s *VectorService) GetIndexInfo(ctx context.Context, projectID string) (*vectordb.IndexInfo, error) {
	return s.store.GetIndexInfo(ctx, s.IndexName(projectID))
}

func (s *VectorService) DeleteIndex(ctx context.Context, projectID string) error {
	return s.store.DeleteIndex(ctx, s.IndexName(projectID))
}

var (
	_ ChunkSource = (*repo.ChunkRepo)(nil)
	_ Embedder    = (*ai.Gateway)(nil)
)
