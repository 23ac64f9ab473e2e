package service_test

import (
	"context"
	"fmt"
	"sort"

	"github.com/xxxsen/literag/internal/model"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
	"github.com/xxxsen/literag/internal/vectordb"
)

// fakeEmbedder produces deterministic vectors: component 0 encodes the text
// length so queries can be matched against stable expectations.
type fakeEmbedder struct {
	dim        int
	embedCalls int
	batchSizes []int
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	f.embedCalls++
	f.batchSizes = append(f.batchSizes, len(texts))
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec := make([]float32, f.dim)
		vec[0] = float32(len(text))
		out = append(out, vec)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := f.Embed(ctx, []string{query}, model.InputTypeQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type memoryIndex struct {
	dims   int
	texts  []string
	meta   []map[string]interface{}
	scores []float64
}

// memoryStore is an in-process vectordb.Store; query results come back in
// insertion order with descending synthetic scores.
type memoryStore struct {
	indexes map[string]*memoryIndex
}

func newMemoryStore() *memoryStore {
	return &memoryStore{indexes: make(map[string]*memoryIndex)}
}

func (m *memoryStore) CreateIndex(ctx context.Context, name string, dims int, replace bool) error {
	if _, ok := m.indexes[name]; ok && !replace {
		return nil
	}
	m.indexes[name] = &memoryIndex{dims: dims}
	return nil
}

func (m *memoryStore) DeleteIndex(ctx context.Context, name string) error {
	if _, ok := m.indexes[name]; !ok {
		return fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, name)
	}
	delete(m.indexes, name)
	return nil
}

func (m *memoryStore) IndexExists(ctx context.Context, name string) (bool, error) {
	_, ok := m.indexes[name]
	return ok, nil
}

func (m *memoryStore) InsertVectors(ctx context.Context, name string, texts []string, vectors [][]float32, metadata []map[string]interface{}) error {
	idx, ok := m.indexes[name]
	if !ok {
		return fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, name)
	}
	if len(texts) != len(vectors) || len(texts) != len(metadata) {
		return fmt.Errorf("%w: batch length mismatch", appErr.ErrInvalid)
	}
	for i, vec := range vectors {
		if len(vec) != idx.dims {
			return fmt.Errorf("%w: vector %d", appErr.ErrDimensionMismatch, i)
		}
	}
	for i := range texts {
		idx.texts = append(idx.texts, texts[i])
		idx.meta = append(idx.meta, metadata[i])
		idx.scores = append(idx.scores, 1.0/float64(len(idx.texts)))
	}
	return nil
}

func (m *memoryStore) QueryVectors(ctx context.Context, name string, vector []float32, topK int, threshold *float64) ([]*model.RetrievedChunk, error) {
	idx, ok := m.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, name)
	}
	// rank first, then prune, same order as the real stores
	var ranked []*model.RetrievedChunk
	for i := range idx.texts {
		s := idx.scores[i]
		ranked = append(ranked, &model.RetrievedChunk{
			ID:       fmt.Sprintf("%s-%d", name, i),
			Text:     idx.texts[i],
			Metadata: idx.meta[i],
			Score:    &s,
		})
		if len(ranked) >= topK {
			break
		}
	}
	if threshold == nil {
		return ranked, nil
	}
	out := make([]*model.RetrievedChunk, 0, len(ranked))
	for _, rc := range ranked {
		if *rc.Score >= *threshold {
			out = append(out, rc)
		}
	}
	return out, nil
}

func (m *memoryStore) GetIndexInfo(ctx context.Context, name string) (*vectordb.IndexInfo, error) {
	idx, ok := m.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, name)
	}
	return &vectordb.IndexInfo{Name: name, Dimensions: idx.dims, PointCount: int64(len(idx.texts))}, nil
}

func (m *memoryStore) ListIndexes(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.indexes))
	for name := range m.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type fakeChunkSource struct {
	chunks []*model.DocumentChunk
}

func (f *fakeChunkSource) GetByProject(ctx context.Context, projectID string, skip, limit uint) ([]*model.DocumentChunk, error) {
	if skip >= uint(len(f.chunks)) {
		return nil, nil
	}
	end := skip + limit
	if end > uint(len(f.chunks)) {
		end = uint(len(f.chunks))
	}
	return f.chunks[skip:end], nil
}

// fakeGenerator returns a canned response and records the prompt it saw.
type fakeGenerator struct {
	response string
	err      error
	messages []model.Message
}

func (f *fakeGenerator) ConstructPrompt(ctx context.Context, text string, role string) model.Message {
	if !model.ValidRole(role) {
		role = model.RoleUser
	}
	return model.Message{Role: role, Content: text}
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []model.Message, maxTokens int, temperature float64) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}
