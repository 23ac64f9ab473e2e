package vectordb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xxxsen/literag/internal/model"
)

// IndexInfo describes one vector index.
type IndexInfo struct {
	Name       string `json:"name"`
	Dimensions int    `json:"dimensions"`
	PointCount int64  `json:"point_count"`
}

// Store is the vector database abstraction. One index holds vectors of a
// single fixed dimension; index names are chosen by the caller.
type Store interface {
	// CreateIndex ensures an index with the given dimension exists. With
	// replace set, an existing index is dropped and recreated empty.
	CreateIndex(ctx context.Context, name string, dims int, replace bool) error
	// DeleteIndex drops an index. Missing indexes yield ErrIndexNotFound.
	DeleteIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	// InsertVectors writes texts, vectors and per-item metadata as one batch.
	// The three slices must have equal length and every vector must match the
	// index dimension; nothing is written otherwise.
	InsertVectors(ctx context.Context, name string, texts []string, vectors [][]float32, metadata []map[string]interface{}) error
	// QueryVectors returns up to topK matches ranked by descending score.
	// A non-nil threshold prunes results scoring below it after ranking.
	QueryVectors(ctx context.Context, name string, vector []float32, topK int, threshold *float64) ([]*model.RetrievedChunk, error)
	GetIndexInfo(ctx context.Context, name string) (*IndexInfo, error)
	ListIndexes(ctx context.Context) ([]string, error)
}

// FactoryArgs carries the provider-independent settings plus the raw
// provider section from the config file.
type FactoryArgs struct {
	Distance string
	Data     interface{}
}

type StoreFactory func(args *FactoryArgs) (Store, error)

var registry = make(map[string]StoreFactory)

func Register(name string, factory StoreFactory) {
	registry[name] = factory
}

func NewStore(name string, args *FactoryArgs) (Store, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown vectordb provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, out interface{}) error {
	if args == nil {
		return nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal provider config: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal provider config: %w", err)
	}
	return nil
}
