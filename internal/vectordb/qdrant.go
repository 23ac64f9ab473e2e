package vectordb

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/model"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
)

const payloadTextKey = "text"

type qdrantConfig struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	APIKey string `json:"api_key"`
	UseTLS bool   `json:"use_tls"`
}

type qdrantStore struct {
	client   *qdrant.Client
	distance qdrant.Distance
}

func createQdrantStore(args *FactoryArgs) (Store, error) {
	cfg := &qdrantConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &qdrantStore{
		client:   client,
		distance: qdrantDistance(args.Distance),
	}, nil
}

func qdrantDistance(name string) qdrant.Distance {
	switch name {
	case "euclidean":
		return qdrant.Distance_Euclid
	case "dot":
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

func (s *qdrantStore) CreateIndex(ctx context.Context, name string, dims int, replace bool) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		if !replace {
			logutil.GetLogger(ctx).Debug("collection already exists", zap.String("collection", name))
			return nil
		}
		if err := s.client.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: s.distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (s *qdrantStore) DeleteIndex(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, name)
	}
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return nil
}

func (s *qdrantStore) IndexExists(ctx context.Context, name string) (bool, error) {
	return s.client.CollectionExists(ctx, name)
}

func (s *qdrantStore) InsertVectors(ctx context.Context, name string, texts []string, vectors [][]float32, metadata []map[string]interface{}) error {
	if len(texts) != len(vectors) || len(texts) != len(metadata) {
		return fmt.Errorf("%w: %d texts, %d vectors, %d metadata entries",
			appErr.ErrDimensionMismatch, len(texts), len(vectors), len(metadata))
	}
	if len(texts) == 0 {
		return nil
	}
	info, err := s.GetIndexInfo(ctx, name)
	if err != nil {
		return err
	}
	points := make([]*qdrant.PointStruct, 0, len(texts))
	for i := range texts {
		if len(vectors[i]) != info.Dimensions {
			return fmt.Errorf("%w: vector %d has %d dims, index %s wants %d",
				appErr.ErrDimensionMismatch, i, len(vectors[i]), name, info.Dimensions)
		}
		payload := map[string]*qdrant.Value{
			payloadTextKey: qdrant.NewValueString(texts[i]),
		}
		for k, v := range metadata[i] {
			payload[k] = toQdrantValue(v)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.New().String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		})
	}
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

func (s *qdrantStore) QueryVectors(ctx context.Context, name string, vector []float32, topK int, threshold *float64) ([]*model.RetrievedChunk, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, name)
	}
	limit := uint64(topK)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	chunks := make([]*model.RetrievedChunk, 0, len(results))
	for _, point := range results {
		chunk := &model.RetrievedChunk{
			Metadata: make(map[string]interface{}),
		}
		if point.Id != nil {
			chunk.ID = point.Id.GetUuid()
		}
		for k, v := range point.Payload {
			if k == payloadTextKey {
				chunk.Text = v.GetStringValue()
				continue
			}
			chunk.Metadata[k] = fromQdrantValue(v)
		}
		score := float64(point.Score)
		chunk.Score = &score
		chunks = append(chunks, chunk)
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return *chunks[i].Score > *chunks[j].Score
	})
	return pruneByThreshold(chunks, threshold), nil
}

func (s *qdrantStore) GetIndexInfo(ctx context.Context, name string) (*IndexInfo, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, name)
	}
	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("collection info: %w", err)
	}
	out := &IndexInfo{Name: name}
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		out.Dimensions = int(params.GetSize())
	}
	out.PointCount = int64(info.GetPointsCount())
	return out, nil
}

func (s *qdrantStore) ListIndexes(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func toQdrantValue(v interface{}) *qdrant.Value {
	switch val := v.(type) {
	case string:
		return qdrant.NewValueString(val)
	case int:
		return qdrant.NewValueInt(int64(val))
	case int64:
		return qdrant.NewValueInt(val)
	case float64:
		return qdrant.NewValueDouble(val)
	case float32:
		return qdrant.NewValueDouble(float64(val))
	case bool:
		return qdrant.NewValueBool(val)
	default:
		return qdrant.NewValueString(fmt.Sprintf("%v", v))
	}
}

func fromQdrantValue(v *qdrant.Value) interface{} {
	if v == nil {
		return nil
	}
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}

func pruneByThreshold(chunks []*model.RetrievedChunk, threshold *float64) []*model.RetrievedChunk {
	if threshold == nil {
		return chunks
	}
	kept := make([]*model.RetrievedChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Score != nil && *c.Score >= *threshold {
			kept = append(kept, c)
		}
	}
	return kept
}

func init() {
	Register("qdrant", createQdrantStore)
}
