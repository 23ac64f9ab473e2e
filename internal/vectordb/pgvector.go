package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/model"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
)

// catalogTable tracks which tables are vector indexes and their dimension.
const catalogTable = "vector_index_catalog"

var indexNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type pgvectorConfig struct {
	DSN string `json:"dsn"`
}

// pgvectorStore keeps one table per index with a vector(dims) column.
type pgvectorStore struct {
	db       *sql.DB
	distance string
}

func createPgvectorStore(args *FactoryArgs) (Store, error) {
	cfg := &pgvectorConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pgvector dsn is required")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open pgvector database: %w", err)
	}
	store := &pgvectorStore{db: db, distance: args.Distance}
	if err := store.ensureCatalog(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *pgvectorStore) ensureCatalog(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`)
	if err != nil {
		return fmt.Errorf("enable vector extension: %w", err)
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			dims INT NOT NULL
		)`, catalogTable))
	if err != nil {
		return fmt.Errorf("create index catalog: %w", err)
	}
	return nil
}

func validateIndexName(name string) error {
	if !indexNamePattern.MatchString(name) {
		return fmt.Errorf("%w: invalid index name %q", appErr.ErrInvalid, name)
	}
	return nil
}

func (s *pgvectorStore) CreateIndex(ctx context.Context, name string, dims int, replace bool) error {
	if err := validateIndexName(name); err != nil {
		return err
	}
	exists, err := s.IndexExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		if !replace {
			logutil.GetLogger(ctx).Debug("index table already exists", zap.String("index", name))
			return nil
		}
		if err := s.dropIndex(ctx, name); err != nil {
			return err
		}
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d) NOT NULL
		)`, name, dims))
	if err != nil {
		return fmt.Errorf("create index table: %w", err)
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, dims) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET dims = EXCLUDED.dims`, catalogTable), name, dims)
	if err != nil {
		return fmt.Errorf("register index: %w", err)
	}
	return nil
}

func (s *pgvectorStore) dropIndex(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name))
	if err != nil {
		return fmt.Errorf("drop index table: %w", err)
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, catalogTable), name)
	if err != nil {
		return fmt.Errorf("unregister index: %w", err)
	}
	return nil
}

func (s *pgvectorStore) DeleteIndex(ctx context.Context, name string) error {
	if err := validateIndexName(name); err != nil {
		return err
	}
	exists, err := s.IndexExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, name)
	}
	return s.dropIndex(ctx, name)
}

func (s *pgvectorStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := validateIndexName(name); err != nil {
		return false, err
	}
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE name = $1`, catalogTable), name)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *pgvectorStore) indexDims(ctx context.Context, name string) (int, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT dims FROM %s WHERE name = $1`, catalogTable), name)
	var dims int
	if err := row.Scan(&dims); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, name)
		}
		return 0, err
	}
	return dims, nil
}

func (s *pgvectorStore) InsertVectors(ctx context.Context, name string, texts []string, vectors [][]float32, metadata []map[string]interface{}) error {
	if err := validateIndexName(name); err != nil {
		return err
	}
	if len(texts) != len(vectors) || len(texts) != len(metadata) {
		return fmt.Errorf("%w: %d texts, %d vectors, %d metadata entries",
			appErr.ErrDimensionMismatch, len(texts), len(vectors), len(metadata))
	}
	if len(texts) == 0 {
		return nil
	}
	dims, err := s.indexDims(ctx, name)
	if err != nil {
		return err
	}
	for i, vec := range vectors {
		if len(vec) != dims {
			return fmt.Errorf("%w: vector %d has %d dims, index %s wants %d",
				appErr.ErrDimensionMismatch, i, len(vec), name, dims)
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	query := fmt.Sprintf(`INSERT INTO %s (content, metadata, embedding) VALUES ($1, $2, $3)`, name)
	for i := range texts {
		raw, err := json.Marshal(metadata[i])
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, texts[i], raw, pgvector.NewVector(vectors[i])); err != nil {
			return fmt.Errorf("insert vector: %w", err)
		}
	}
	return tx.Commit()
}

func (s *pgvectorStore) QueryVectors(ctx context.Context, name string, vector []float32, topK int, threshold *float64) ([]*model.RetrievedChunk, error) {
	if err := validateIndexName(name); err != nil {
		return nil, err
	}
	if _, err := s.indexDims(ctx, name); err != nil {
		return nil, err
	}
	operator, scoreExpr := s.scoring()
	query := fmt.Sprintf(`
		SELECT id, content, metadata, %s AS score
		FROM %s
		ORDER BY embedding %s $1
		LIMIT $2`, scoreExpr, name, operator)
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()
	var chunks []*model.RetrievedChunk
	for rows.Next() {
		var (
			chunk model.RetrievedChunk
			raw   []byte
			score float64
		)
		if err := rows.Scan(&chunk.ID, &chunk.Text, &raw, &score); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		chunk.Score = &score
		chunks = append(chunks, &chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pruneByThreshold(chunks, threshold), nil
}

// scoring maps the configured distance onto a pgvector operator and a score
// expression where higher is better.
func (s *pgvectorStore) scoring() (operator string, scoreExpr string) {
	switch s.distance {
	case "euclidean":
		return "<->", "-(embedding <-> $1)"
	case "dot":
		return "<#>", "-(embedding <#> $1)"
	default:
		return "<=>", "1 - (embedding <=> $1)"
	}
}

func (s *pgvectorStore) GetIndexInfo(ctx context.Context, name string) (*IndexInfo, error) {
	if err := validateIndexName(name); err != nil {
		return nil, err
	}
	dims, err := s.indexDims(ctx, name)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, name))
	var count int64
	if err := row.Scan(&count); err != nil {
		return nil, err
	}
	return &IndexInfo{Name: name, Dimensions: dims, PointCount: count}, nil
}

func (s *pgvectorStore) ListIndexes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s ORDER BY name`, catalogTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func init() {
	Register("pgvector", createPgvectorStore)
}
