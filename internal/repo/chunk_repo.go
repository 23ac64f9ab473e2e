package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/literag/internal/model"
	"github.com/xxxsen/literag/internal/pkg/dbutil"
)

var chunkFields = []string{"id", "project_id", "asset_id", "chunk_order", "content", "metadata"}

// ChunkRepo stores document chunks. Within one asset the chunk order is
// 0-based and contiguous; Replace is the only way to rewrite an asset's
// chunks so the invariant survives partial failures.
type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) InsertMany(ctx context.Context, chunks []*model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertChunksTx(ctx, tx, chunks); err != nil {
		return err
	}
	return tx.Commit()
}

// Replace atomically swaps all chunks of one asset for the given set.
func (r *ChunkRepo) Replace(ctx context.Context, projectID, assetID string, chunks []*model.DocumentChunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	sqlStr, args := dbutil.Finalize("DELETE FROM chunks WHERE project_id=? AND asset_id=?", []interface{}{projectID, assetID})
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	if err := insertChunksTx(ctx, tx, chunks); err != nil {
		return err
	}
	return tx.Commit()
}

func insertChunksTx(ctx context.Context, tx *sql.Tx, chunks []*model.DocumentChunk) error {
	for _, chunk := range chunks {
		meta, err := marshalMetadata(chunk.Metadata)
		if err != nil {
			return err
		}
		sqlStr, args, err := builder.BuildInsert("chunks", []map[string]interface{}{{
			"project_id":  chunk.ProjectID,
			"asset_id":    chunk.AssetID,
			"chunk_order": chunk.Order,
			"content":     chunk.Content,
			"metadata":    meta,
		}})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChunkRepo) GetByProject(ctx context.Context, projectID string, skip, limit uint) ([]*model.DocumentChunk, error) {
	where := map[string]interface{}{
		"project_id": projectID,
		"_orderby":   "asset_id asc, chunk_order asc",
	}
	if limit > 0 {
		where["_limit"] = []uint{skip, limit}
	}
	return r.query(ctx, where)
}

func (r *ChunkRepo) GetByProjectAsset(ctx context.Context, projectID, assetID string) ([]*model.DocumentChunk, error) {
	return r.query(ctx, map[string]interface{}{
		"project_id": projectID,
		"asset_id":   assetID,
		"_orderby":   "chunk_order asc",
	})
}

func (r *ChunkRepo) query(ctx context.Context, where map[string]interface{}) ([]*model.DocumentChunk, error) {
	sqlStr, args, err := builder.BuildSelect("chunks", where, chunkFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	chunks := make([]*model.DocumentChunk, 0)
	for rows.Next() {
		var (
			chunk model.DocumentChunk
			raw   []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.ProjectID, &chunk.AssetID, &chunk.Order, &chunk.Content, &raw); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepo) DeleteByProjectAsset(ctx context.Context, projectID, assetID string) (int64, error) {
	sqlStr, args := dbutil.Finalize("DELETE FROM chunks WHERE project_id=? AND asset_id=?", []interface{}{projectID, assetID})
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ChunkRepo) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	sqlStr, args := dbutil.Finalize("DELETE FROM chunks WHERE project_id=?", []interface{}{projectID})
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ChunkRepo) CountByProject(ctx context.Context, projectID string) (int, error) {
	sqlStr, args := dbutil.Finalize("SELECT COUNT(*) FROM chunks WHERE project_id=?", []interface{}{projectID})
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	count := 0
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepo) CountByProjectAsset(ctx context.Context, projectID, assetID string) (int, error) {
	sqlStr, args := dbutil.Finalize("SELECT COUNT(*) FROM chunks WHERE project_id=? AND asset_id=?", []interface{}{projectID, assetID})
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	count := 0
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func marshalMetadata(meta map[string]interface{}) (interface{}, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal chunk metadata: %w", err)
	}
	return raw, nil
}
