package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/literag/internal/model"
	"github.com/xxxsen/literag/internal/pkg/dbutil"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
)

var assetFields = []string{"id", "project_id", "name", "content_type", "file_key", "size", "ctime", "mtime"}

type AssetRepo struct {
	db *sql.DB
}

func NewAssetRepo(db *sql.DB) *AssetRepo {
	return &AssetRepo{db: db}
}

func (r *AssetRepo) Create(ctx context.Context, asset *model.Asset) error {
	data := map[string]interface{}{
		"id":           asset.ID,
		"project_id":   asset.ProjectID,
		"name":         asset.Name,
		"content_type": asset.ContentType,
		"file_key":     asset.FileKey,
		"size":         asset.Size,
		"ctime":        asset.Ctime,
		"mtime":        asset.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("assets", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *AssetRepo) Update(ctx context.Context, asset *model.Asset) error {
	where := map[string]interface{}{
		"id":         asset.ID,
		"project_id": asset.ProjectID,
	}
	update := map[string]interface{}{
		"content_type": asset.ContentType,
		"file_key":     asset.FileKey,
		"size":         asset.Size,
		"mtime":        asset.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("assets", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *AssetRepo) Get(ctx context.Context, projectID, assetID string) (*model.Asset, error) {
	return r.getOne(ctx, map[string]interface{}{"id": assetID, "project_id": projectID})
}

func (r *AssetRepo) GetByName(ctx context.Context, projectID, name string) (*model.Asset, error) {
	return r.getOne(ctx, map[string]interface{}{"project_id": projectID, "name": name})
}

func (r *AssetRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Asset, error) {
	sqlStr, args, err := builder.BuildSelect("assets", where, assetFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var asset model.Asset
	if err := rows.Scan(&asset.ID, &asset.ProjectID, &asset.Name, &asset.ContentType,
		&asset.FileKey, &asset.Size, &asset.Ctime, &asset.Mtime); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *AssetRepo) ListByProject(ctx context.Context, projectID string) ([]model.Asset, error) {
	where := map[string]interface{}{
		"project_id": projectID,
		"_orderby":   "ctime asc",
	}
	sqlStr, args, err := builder.BuildSelect("assets", where, assetFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	assets := make([]model.Asset, 0)
	for rows.Next() {
		var asset model.Asset
		if err := rows.Scan(&asset.ID, &asset.ProjectID, &asset.Name, &asset.ContentType,
			&asset.FileKey, &asset.Size, &asset.Ctime, &asset.Mtime); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (r *AssetRepo) Delete(ctx context.Context, projectID, assetID string) error {
	sqlStr, args, err := builder.BuildDelete("assets", map[string]interface{}{"id": assetID, "project_id": projectID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *AssetRepo) DeleteByProject(ctx context.Context, projectID string) error {
	sqlStr, args, err := builder.BuildDelete("assets", map[string]interface{}{"project_id": projectID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
