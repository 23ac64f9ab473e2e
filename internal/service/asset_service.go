package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/config"
	"github.com/xxxsen/literag/internal/filestore"
	"github.com/xxxsen/literag/internal/model"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
	"github.com/xxxsen/literag/internal/pkg/timeutil"
	"github.com/xxxsen/literag/internal/repo"
)

type AssetService struct {
	cfg      config.FilesConfig
	projects *repo.ProjectRepo
	assets   *repo.AssetRepo
	chunks   *repo.ChunkRepo
	files    filestore.Store
}

func NewAssetService(cfg config.FilesConfig, projects *repo.ProjectRepo, assets *repo.AssetRepo, chunks *repo.ChunkRepo, files filestore.Store) *AssetService {
	return &AssetService{
		cfg:      cfg,
		projects: projects,
		assets:   assets,
		chunks:   chunks,
		files:    files,
	}
}

func (s *AssetService) validateUpload(contentType string, size int64) error {
	supported := false
	for _, ct := range s.cfg.SupportedTypes {
		if ct == contentType {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: %s", appErr.ErrUnsupportedFormat, contentType)
	}
	if maxSize := int64(s.cfg.MaxSizeMB) * 1024 * 1024; size > maxSize {
		return fmt.Errorf("%w: file size %d exceeds limit %d", appErr.ErrInvalid, size, maxSize)
	}
	return nil
}

// Upload stores a document blob and its asset row. Uploading a file with a
// name that already exists in the project replaces the previous version.
func (s *AssetService) Upload(ctx context.Context, projectID, name, contentType string, r filestore.ReadSeekCloser, size int64) (*model.Asset, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: asset name is required", appErr.ErrInvalid)
	}
	if err := s.validateUpload(contentType, size); err != nil {
		return nil, err
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	fileKey := newID()
	if err := s.files.Save(ctx, fileKey, r, size); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	existing, err := s.assets.GetByName(ctx, projectID, name)
	if err != nil && !errors.Is(err, appErr.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		oldKey := existing.FileKey
		existing.ContentType = contentType
		existing.FileKey = fileKey
		existing.Size = size
		existing.Mtime = now
		if err := s.assets.Update(ctx, existing); err != nil {
			return nil, err
		}
		if err := s.files.Delete(ctx, oldKey); err != nil {
			logutil.GetLogger(ctx).Warn("failed to delete replaced blob",
				zap.String("file_key", oldKey), zap.Error(err))
		}
		return existing, nil
	}
	asset := &model.Asset{
		ID:          newID(),
		ProjectID:   projectID,
		Name:        name,
		ContentType: contentType,
		FileKey:     fileKey,
		Size:        size,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *AssetService) List(ctx context.Context, projectID string) ([]model.Asset, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.assets.ListByProject(ctx, projectID)
}

func (s *AssetService) Get(ctx context.Context, projectID, assetID string) (*model.Asset, error) {
	return s.assets.Get(ctx, projectID, assetID)
}

// Delete removes one asset: its chunks, its blob, then the row. Stale
// vectors remain in the index until the next reindex.
func (s *AssetService) Delete(ctx context.Context, projectID, assetID string) error {
	asset, err := s.assets.Get(ctx, projectID, assetID)
	if err != nil {
		return err
	}
	var errs []error
	if _, err := s.chunks.DeleteByProjectAsset(ctx, projectID, assetID); err != nil {
		errs = append(errs, fmt.Errorf("delete chunks: %w", err))
	}
	if err := s.files.Delete(ctx, asset.FileKey); err != nil {
		logutil.GetLogger(ctx).Warn("failed to delete asset blob",
			zap.String("file_key", asset.FileKey), zap.Error(err))
		errs = append(errs, fmt.Errorf("delete blob: %w", err))
	}
	if err := s.assets.Delete(ctx, projectID, assetID); err != nil && !errors.Is(err, appErr.ErrNotFound) {
		errs = append(errs, fmt.Errorf("delete asset: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
