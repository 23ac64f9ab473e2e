package service

import (
	"context"
	"fmt"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/filestore"
	"github.com/xxxsen/literag/internal/ingest"
	"github.com/xxxsen/literag/internal/repo"
)

// DocumentService turns uploaded assets into stored chunks via the
// ingestion pipeline.
type DocumentService struct {
	projects *repo.ProjectRepo
	assets   *repo.AssetRepo
	chunks   *repo.ChunkRepo
	files    filestore.Store
	pipeline *ingest.Pipeline
}

func NewDocumentService(projects *repo.ProjectRepo, assets *repo.AssetRepo, chunks *repo.ChunkRepo, files filestore.Store, pipeline *ingest.Pipeline) *DocumentService {
	return &DocumentService{
		projects: projects,
		assets:   assets,
		chunks:   chunks,
		files:    files,
		pipeline: pipeline,
	}
}

type ProcessResult struct {
	InsertedChunks int      `json:"inserted_chunks"`
	ProcessedFiles int      `json:"processed_files"`
	FailedAssets   []string `json:"failed_assets,omitempty"`
}

// Process chunks one asset, replacing whatever chunks it had before.
// With reset set, all chunks of the project are wiped first.
func (s *DocumentService) Process(ctx context.Context, projectID, assetID string, chunkSize, chunkOverlap int, reset bool) (*ProcessResult, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	if reset {
		if _, err := s.chunks.DeleteByProject(ctx, projectID); err != nil {
			return nil, err
		}
	}
	inserted, err := s.processAsset(ctx, projectID, assetID, chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{InsertedChunks: inserted, ProcessedFiles: 1}, nil
}

// ProcessAll chunks every asset in the project. A failing asset is logged
// and skipped so one bad file cannot block the rest.
func (s *DocumentService) ProcessAll(ctx context.Context, projectID string, chunkSize, chunkOverlap int, reset bool) (*ProcessResult, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	assets, err := s.assets.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if reset {
		if _, err := s.chunks.DeleteByProject(ctx, projectID); err != nil {
			return nil, err
		}
	}
	result := &ProcessResult{}
	for _, asset := range assets {
		inserted, err := s.processAsset(ctx, projectID, asset.ID, chunkSize, chunkOverlap)
		if err != nil {
			logutil.GetLogger(ctx).Error("failed to process asset",
				zap.String("project_id", projectID),
				zap.String("asset_id", asset.ID),
				zap.Error(err))
			result.FailedAssets = append(result.FailedAssets, asset.ID)
			continue
		}
		result.InsertedChunks += inserted
		result.ProcessedFiles++
	}
	return result, nil
}

func (s *DocumentService) processAsset(ctx context.Context, projectID, assetID string, chunkSize, chunkOverlap int) (int, error) {
	asset, err := s.assets.Get(ctx, projectID, assetID)
	if err != nil {
		return 0, err
	}
	blob, err := s.files.Open(ctx, asset.FileKey)
	if err != nil {
		return 0, fmt.Errorf("open asset blob: %w", err)
	}
	data, err := io.ReadAll(blob)
	closeErr := blob.Close()
	if err != nil {
		return 0, fmt.Errorf("read asset blob: %w", err)
	}
	if closeErr != nil {
		return 0, closeErr
	}
	chunks, err := s.pipeline.Process(ctx, asset.ContentType, data, chunkSize, chunkOverlap)
	if err != nil {
		return 0, err
	}
	for _, chunk := range chunks {
		chunk.ProjectID = projectID
		chunk.AssetID = assetID
	}
	if err := s.chunks.Replace(ctx, projectID, assetID, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// CountChunks reports how many chunks a project has, for index sizing and
// sanity checks.
func (s *DocumentService) CountChunks(ctx context.Context, projectID string) (int, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return 0, err
	}
	return s.chunks.CountByProject(ctx, projectID)
}
