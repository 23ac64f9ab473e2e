package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/literag/internal/model"
	"github.com/xxxsen/literag/internal/service"
)

func TestIndexNameFor(t *testing.T) {
	require.Equal(t, "index_p1_768", service.IndexNameFor("p1", 768))
	require.Equal(t, "index_a_b_c_1536", service.IndexNameFor("a-b.c", 1536))
	require.Equal(t, "index_ABC_123_8", service.IndexNameFor("ABC_123", 8))
}

func TestVectorServiceIndexProject(t *testing.T) {
	ctx := context.Background()
	chunks := make([]*model.DocumentChunk, 0, 100)
	for i := 0; i < 100; i++ {
		chunks = append(chunks, &model.DocumentChunk{
			ProjectID: "p1",
			AssetID:   "a1",
			Order:     i,
			Content:   fmt.Sprintf("chunk %d", i),
			Metadata:  map[string]interface{}{"page_number": 1},
		})
	}
	embedder := &fakeEmbedder{dim: 4}
	store := newMemoryStore()
	vectors := service.NewVectorService(embedder, store, &fakeChunkSource{chunks: chunks})

	count, err := vectors.IndexProject(ctx, "p1", false)
	require.NoError(t, err)
	require.Equal(t, 100, count)

	// 100 chunks embed as one batch of 64 and one of 36.
	require.Equal(t, []int{64, 36}, embedder.batchSizes)

	info, err := vectors.GetIndexInfo(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "index_p1_4", info.Name)
	require.Equal(t, 4, info.Dimensions)
	require.EqualValues(t, 100, info.PointCount)
}

func TestVectorServiceIndexProjectReset(t *testing.T) {
	ctx := context.Background()
	chunks := []*model.DocumentChunk{
		{ProjectID: "p1", AssetID: "a1", Order: 0, Content: "one"},
		{ProjectID: "p1", AssetID: "a1", Order: 1, Content: "two"},
	}
	embedder := &fakeEmbedder{dim: 4}
	store := newMemoryStore()
	vectors := service.NewVectorService(embedder, store, &fakeChunkSource{chunks: chunks})

	_, err := vectors.IndexProject(ctx, "p1", false)
	require.NoError(t, err)
	_, err = vectors.IndexProject(ctx, "p1", false)
	require.NoError(t, err)

	info, err := vectors.GetIndexInfo(ctx, "p1")
	require.NoError(t, err)
	require.EqualValues(t, 4, info.PointCount)

	_, err = vectors.IndexProject(ctx, "p1", true)
	require.NoError(t, err)

	info, err = vectors.GetIndexInfo(ctx, "p1")
	require.NoError(t, err)
	require.EqualValues(t, 2, info.PointCount)
}

func TestVectorServiceQueryCarriesChunkMetadata(t *testing.T) {
	ctx := context.Background()
	chunks := []*model.DocumentChunk{
		{ProjectID: "p1", AssetID: "asset-7", Order: 3, Content: "hello", Metadata: map[string]interface{}{"section": "Intro"}},
	}
	embedder := &fakeEmbedder{dim: 4}
	store := newMemoryStore()
	vectors := service.NewVectorService(embedder, store, &fakeChunkSource{chunks: chunks})

	_, err := vectors.IndexProject(ctx, "p1", false)
	require.NoError(t, err)

	results, err := vectors.QueryVectors(ctx, "p1", "hello?", 0, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "hello", results[0].Text)
	require.Equal(t, "Intro", results[0].Metadata["section"])
	require.Equal(t, "asset-7", results[0].Metadata["chunk_asset"])
	require.Equal(t, 3, results[0].Metadata["chunk_order"])
}

func TestVectorServiceQueryThresholdPrunesRankedResults(t *testing.T) {
	ctx := context.Background()
	chunks := make([]*model.DocumentChunk, 0, 6)
	for i := 0; i < 6; i++ {
		chunks = append(chunks, &model.DocumentChunk{
			ProjectID: "p1", AssetID: "a", Order: i, Content: fmt.Sprintf("chunk %d", i),
		})
	}
	embedder := &fakeEmbedder{dim: 4}
	store := newMemoryStore()
	vectors := service.NewVectorService(embedder, store, &fakeChunkSource{chunks: chunks})

	_, err := vectors.IndexProject(ctx, "p1", false)
	require.NoError(t, err)

	// threshold applies to the top-k window, never widens it
	threshold := 0.6
	results, err := vectors.QueryVectors(ctx, "p1", "q", 3, &threshold)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.GreaterOrEqual(t, *results[0].Score, threshold)

	threshold = 0.4
	results, err = vectors.QueryVectors(ctx, "p1", "q", 2, &threshold)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, rc := range results {
		require.GreaterOrEqual(t, *rc.Score, threshold)
	}
}
