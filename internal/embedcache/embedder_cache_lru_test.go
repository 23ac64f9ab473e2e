package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/literag/internal/model"
)

type countingEmbedProvider struct {
	calls int
	texts []string
}

func (c *countingEmbedProvider) Name() string { return "counting" }

func (c *countingEmbedProvider) Embed(ctx context.Context, mdl string, texts []string, inputType string, dim int) ([][]float32, error) {
	c.calls++
	c.texts = append(c.texts, texts...)
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, []float32{float32(len(text)), 0, 0, 0})
	}
	return out, nil
}

func TestLruEmbedProviderCachesPerText(t *testing.T) {
	ctx := context.Background()
	next := &countingEmbedProvider{}
	cached := WrapLruCacheToEmbedProvider(next, 16, time.Minute)

	first, err := cached.Embed(ctx, "m", []string{"aa", "bbb"}, model.InputTypeDocument, 4)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, 1, next.calls)

	// full repeat batch is served from cache
	second, err := cached.Embed(ctx, "m", []string{"aa", "bbb"}, model.InputTypeDocument, 4)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, next.calls)

	// only the new text goes to the provider
	third, err := cached.Embed(ctx, "m", []string{"aa", "cccc"}, model.InputTypeDocument, 4)
	require.NoError(t, err)
	require.Len(t, third, 2)
	require.Equal(t, 2, next.calls)
	require.Equal(t, []string{"aa", "bbb", "cccc"}, next.texts)
}

func TestLruEmbedProviderKeySeparatesInputTypes(t *testing.T) {
	ctx := context.Background()
	next := &countingEmbedProvider{}
	cached := WrapLruCacheToEmbedProvider(next, 16, time.Minute)

	_, err := cached.Embed(ctx, "m", []string{"same"}, model.InputTypeDocument, 4)
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "m", []string{"same"}, model.InputTypeQuery, 4)
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

type shortBatchEmbedProvider struct{}

func (s *shortBatchEmbedProvider) Name() string { return "short" }

func (s *shortBatchEmbedProvider) Embed(ctx context.Context, mdl string, texts []string, inputType string, dim int) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for range texts[1:] {
		out = append(out, make([]float32, dim))
	}
	return out, nil
}

func TestLruEmbedProviderRejectsShortBatch(t *testing.T) {
	cached := WrapLruCacheToEmbedProvider(&shortBatchEmbedProvider{}, 16, time.Minute)

	_, err := cached.Embed(context.Background(), "m", []string{"aa", "bbb"}, model.InputTypeDocument, 4)
	require.ErrorContains(t, err, "1 vectors for 2 texts")
}

func TestWrapLruCacheToEmbedProviderDisabled(t *testing.T) {
	next := &countingEmbedProvider{}
	require.Equal(t, next, WrapLruCacheToEmbedProvider(next, 0, time.Minute))
	require.Nil(t, WrapLruCacheToEmbedProvider(nil, 16, time.Minute))
}
