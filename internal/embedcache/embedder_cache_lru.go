package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/ai"
)

// WrapLruCacheToEmbedProvider wraps an embed provider with an in-process
// expirable LRU. Each text in a batch is cached individually, so a repeat
// batch only re-embeds the misses.
func WrapLruCacheToEmbedProvider(e ai.IEmbedProvider, size int, ttl time.Duration) ai.IEmbedProvider {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedProvider{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedProvider struct {
	next  ai.IEmbedProvider
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedProvider) Name() string {
	if l == nil || l.next == nil {
		return ""
	}
	return l.next.Name()
}

func (l *lruEmbedProvider) Embed(ctx context.Context, mdl string, texts []string, inputType string, dim int) ([][]float32, error) {
	if l == nil || l.next == nil {
		return nil, nil
	}
	vectors := make([][]float32, len(texts))
	missTexts := make([]string, 0, len(texts))
	missIdx := make([]int, 0, len(texts))
	for i, text := range texts {
		key := buildCacheKey(mdl, inputType, text)
		if cached, ok := l.cache.Get(key); ok {
			vectors[i] = cloneEmbedding(cached)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit for full batch", zap.Int("size", len(texts)))
		return vectors, nil
	}
	fetched, err := l.next.Embed(ctx, mdl, missTexts, inputType, dim)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missTexts) {
		return nil, fmt.Errorf("embed provider returned %d vectors for %d texts", len(fetched), len(missTexts))
	}
	for j, i := range missIdx {
		vectors[i] = fetched[j]
		l.cache.Add(buildCacheKey(mdl, inputType, texts[i]), cloneEmbedding(fetched[j]))
	}
	return vectors, nil
}

func buildCacheKey(mdl, inputType, text string) string {
	mdl = strings.TrimSpace(mdl)
	if mdl == "" {
		mdl = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	return "embed:" + mdl + ":" + inputType + ":" + hex.EncodeToString(hash[:])
}

func cloneEmbedding(values []float32) []float32 {
	if values == nil {
		return nil
	}
	out := make([]float32, len(values))
	copy(out, values)
	return out
}
