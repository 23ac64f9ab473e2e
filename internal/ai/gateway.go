package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/model"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
)

type GatewayConfig struct {
	GenerationModel string
	EmbeddingModel  string
	EmbeddingDim    int
	MaxInputChars   int
	MaxOutputTokens int
	Temperature     float64
	Timeout         int
}

// Gateway fronts the configured generation and embedding providers.
// The embedding dimension is fixed at construction time; every vector the
// gateway returns has exactly that many components.
type Gateway struct {
	generator IProvider
	embedder  IEmbedProvider
	cfg       GatewayConfig
}

func NewGateway(generator IProvider, embedder IEmbedProvider, cfg GatewayConfig) *Gateway {
	return &Gateway{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (g *Gateway) Dimension() int {
	return g.cfg.EmbeddingDim
}

func (g *Gateway) GenerationModel() string {
	return g.cfg.GenerationModel
}

func (g *Gateway) EmbeddingModel() string {
	return g.cfg.EmbeddingModel
}

// ConstructPrompt builds a chat message, coercing unknown roles to user.
func (g *Gateway) ConstructPrompt(ctx context.Context, text string, role string) model.Message {
	if !model.ValidRole(role) {
		logutil.GetLogger(ctx).Warn("unknown message role, falling back to user", zap.String("role", role))
		role = model.RoleUser
	}
	return model.Message{Role: role, Content: text}
}

// Embed embeds each text in a single provider call. Inputs longer than the
// configured limit are truncated, never rejected.
func (g *Gateway) Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	if g.embedder == nil || g.cfg.EmbeddingModel == "" {
		return nil, fmt.Errorf("%w: no embedding model configured", appErr.ErrEmbeddingUnavailable)
	}
	if len(texts) == 0 {
		return nil, nil
	}
	input := make([]string, 0, len(texts))
	for _, text := range texts {
		input = append(input, g.truncate(ctx, text))
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	vectors, err := g.embedder.Embed(ctx, g.cfg.EmbeddingModel, input, inputType, g.cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(input) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", appErr.ErrEmbeddingUnavailable, len(vectors), len(input))
	}
	for i, vec := range vectors {
		if len(vec) != g.cfg.EmbeddingDim {
			return nil, fmt.Errorf("%w: vector %d has %d dims, want %d", appErr.ErrDimensionMismatch, i, len(vec), g.cfg.EmbeddingDim)
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a single query text and returns one flat vector.
func (g *Gateway) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := g.Embed(ctx, []string{query}, model.InputTypeQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", appErr.ErrEmbeddingUnavailable)
	}
	return vectors[0], nil
}

// Generate runs a chat completion over the given messages. Zero maxTokens or
// temperature fall back to the gateway defaults.
func (g *Gateway) Generate(ctx context.Context, messages []model.Message, maxTokens int, temperature float64) (string, error) {
	if g.generator == nil || g.cfg.GenerationModel == "" {
		return "", fmt.Errorf("%w: no generation model configured", appErr.ErrGenerationUnavailable)
	}
	if maxTokens <= 0 {
		maxTokens = g.cfg.MaxOutputTokens
	}
	if temperature <= 0 {
		temperature = g.cfg.Temperature
	}
	trimmed := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		m.Content = g.truncate(ctx, m.Content)
		trimmed = append(trimmed, m)
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	resp, err := g.generator.Generate(ctx, g.cfg.GenerationModel, trimmed, maxTokens, temperature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrGenerationFailed, err)
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty model response", appErr.ErrGenerationFailed)
	}
	return text, nil
}

func (g *Gateway) truncate(ctx context.Context, text string) string {
	limit := g.cfg.MaxInputChars
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	logutil.GetLogger(ctx).Warn("input exceeds character limit, truncating",
		zap.Int("length", len(runes)), zap.Int("limit", limit))
	return string(runes[:limit])
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(g.cfg.Timeout)*time.Second)
}
