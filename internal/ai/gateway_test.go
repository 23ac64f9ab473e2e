package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/literag/internal/model"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
)

type stubProvider struct {
	response string
	err      error

	gotModel       string
	gotMessages    []model.Message
	gotMaxTokens   int
	gotTemperature float64
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(ctx context.Context, mdl string, messages []model.Message, maxTokens int, temperature float64) (string, error) {
	s.gotModel = mdl
	s.gotMessages = messages
	s.gotMaxTokens = maxTokens
	s.gotTemperature = temperature
	return s.response, s.err
}

type stubEmbedProvider struct {
	dim   int
	err   error
	calls int

	gotTexts []string
}

func (s *stubEmbedProvider) Name() string { return "stub" }

func (s *stubEmbedProvider) Embed(ctx context.Context, mdl string, texts []string, inputType string, dim int) ([][]float32, error) {
	s.calls++
	s.gotTexts = texts
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, 0, len(texts))
	for range texts {
		out = append(out, make([]float32, s.dim))
	}
	return out, nil
}

func testGateway(gen IProvider, embed IEmbedProvider) *Gateway {
	return NewGateway(gen, embed, GatewayConfig{
		GenerationModel: "gen-model",
		EmbeddingModel:  "embed-model",
		EmbeddingDim:    4,
		MaxInputChars:   100,
		MaxOutputTokens: 256,
		Temperature:     0.2,
	})
}

func TestGatewayConstructPromptCoercesUnknownRole(t *testing.T) {
	g := testGateway(nil, nil)
	ctx := context.Background()

	msg := g.ConstructPrompt(ctx, "hi", model.RoleSystem)
	require.Equal(t, model.RoleSystem, msg.Role)

	msg = g.ConstructPrompt(ctx, "hi", "robot")
	require.Equal(t, model.RoleUser, msg.Role)
	require.Equal(t, "hi", msg.Content)
}

func TestGatewayEmbed(t *testing.T) {
	embed := &stubEmbedProvider{dim: 4}
	g := testGateway(nil, embed)

	vectors, err := g.Embed(context.Background(), []string{"a", "b"}, model.InputTypeDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.Len(t, vectors[0], 4)
}

func TestGatewayEmbedDimensionMismatch(t *testing.T) {
	embed := &stubEmbedProvider{dim: 3}
	g := testGateway(nil, embed)

	_, err := g.Embed(context.Background(), []string{"a"}, model.InputTypeDocument)
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)
}

func TestGatewayEmbedProviderFailure(t *testing.T) {
	embed := &stubEmbedProvider{err: errors.New("boom")}
	g := testGateway(nil, embed)

	_, err := g.Embed(context.Background(), []string{"a"}, model.InputTypeDocument)
	require.ErrorIs(t, err, appErr.ErrEmbeddingUnavailable)
}

func TestGatewayEmbedNotConfigured(t *testing.T) {
	g := NewGateway(nil, nil, GatewayConfig{EmbeddingDim: 4})

	_, err := g.Embed(context.Background(), []string{"a"}, model.InputTypeDocument)
	require.ErrorIs(t, err, appErr.ErrEmbeddingUnavailable)
}

func TestGatewayGenerateDefaultsAndTrim(t *testing.T) {
	gen := &stubProvider{response: "  answer text \n"}
	g := testGateway(gen, nil)

	out, err := g.Generate(context.Background(), []model.Message{{Role: model.RoleUser, Content: "q"}}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "answer text", out)
	require.Equal(t, "gen-model", gen.gotModel)
	require.Equal(t, 256, gen.gotMaxTokens)
	require.InDelta(t, 0.2, gen.gotTemperature, 1e-9)
}

func TestGatewayGenerateTruncatesLongInput(t *testing.T) {
	gen := &stubProvider{response: "ok"}
	g := testGateway(gen, nil)

	long := strings.Repeat("x", 500)
	_, err := g.Generate(context.Background(), []model.Message{{Role: model.RoleUser, Content: long}}, 0, 0)
	require.NoError(t, err)
	require.Len(t, gen.gotMessages[0].Content, 100)
}

func TestGatewayTruncateCountsRunes(t *testing.T) {
	embed := &stubEmbedProvider{dim: 4}
	g := NewGateway(nil, embed, GatewayConfig{
		EmbeddingModel: "embed-model",
		EmbeddingDim:   4,
		MaxInputChars:  4,
	})

	_, err := g.Embed(context.Background(), []string{"日本語テキスト", "短い"}, model.InputTypeDocument)
	require.NoError(t, err)
	require.Equal(t, "日本語テ", embed.gotTexts[0])
	require.True(t, utf8.ValidString(embed.gotTexts[0]))
	require.Equal(t, "短い", embed.gotTexts[1])
}

func TestGatewayGenerateEmptyResponse(t *testing.T) {
	gen := &stubProvider{response: "   "}
	g := testGateway(gen, nil)

	_, err := g.Generate(context.Background(), []model.Message{{Role: model.RoleUser, Content: "q"}}, 0, 0)
	require.ErrorIs(t, err, appErr.ErrGenerationFailed)
}

func TestGatewayGenerateNotConfigured(t *testing.T) {
	g := NewGateway(nil, nil, GatewayConfig{})

	_, err := g.Generate(context.Background(), nil, 0, 0)
	require.ErrorIs(t, err, appErr.ErrGenerationUnavailable)
}
