package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/literag/internal/model"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
	"github.com/xxxsen/literag/internal/service"
	"github.com/xxxsen/literag/internal/template"
)

func makeContexts(n int) []*model.RetrievedChunk {
	out := make([]*model.RetrievedChunk, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &model.RetrievedChunk{
			ID:   string(rune('a' + i)),
			Text: strings.Repeat("x", i+1),
		})
	}
	return out
}

func TestExtractCitationsMarkerSpellings(t *testing.T) {
	ctx := context.Background()
	contexts := makeContexts(5)

	response := "First [Reference: 2], then [ref:1], also [Source: 3] and [doc: 4] plus [5]."
	citations := service.ExtractCitations(ctx, response, contexts)
	require.Len(t, citations, 5)
	require.Equal(t, contexts[1], citations[0])
	require.Equal(t, contexts[0], citations[1])
	require.Equal(t, contexts[2], citations[2])
	require.Equal(t, contexts[3], citations[3])
	require.Equal(t, contexts[4], citations[4])
}

func TestExtractCitationsCommaListsAndPluralMarkers(t *testing.T) {
	ctx := context.Background()
	contexts := makeContexts(4)

	citations := service.ExtractCitations(ctx, "See [references: 3, 1] and [docs:2,4].", contexts)
	require.Len(t, citations, 4)
	require.Equal(t, contexts[2], citations[0])
	require.Equal(t, contexts[0], citations[1])
	require.Equal(t, contexts[1], citations[2])
	require.Equal(t, contexts[3], citations[3])
}

func TestExtractCitationsDedupesByFirstAppearance(t *testing.T) {
	ctx := context.Background()
	contexts := makeContexts(3)

	citations := service.ExtractCitations(ctx, "[2] then [1] then [2] again then [1].", contexts)
	require.Len(t, citations, 2)
	require.Equal(t, contexts[1], citations[0])
	require.Equal(t, contexts[0], citations[1])
}

func TestExtractCitationsDropsOutOfRange(t *testing.T) {
	ctx := context.Background()
	contexts := makeContexts(2)

	citations := service.ExtractCitations(ctx, "Valid [1], bogus [9], valid [2].", contexts)
	require.Len(t, citations, 2)
	require.Equal(t, contexts[0], citations[0])
	require.Equal(t, contexts[1], citations[1])
}

func TestExtractCitationsNoMarkers(t *testing.T) {
	citations := service.ExtractCitations(context.Background(), "no citations here", makeContexts(3))
	require.Empty(t, citations)
}

func TestExtractCitationsIgnoresZeroAndNegative(t *testing.T) {
	contexts := makeContexts(2)
	citations := service.ExtractCitations(context.Background(), "[0] and [1]", contexts)
	require.Len(t, citations, 1)
	require.Equal(t, contexts[0], citations[0])
}

func newRAGFixture(t *testing.T, chunks []*model.DocumentChunk, gen *fakeGenerator) (*service.RAGService, *service.VectorService) {
	t.Helper()
	embedder := &fakeEmbedder{dim: 4}
	store := newMemoryStore()
	vectors := service.NewVectorService(embedder, store, &fakeChunkSource{chunks: chunks})
	templates := template.NewRegistry("en", "en")
	return service.NewRAGService(vectors, gen, templates), vectors
}

func TestRAGAnswerBuildsPromptAndCitations(t *testing.T) {
	ctx := context.Background()
	chunks := []*model.DocumentChunk{
		{ProjectID: "p1", AssetID: "a1", Order: 0, Content: "alpha fact"},
		{ProjectID: "p1", AssetID: "a1", Order: 1, Content: "beta fact"},
	}
	gen := &fakeGenerator{response: "It is alpha [1]."}
	rag, vectors := newRAGFixture(t, chunks, gen)

	count, err := vectors.IndexProject(ctx, "p1", false)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	result, err := rag.Answer(ctx, "p1", "what is alpha?", 5, nil, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "It is alpha [1].", result.Answer)
	require.Len(t, result.Contexts, 2)
	require.Len(t, result.Citations, 1)
	require.Equal(t, "alpha fact", result.Citations[0].Text)

	require.Len(t, gen.messages, 2)
	require.Equal(t, model.RoleSystem, gen.messages[0].Role)
	require.Equal(t, model.RoleUser, gen.messages[1].Role)
	require.Contains(t, gen.messages[1].Content, "## Document No: 1")
	require.Contains(t, gen.messages[1].Content, "alpha fact")
	require.Contains(t, gen.messages[1].Content, "## Question:\nwhat is alpha?")
	require.True(t, strings.HasSuffix(gen.messages[1].Content, "## Answer:"))
}

func TestRAGAnswerEmptyIndex(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{response: "whatever"}
	rag, vectors := newRAGFixture(t, nil, gen)

	_, err := vectors.IndexProject(ctx, "p1", false)
	require.NoError(t, err)

	_, err = rag.Answer(ctx, "p1", "anything", 5, nil, 0, 0)
	require.ErrorIs(t, err, appErr.ErrIndexEmpty)
}

func TestRAGAnswerMissingIndex(t *testing.T) {
	gen := &fakeGenerator{response: "whatever"}
	rag, _ := newRAGFixture(t, nil, gen)

	_, err := rag.Answer(context.Background(), "nope", "anything", 5, nil, 0, 0)
	require.ErrorIs(t, err, appErr.ErrIndexNotFound)
}
