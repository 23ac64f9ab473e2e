package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/ai"
	"github.com/xxxsen/literag/internal/model"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
	"github.com/xxxsen/literag/internal/template"
)

// citationPatterns accepts the marker spellings models actually produce,
// each with an optional comma-separated index list.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[reference:\s*(\d+(?:\s*,\s*\d+)*)\]`),
	regexp.MustCompile(`(?i)\[ref:\s*(\d+(?:\s*,\s*\d+)*)\]`),
	regexp.MustCompile(`(?i)\[source:\s*(\d+(?:\s*,\s*\d+)*)\]`),
	regexp.MustCompile(`(?i)\[doc:\s*(\d+(?:\s*,\s*\d+)*)\]`),
	regexp.MustCompile(`\[(\d+(?:\s*,\s*\d+)*)\]`),
	regexp.MustCompile(`(?i)\[references:\s*(\d+(?:\s*,\s*\d+)*)\]`),
	regexp.MustCompile(`(?i)\[sources:\s*(\d+(?:\s*,\s*\d+)*)\]`),
	regexp.MustCompile(`(?i)\[docs:\s*(\d+(?:\s*,\s*\d+)*)\]`),
}

// Generator is the slice of the AI gateway the RAG service needs.
type Generator interface {
	ConstructPrompt(ctx context.Context, text string, role string) model.Message
	Generate(ctx context.Context, messages []model.Message, maxTokens int, temperature float64) (string, error)
}

type AnswerResult struct {
	Answer    string                  `json:"answer"`
	Citations []*model.RetrievedChunk `json:"citations"`
	Contexts  []*model.RetrievedChunk `json:"contexts"`
}

// RAGService answers questions over a project's indexed documents.
type RAGService struct {
	vectors   *VectorService
	generator Generator
	templates *template.Registry
}

func NewRAGService(vectors *VectorService, generator Generator, templates *template.Registry) *RAGService {
	return &RAGService{vectors: vectors, generator: generator, templates: templates}
}

// Answer retrieves the most relevant chunks for the query, prompts the
// generation model with them and resolves the citations it emits.
func (s *RAGService) Answer(ctx context.Context, projectID, query string, topK int, threshold *float64, maxTokens int, temperature float64) (*AnswerResult, error) {
	info, err := s.vectors.GetIndexInfo(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if info.PointCount < 1 {
		return nil, fmt.Errorf("%w: %s", appErr.ErrIndexEmpty, info.Name)
	}
	contexts, err := s.vectors.QueryVectors(ctx, projectID, query, topK, threshold)
	if err != nil {
		return nil, err
	}
	if len(contexts) == 0 {
		return nil, fmt.Errorf("%w: no relevant chunks for query", appErr.ErrIndexEmpty)
	}

	systemPrompt, err := s.templates.SystemPrompt()
	if err != nil {
		return nil, err
	}
	entries := make([]string, 0, len(contexts))
	for i, chunk := range contexts {
		entry, err := s.templates.ContextEntry(i+1, chunk.Text)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	footer, err := s.templates.Footer(query)
	if err != nil {
		return nil, err
	}
	prompt := strings.Join(entries, "\n") + "\n\n" + footer

	messages := []model.Message{
		s.generator.ConstructPrompt(ctx, systemPrompt, model.RoleSystem),
		s.generator.ConstructPrompt(ctx, prompt, model.RoleUser),
	}
	answer, err := s.generator.Generate(ctx, messages, maxTokens, temperature)
	if err != nil {
		return nil, err
	}
	return &AnswerResult{
		Answer:    answer,
		Citations: ExtractCitations(ctx, answer, contexts),
		Contexts:  contexts,
	}, nil
}

// ExtractCitations maps citation markers in the response back onto the
// context entries that were shown to the model. Cited entries come back in
// order of first appearance; indices collected but not yet emitted are
// appended in ascending order. Out-of-range and malformed markers are
// logged and dropped.
func ExtractCitations(ctx context.Context, response string, contexts []*model.RetrievedChunk) []*model.RetrievedChunk {
	logger := logutil.GetLogger(ctx)

	type citationPos struct {
		index    int
		position int
	}
	cited := make(map[int]struct{})
	var positions []citationPos
	for _, pattern := range citationPatterns {
		for _, match := range pattern.FindAllStringSubmatchIndex(response, -1) {
			group := response[match[2]:match[3]]
			for _, token := range strings.Split(group, ",") {
				index, err := strconv.Atoi(strings.TrimSpace(token))
				if err != nil {
					logger.Warn("invalid citation index", zap.String("token", strings.TrimSpace(token)))
					continue
				}
				if index <= 0 {
					continue
				}
				cited[index] = struct{}{}
				positions = append(positions, citationPos{index: index, position: match[0]})
			}
		}
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].position < positions[j].position
	})

	seen := make(map[int]struct{})
	citations := make([]*model.RetrievedChunk, 0, len(positions))
	for _, p := range positions {
		if p.index > len(contexts) {
			logger.Warn("citation index out of range",
				zap.Int("index", p.index), zap.Int("contexts", len(contexts)))
			continue
		}
		if _, ok := seen[p.index]; ok {
			continue
		}
		seen[p.index] = struct{}{}
		citations = append(citations, contexts[p.index-1])
	}

	remaining := make([]int, 0, len(cited))
	for index := range cited {
		remaining = append(remaining, index)
	}
	sort.Ints(remaining)
	for _, index := range remaining {
		if index > len(contexts) {
			continue
		}
		if _, ok := seen[index]; ok {
			continue
		}
		seen[index] = struct{}{}
		citations = append(citations, contexts[index-1])
	}
	return citations
}

var _ Generator = (*ai.Gateway)(nil)
