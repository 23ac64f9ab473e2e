package ingest

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/model"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
)

// Fragment is one parsed piece of a source document, before windowing.
// Parsers attach format-specific metadata such as page or section.
type Fragment struct {
	Content  string
	Metadata map[string]interface{}
}

type IParser interface {
	ContentTypes() []string
	Parse(ctx context.Context, data []byte) ([]*Fragment, error)
}

// Pipeline turns raw document bytes into ordered content chunks.
type Pipeline struct {
	parsers             map[string]IParser
	defaultChunkSize    int
	defaultChunkOverlap int
}

func NewPipeline(defaultChunkSize int, defaultChunkOverlap int) *Pipeline {
	p := &Pipeline{
		parsers:             make(map[string]IParser),
		defaultChunkSize:    defaultChunkSize,
		defaultChunkOverlap: defaultChunkOverlap,
	}
	p.register(&textParser{})
	p.register(&markdownParser{})
	p.register(&pdfParser{})
	return p
}

func (p *Pipeline) register(parser IParser) {
	for _, ct := range parser.ContentTypes() {
		p.parsers[ct] = parser
	}
}

func (p *Pipeline) Supported(contentType string) bool {
	_, ok := p.parsers[normalizeContentType(contentType)]
	return ok
}

// Process parses and windows a document. Chunk order is 0-based and
// contiguous across fragments. Zero size or overlap fall back to the
// pipeline defaults.
func (p *Pipeline) Process(ctx context.Context, contentType string, data []byte, chunkSize int, chunkOverlap int) ([]*model.DocumentChunk, error) {
	if chunkSize == 0 {
		chunkSize = p.defaultChunkSize
	}
	if chunkOverlap == 0 {
		chunkOverlap = p.defaultChunkOverlap
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", appErr.ErrInvalid)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", appErr.ErrInvalid)
	}
	parser, ok := p.parsers[normalizeContentType(contentType)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErr.ErrUnsupportedFormat, contentType)
	}
	fragments, err := parser.Parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrParseFailed, err)
	}
	var chunks []*model.DocumentChunk
	order := 0
	for _, frag := range fragments {
		content := sanitizeText(frag.Content)
		if content == "" {
			continue
		}
		for _, window := range splitWindows(content, chunkSize, chunkOverlap) {
			chunks = append(chunks, &model.DocumentChunk{
				Order:    order,
				Content:  window,
				Metadata: copyMetadata(frag.Metadata),
			})
			order++
		}
	}
	logutil.GetLogger(ctx).Debug("document processed",
		zap.String("content_type", contentType),
		zap.Int("fragments", len(fragments)),
		zap.Int("chunks", len(chunks)))
	return chunks, nil
}

func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// sanitizeText drops control runes except newline, carriage return and tab.
func sanitizeText(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(cleaned)
}

// splitWindows slides a fixed-size rune window over the text, advancing by
// size minus overlap each step.
func splitWindows(text string, size int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	step := size - overlap
	var windows []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return windows
}

func copyMetadata(meta map[string]interface{}) map[string]interface{} {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
