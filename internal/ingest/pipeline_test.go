package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/literag/internal/pkg/errors"
)

func TestSplitWindows(t *testing.T) {
	text := strings.Repeat("a", 1000)
	windows := splitWindows(text, 300, 40)
	require.Len(t, windows, 4)
	require.Len(t, windows[0], 300)
	require.Len(t, windows[1], 300)
	require.Len(t, windows[2], 300)
	// last window starts at 780 and runs to the end
	require.Len(t, windows[3], 220)
}

func TestSplitWindowsShortText(t *testing.T) {
	windows := splitWindows("short", 300, 40)
	require.Equal(t, []string{"short"}, windows)
}

func TestSplitWindowsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("日", 10)
	windows := splitWindows(text, 4, 1)
	for _, w := range windows {
		for _, r := range w {
			require.Equal(t, '日', r)
		}
	}
	require.Equal(t, 4, len([]rune(windows[0])))
}

func TestSanitizeText(t *testing.T) {
	require.Equal(t, "ab", sanitizeText("a\x00b"))
	require.Equal(t, "a\nb\tc", sanitizeText("a\nb\tc"))
	require.Equal(t, "trimmed", sanitizeText("  trimmed \n"))
}

func TestPipelineProcessPlainText(t *testing.T) {
	p := NewPipeline(512, 64)
	chunks, err := p.Process(context.Background(), "text/plain; charset=utf-8", []byte("hello world"), 0, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, 0, chunks[0].Order)
	require.Equal(t, "hello world", chunks[0].Content)
}

func TestPipelineProcessOrderIsContiguous(t *testing.T) {
	p := NewPipeline(512, 64)
	text := strings.Repeat("b", 1200)
	chunks, err := p.Process(context.Background(), "text/plain", []byte(text), 500, 100)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		require.Equal(t, i, chunk.Order)
	}
}

func TestPipelineProcessValidation(t *testing.T) {
	p := NewPipeline(512, 64)

	_, err := p.Process(context.Background(), "text/plain", []byte("x"), -1, 0)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = p.Process(context.Background(), "text/plain", []byte("x"), 100, 100)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = p.Process(context.Background(), "text/plain", []byte("x"), 100, -1)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = p.Process(context.Background(), "application/zip", []byte("x"), 0, 0)
	require.ErrorIs(t, err, appErr.ErrUnsupportedFormat)
}

func TestPipelineProcessMarkdownSections(t *testing.T) {
	p := NewPipeline(512, 64)
	doc := "# Intro\n\nfirst section body\n\n## Details\n\nsecond section body\n"
	chunks, err := p.Process(context.Background(), "text/markdown", []byte(doc), 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var intro, details bool
	for _, chunk := range chunks {
		switch chunk.Metadata["section"] {
		case "Intro":
			intro = true
			require.Contains(t, chunk.Content, "first section body")
		case "Details":
			details = true
			require.Contains(t, chunk.Content, "second section body")
		}
	}
	require.True(t, intro)
	require.True(t, details)
}

func TestPipelineSupported(t *testing.T) {
	p := NewPipeline(512, 64)
	require.True(t, p.Supported("text/plain"))
	require.True(t, p.Supported("Text/Markdown"))
	require.True(t, p.Supported("application/pdf"))
	require.False(t, p.Supported("image/png"))
}
