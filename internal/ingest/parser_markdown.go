package ingest

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownParser splits a markdown document into one fragment per top-level
// section. Level 1 and 2 headings open a new section; the heading text is
// carried in the fragment metadata.
type markdownParser struct{}

func (p *markdownParser) ContentTypes() []string {
	return []string{"text/markdown"}
}

func (p *markdownParser) Parse(ctx context.Context, data []byte) ([]*Fragment, error) {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var fragments []*Fragment
	var section string
	var parts []string

	flush := func() {
		if len(parts) == 0 {
			return
		}
		frag := &Fragment{Content: strings.Join(parts, "\n\n")}
		if section != "" {
			frag.Metadata = map[string]interface{}{"section": section}
		}
		fragments = append(fragments, frag)
		parts = nil
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			heading := string(n.Text(reader.Source()))
			if n.Level <= 2 {
				flush()
				section = heading
			} else {
				parts = append(parts, heading)
			}
		case *ast.FencedCodeBlock:
			var code strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				code.Write(line.Value(reader.Source()))
			}
			if code.Len() > 0 {
				parts = append(parts, code.String())
			}
		default:
			txt := nodeText(node, reader.Source())
			if txt != "" {
				parts = append(parts, txt)
			}
		}
	}
	flush()
	return fragments, nil
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
