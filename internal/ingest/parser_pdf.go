package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// pdfParser extracts one fragment per page so page numbers survive as
// chunk metadata. Pages that fail text extraction are skipped.
type pdfParser struct{}

func (p *pdfParser) ContentTypes() []string {
	return []string{"application/pdf"}
}

func (p *pdfParser) Parse(ctx context.Context, data []byte) ([]*Fragment, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	pageCount := reader.NumPage()
	fragments := make([]*Fragment, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logutil.GetLogger(ctx).Warn("skipping unreadable pdf page", zap.Int("page", i), zap.Error(err))
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		fragments = append(fragments, &Fragment{
			Content: text,
			Metadata: map[string]interface{}{
				"page_number": i,
				"total_pages": pageCount,
			},
		})
	}
	return fragments, nil
}
