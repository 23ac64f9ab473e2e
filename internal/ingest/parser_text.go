package ingest

import "context"

type textParser struct{}

func (p *textParser) ContentTypes() []string {
	return []string{"text/plain"}
}

func (p *textParser) Parse(ctx context.Context, data []byte) ([]*Fragment, error) {
	return []*Fragment{{Content: string(data)}}, nil
}
