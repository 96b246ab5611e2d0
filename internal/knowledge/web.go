package knowledge

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

// WebSearch resolves lookups against DuckDuckGo for questions the local
// knowledge base cannot answer.
type WebSearch struct {
	client *duckduckgo.Tool
}

func NewWebSearch() (*WebSearch, error) {
	ddg, err := duckduckgo.New(10, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return &WebSearch{client: ddg}, nil
}

func (w *WebSearch) Search(ctx context.Context, query string) (string, error) {
	res, err := w.client.Call(ctx, query)
	if err != nil {
		return "", fmt.Errorf("web search failed: %w", err)
	}
	return res, nil
}
