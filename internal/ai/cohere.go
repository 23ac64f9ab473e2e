package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xxxsen/literag/internal/model"
)

const defaultCohereBaseURL = "https://api.cohere.ai"

type cohereConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type cohereProvider struct {
	apiKey  string
	baseURL string
}

type cohereChatRequest struct {
	Model       string          `json:"model"`
	Messages    []cohereChatMsg `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type cohereChatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type cohereChatResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

type cohereEmbedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
	OutputDim      int      `json:"output_dimension,omitempty"`
}

type cohereEmbedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
}

func (p *cohereProvider) Name() string {
	return "cohere"
}

func (p *cohereProvider) Generate(ctx context.Context, mdl string, messages []model.Message, maxTokens int, temperature float64) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("cohere api key is not configured")
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/v2/chat"
	msgs := make([]cohereChatMsg, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, cohereChatMsg{Role: m.Role, Content: m.Content})
	}
	reqBody := cohereChatRequest{
		Model:       mdl,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	var out cohereChatResponse
	if err := p.post(ctx, endpoint, reqBody, &out); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, part := range out.Message.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("cohere response has no text content")
	}
	return text, nil
}

type cohereEmbedProvider struct {
	apiKey  string
	baseURL string
}

func (p *cohereEmbedProvider) Name() string {
	return "cohere"
}

func (p *cohereEmbedProvider) Embed(ctx context.Context, mdl string, texts []string, inputType string, dim int) ([][]float32, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("cohere api key is not configured")
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/v2/embed"
	reqBody := cohereEmbedRequest{
		Model:          mdl,
		Texts:          texts,
		InputType:      cohereInputType(inputType),
		EmbeddingTypes: []string{"float"},
		OutputDim:      dim,
	}
	var out cohereEmbedResponse
	if err := (&cohereProvider{apiKey: p.apiKey, baseURL: p.baseURL}).post(ctx, endpoint, reqBody, &out); err != nil {
		return nil, err
	}
	if len(out.Embeddings.Float) != len(texts) {
		return nil, fmt.Errorf("cohere returned %d embeddings for %d texts", len(out.Embeddings.Float), len(texts))
	}
	return out.Embeddings.Float, nil
}

func cohereInputType(inputType string) string {
	switch inputType {
	case model.InputTypeQuery:
		return "search_query"
	default:
		return "search_document"
	}
}

func (p *cohereProvider) post(ctx context.Context, endpoint string, reqBody interface{}, out interface{}) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cohere request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func createCohereFactory(args interface{}) (IProvider, error) {
	cfg := &cohereConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultCohereBaseURL
	}
	return &cohereProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func createCohereEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &cohereConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultCohereBaseURL
	}
	return &cohereEmbedProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func init() {
	Register("cohere", createCohereFactory)
	RegisterEmbed("cohere", createCohereEmbedFactory)
}
