package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIModel calls /v1/embeddings. The dimensions parameter lets
// text-embedding-3 models shorten their output to the index width.
type OpenAIModel struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	dims    int
}

func NewOpenAIModel(apiKey, model string, dims int) *OpenAIModel {
	return newOpenAIModelAt("https://api.openai.com", apiKey, model, dims)
}

func newOpenAIModelAt(baseURL, apiKey, model string, dims int) *OpenAIModel {
	return &OpenAIModel{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		dims:    dims,
	}
}

func (m *OpenAIModel) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	return m.embed(ctx, text)
}

func (m *OpenAIModel) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	return m.embed(ctx, text)
}

func (m *OpenAIModel) Dims() int { return m.dims }

func (m *OpenAIModel) Shutdown() error { return nil }

func (m *OpenAIModel) embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{"model": m.model, "input": text}
	if m.dims > 0 {
		payload["dimensions"] = m.dims
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return checkDims(result.Data[0].Embedding, m.dims)
}
