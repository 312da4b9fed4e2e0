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

// OllamaModel calls the /api/embed endpoint of an Ollama server.
type OllamaModel struct {
	client  *http.Client
	baseURL string
	model   string
	dims    int
	// Prefixes for E5-style models that were trained with them.
	queryPrefix   string
	passagePrefix string
}

func NewOllamaModel(baseURL, model string, dims int) *OllamaModel {
	m := &OllamaModel{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		dims:    dims,
	}
	if strings.Contains(strings.ToLower(model), "e5") {
		m.queryPrefix, m.passagePrefix = "query: ", "passage: "
	}
	return m
}

func (m *OllamaModel) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	return m.embed(ctx, m.queryPrefix+text)
}

func (m *OllamaModel) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	return m.embed(ctx, m.passagePrefix+text)
}

func (m *OllamaModel) Dims() int { return m.dims }

func (m *OllamaModel) Shutdown() error { return nil }

func (m *OllamaModel) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]any{"model": m.model, "input": text})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return checkDims(result.Embeddings[0], m.dims)
}

func checkDims(v []float32, dims int) ([]float32, error) {
	if dims > 0 && len(v) != dims {
		return nil, fmt.Errorf("embedding has %d dimensions, configured %d", len(v), dims)
	}
	return v, nil
}
