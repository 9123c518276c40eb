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

const defaultEmbeddingsBaseURL = "https://api.openai.com/v1"

// EmbedderConfig configures the OpenAI-compatible embeddings provider.
type EmbedderConfig struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"-"`
	BaseURL string `mapstructure:"base-url"`
}

type openAIEmbedder struct {
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAIEmbedder constructs an embeddings provider speaking the
// OpenAI REST convention:
//
//	POST {baseURL}/embeddings
//	{"model": "...", "input": "..."}
//
// Any service exposing that endpoint works as a backend.
func NewOpenAIEmbedder(cfg EmbedderConfig) Embedder {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultEmbeddingsBaseURL
	}
	return &openAIEmbedder{
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *openAIEmbedder) ModelID() string {
	return "openai:" + e.model
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.model == "" {
		return nil, fmt.Errorf("embeddings model is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	body, err := json.Marshal(map[string]any{
		"model": e.model,
		"input": text,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse embeddings response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response missing embedding")
	}

	vector := make([]float32, len(parsed.Data[0].Embedding))
	for i, v := range parsed.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}
