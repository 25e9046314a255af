package embeddings

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	ollamaMaxRetries   = 4
	ollamaInitialDelay = 500 * time.Millisecond
	ollamaMaxDelay     = 8 * time.Second
)

type ollamaProvider struct {
	model  string
	client *resty.Client
	dim    atomic.Int64
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllama constructs a provider backed by an Ollama-compatible
// POST {baseURL}/api/embed endpoint. Transport errors and 5xx responses are
// retried with exponential backoff.
func NewOllama(cfg *Config) Provider {
	return newOllama(cfg, ollamaInitialDelay, ollamaMaxDelay)
}

func newOllama(cfg *Config, wait, maxWait time.Duration) *ollamaProvider {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(ollamaMaxRetries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(maxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		})
	p := &ollamaProvider{model: cfg.Model, client: client}
	p.dim.Store(int64(cfg.Dim))
	return p
}

func (p *ollamaProvider) ModelID() string {
	return "ollama:" + p.model
}

func (p *ollamaProvider) Dim() int {
	return int(p.dim.Load())
}

func (p *ollamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	var parsed ollamaEmbedResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(ollamaEmbedRequest{Model: p.model, Input: text}).
		SetResult(&parsed).
		Post("/api/embed")
	if err != nil {
		return nil, fmt.Errorf("local embedding request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("local embedding error (%d): %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if len(parsed.Embeddings) == 0 || len(parsed.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	out := parsed.Embeddings[0]
	p.dim.Store(int64(len(out)))
	return out, nil
}
