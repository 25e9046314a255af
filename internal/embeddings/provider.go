package embeddings

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kamusis/nlcmd/internal/config"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config contains the resolved embeddings configuration.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	Dim       int
	Cache     bool
	CachePath string
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "nomic-embed-text"
	defaultHashDim       = 384
)

// LoadConfig resolves the embeddings section of cfg. The API key is a secret and
// is read from the environment first, then ~/.nlcmd/.env.
func LoadConfig(cfg *config.Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	apiKey, err := config.GetConfigValue("NLCMD_EMBEDDINGS_API_KEY")
	if err != nil {
		return nil, err
	}

	out := &Config{
		Provider:  strings.ToLower(strings.TrimSpace(cfg.Embeddings.Provider)),
		Model:     cfg.Embeddings.Model,
		APIKey:    apiKey,
		BaseURL:   cfg.Embeddings.BaseURL,
		Dim:       cfg.Embeddings.Dim,
		Cache:     cfg.Embeddings.Cache,
		CachePath: cfg.Embeddings.CachePath,
	}
	switch out.Provider {
	case "openai":
		if out.BaseURL == "" {
			out.BaseURL = defaultOpenAIBaseURL
		}
	case "ollama":
		if out.BaseURL == "" {
			out.BaseURL = defaultOllamaBaseURL
		}
		if out.Model == "" {
			out.Model = defaultOllamaModel
		}
	case "hash":
		if out.Dim <= 0 {
			out.Dim = defaultHashDim
		}
	}
	return out, nil
}

// NewFromConfig returns an embeddings provider. Remote providers are wrapped in
// the sqlite cache when caching is enabled; callers should Close the result.
func NewFromConfig(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("embeddings provider is not configured (set embeddings.provider in nlcmd.yaml)")
	}

	var p Provider
	switch cfg.Provider {
	case "openai":
		p = NewOpenAI(cfg)
	case "ollama":
		p = NewOllama(cfg)
	case "hash":
		// Local and cheap; caching would cost more than it saves.
		return NewHash(cfg.Dim), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}

	if cfg.Cache && cfg.CachePath != "" {
		cached, err := NewCached(p, cfg.CachePath)
		if err != nil {
			return nil, err
		}
		return cached, nil
	}
	return p, nil
}

// Close releases resources held by p, if any.
func Close(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
