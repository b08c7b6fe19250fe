package ai

import (
	"errors"
	"time"

	"github.com/ayakoji/noteshare/internal/profile"
)

// Config holds the settings of the OpenAI-compatible endpoint used for
// quiz generation and note embeddings.
type Config struct {
	Enabled bool

	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string

	// EmbeddingDimensions must match the vector column width in the store.
	EmbeddingDimensions int

	MaxRetries    int
	MaxConcurrent int64
	Timeout       time.Duration

	MaxTokens   int
	Temperature float32
}

// NewConfigFromProfile creates an AI config from the server profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled:             p.IsAIEnabled(),
		BaseURL:             p.AIBaseURL,
		APIKey:              p.AIAPIKey,
		ChatModel:           p.AIChatModel,
		EmbeddingModel:      p.AIEmbeddingModel,
		EmbeddingDimensions: 1536,
		MaxRetries:          3,
		MaxConcurrent:       4,
		Timeout:             30 * time.Second,
		MaxTokens:           2048,
		Temperature:         0.3,
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-small"
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.APIKey == "" {
		return errors.New("AI API key is required")
	}
	if c.ChatModel == "" {
		return errors.New("chat model is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("embedding model is required")
	}

	return nil
}
