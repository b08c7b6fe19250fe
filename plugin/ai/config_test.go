package ai

import (
	"testing"

	"github.com/ayakoji/noteshare/internal/profile"
)

// TestNewConfigFromProfile_Defaults tests that unset profile fields get defaults.
func TestNewConfigFromProfile_Defaults(t *testing.T) {
	prof := &profile.Profile{
		AIEnabled: true,
		AIAPIKey:  "test-key",
	}

	cfg := NewConfigFromProfile(prof)

	if !cfg.Enabled {
		t.Errorf("Expected Enabled=true, got false")
	}
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("Expected default BaseURL, got %s", cfg.BaseURL)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("Expected default ChatModel, got %s", cfg.ChatModel)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("Expected default EmbeddingModel, got %s", cfg.EmbeddingModel)
	}
	if cfg.EmbeddingDimensions != 1536 {
		t.Errorf("Expected EmbeddingDimensions=1536, got %d", cfg.EmbeddingDimensions)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", cfg.MaxRetries)
	}
}

// TestNewConfigFromProfile_Custom tests a custom OpenAI-compatible endpoint.
func TestNewConfigFromProfile_Custom(t *testing.T) {
	prof := &profile.Profile{
		AIEnabled:        true,
		AIAPIKey:         "test-key",
		AIBaseURL:        "https://api.deepseek.com/v1",
		AIChatModel:      "deepseek-chat",
		AIEmbeddingModel: "text-embedding-3-large",
	}

	cfg := NewConfigFromProfile(prof)

	if cfg.BaseURL != "https://api.deepseek.com/v1" {
		t.Errorf("Expected BaseURL=https://api.deepseek.com/v1, got %s", cfg.BaseURL)
	}
	if cfg.ChatModel != "deepseek-chat" {
		t.Errorf("Expected ChatModel=deepseek-chat, got %s", cfg.ChatModel)
	}
	if cfg.EmbeddingModel != "text-embedding-3-large" {
		t.Errorf("Expected EmbeddingModel=text-embedding-3-large, got %s", cfg.EmbeddingModel)
	}
}

// TestNewConfigFromProfile_Disabled tests disabled AI configuration.
func TestNewConfigFromProfile_Disabled(t *testing.T) {
	prof := &profile.Profile{
		AIEnabled: false,
	}

	cfg := NewConfigFromProfile(prof)

	if cfg.Enabled {
		t.Errorf("Expected Enabled=false, got true")
	}
}

// TestNewConfigFromProfile_EnabledWithoutKey tests that a missing API key
// leaves the feature off even when the flag is set.
func TestNewConfigFromProfile_EnabledWithoutKey(t *testing.T) {
	prof := &profile.Profile{
		AIEnabled: true,
	}

	cfg := NewConfigFromProfile(prof)

	if cfg.Enabled {
		t.Errorf("Expected Enabled=false without an API key, got true")
	}
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *Config
		expectError bool
	}{
		{
			name: "Disabled config should pass",
			cfg: &Config{
				Enabled: false,
			},
			expectError: false,
		},
		{
			name: "Valid config",
			cfg: &Config{
				Enabled:        true,
				APIKey:         "test-key",
				ChatModel:      "gpt-4o-mini",
				EmbeddingModel: "text-embedding-3-small",
			},
			expectError: false,
		},
		{
			name: "Missing API key",
			cfg: &Config{
				Enabled:        true,
				ChatModel:      "gpt-4o-mini",
				EmbeddingModel: "text-embedding-3-small",
			},
			expectError: true,
		},
		{
			name: "Missing chat model",
			cfg: &Config{
				Enabled:        true,
				APIKey:         "test-key",
				EmbeddingModel: "text-embedding-3-small",
			},
			expectError: true,
		},
		{
			name: "Missing embedding model",
			cfg: &Config{
				Enabled:   true,
				APIKey:    "test-key",
				ChatModel: "gpt-4o-mini",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}
