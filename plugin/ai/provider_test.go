package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
)

// TestNewProvider tests provider creation.
func TestNewProvider(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *Config
		expectError bool
	}{
		{
			name:        "Nil config",
			cfg:         nil,
			expectError: true,
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
			name: "Enabled without API key",
			cfg: &Config{
				Enabled:        true,
				ChatModel:      "gpt-4o-mini",
				EmbeddingModel: "text-embedding-3-small",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg)
			if (err != nil) != tt.expectError {
				t.Errorf("NewProvider() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

// TestIsRetryable tests retry classification.
func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "Rate limit",
			err:  &openai.APIError{HTTPStatusCode: 429},
			want: true,
		},
		{
			name: "Server error",
			err:  &openai.APIError{HTTPStatusCode: 503},
			want: true,
		},
		{
			name: "Bad request",
			err:  &openai.APIError{HTTPStatusCode: 400},
			want: false,
		},
		{
			name: "Unauthorized",
			err:  &openai.APIError{HTTPStatusCode: 401},
			want: false,
		},
		{
			name: "Network error",
			err:  errors.New("connection refused"),
			want: true,
		},
		{
			name: "Canceled context",
			err:  context.Canceled,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
