package profile

import (
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		profile Profile
		wantErr bool
		check   func(t *testing.T, p *Profile)
	}{
		{
			name:    "unknown mode falls back to demo",
			profile: Profile{Mode: "staging", Data: dir, Driver: "sqlite"},
			check: func(t *testing.T, p *Profile) {
				if p.Mode != "demo" {
					t.Errorf("mode = %q, want demo", p.Mode)
				}
			},
		},
		{
			name:    "sqlite dsn derived from data dir",
			profile: Profile{Mode: "dev", Data: dir, Driver: "sqlite"},
			check: func(t *testing.T, p *Profile) {
				want := filepath.Join(dir, "noteshare_dev.db")
				if p.DSN != want {
					t.Errorf("dsn = %q, want %q", p.DSN, want)
				}
			},
		},
		{
			name:    "postgres requires dsn",
			profile: Profile{Mode: "dev", Data: dir, Driver: "postgres"},
			wantErr: true,
		},
		{
			name:    "unsupported driver rejected",
			profile: Profile{Mode: "dev", Data: dir, Driver: "mysql"},
			wantErr: true,
		},
		{
			name:    "quiz defaults applied",
			profile: Profile{Mode: "dev", Data: dir, Driver: "sqlite"},
			check: func(t *testing.T, p *Profile) {
				if p.QuizRequestLimit != 30 {
					t.Errorf("QuizRequestLimit = %d, want 30", p.QuizRequestLimit)
				}
				if p.QuizMinScore != 3 {
					t.Errorf("QuizMinScore = %d, want 3", p.QuizMinScore)
				}
			},
		},
		{
			name:    "explicit quiz settings kept",
			profile: Profile{Mode: "dev", Data: dir, Driver: "sqlite", QuizRequestLimit: 50, QuizMinScore: 5},
			check: func(t *testing.T, p *Profile) {
				if p.QuizRequestLimit != 50 || p.QuizMinScore != 5 {
					t.Errorf("quiz settings = %d/%d, want 50/5", p.QuizRequestLimit, p.QuizMinScore)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.profile
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && err == nil {
				tt.check(t, &p)
			}
		})
	}
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name string
		p    Profile
		want bool
	}{
		{"disabled", Profile{AIEnabled: false, AIAPIKey: "key"}, false},
		{"enabled without key", Profile{AIEnabled: true}, false},
		{"enabled with key", Profile{AIEnabled: true, AIAPIKey: "key"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.IsAIEnabled(); got != tt.want {
				t.Errorf("IsAIEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSSOEnabled(t *testing.T) {
	full := Profile{
		SSOName:         "campus",
		SSOClientID:     "id",
		SSOClientSecret: "secret",
		SSOAuthURL:      "https://idp.example.com/authorize",
		SSOTokenURL:     "https://idp.example.com/token",
		SSOUserInfoURL:  "https://idp.example.com/userinfo",
	}
	if !full.IsSSOEnabled() {
		t.Error("complete provider should enable SSO")
	}

	partial := full
	partial.SSOTokenURL = ""
	if partial.IsSSOEnabled() {
		t.Error("incomplete provider must not enable SSO")
	}
}
