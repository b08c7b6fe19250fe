package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where noteshare stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the public url of this noteshare instance
	InstanceURL string
	// Secret signs session tokens. Generated at startup when left empty.
	Secret string

	// Quiz generation settings
	QuizRequestLimit int // NOTESHARE_QUIZ_REQUEST_LIMIT (default: 30) request-level item cap
	QuizMinScore     int // NOTESHARE_QUIZ_MIN_SCORE (default: 3)

	// AI configuration (any OpenAI-compatible endpoint)
	AIEnabled        bool   // NOTESHARE_AI_ENABLED
	AIBaseURL        string // NOTESHARE_AI_BASE_URL (default: https://api.openai.com/v1)
	AIAPIKey         string // NOTESHARE_AI_API_KEY
	AIChatModel      string // NOTESHARE_AI_CHAT_MODEL (default: gpt-4o-mini)
	AIEmbeddingModel string // NOTESHARE_AI_EMBEDDING_MODEL (default: text-embedding-3-small)

	// Optional OAuth2 single sign-on provider
	SSOName         string // NOTESHARE_SSO_NAME display name, enables SSO when set
	SSOClientID     string // NOTESHARE_SSO_CLIENT_ID
	SSOClientSecret string // NOTESHARE_SSO_CLIENT_SECRET
	SSOAuthURL      string // NOTESHARE_SSO_AUTH_URL
	SSOTokenURL     string // NOTESHARE_SSO_TOKEN_URL
	SSOUserInfoURL  string // NOTESHARE_SSO_USERINFO_URL
	SSOScopes       string // NOTESHARE_SSO_SCOPES comma separated
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true when AI features are switched on and a key is set.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIAPIKey != ""
}

// IsSSOEnabled returns true when a complete OAuth2 provider is configured.
func (p *Profile) IsSSOEnabled() bool {
	return p.SSOName != "" && p.SSOClientID != "" && p.SSOClientSecret != "" &&
		p.SSOAuthURL != "" && p.SSOTokenURL != "" && p.SSOUserInfoURL != ""
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "noteshare")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/noteshare"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q, expected sqlite or postgres", p.Driver)
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("noteshare_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.QuizRequestLimit < 1 {
		p.QuizRequestLimit = 30
	}
	if p.QuizMinScore < 1 {
		p.QuizMinScore = 3
	}

	return nil
}
