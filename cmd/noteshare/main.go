package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayakoji/noteshare/internal/profile"
	"github.com/ayakoji/noteshare/internal/version"
	"github.com/ayakoji/noteshare/server"
	"github.com/ayakoji/noteshare/server/internal/observability"
	"github.com/ayakoji/noteshare/store"
	"github.com/ayakoji/noteshare/store/db"
)

const greetingBanner = `
 _   _       _       ____  _
| \ | | ___ | |_ ___/ ___|| |__   __ _ _ __ ___
|  \| |/ _ \| __/ _ \___ \| '_ \ / _' | '__/ _ \
| |\  | (_) | ||  __/___) | | | | (_| | | |  __/
|_| \_|\___/ \__\___|____/|_| |_|\__,_|_|  \___|

`

var rootCmd = &cobra.Command{
	Use:   "noteshare",
	Short: "A self-hosted service for sharing study notes and turning them into quizzes.",
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:             viper.GetString("mode"),
			Addr:             viper.GetString("addr"),
			Port:             viper.GetInt("port"),
			Data:             viper.GetString("data"),
			Driver:           viper.GetString("driver"),
			DSN:              viper.GetString("dsn"),
			InstanceURL:      viper.GetString("instance-url"),
			Secret:           viper.GetString("secret"),
			QuizRequestLimit: viper.GetInt("quiz-request-limit"),
			QuizMinScore:     viper.GetInt("quiz-min-score"),
			AIEnabled:        viper.GetBool("ai-enabled"),
			AIBaseURL:        viper.GetString("ai-base-url"),
			AIAPIKey:         viper.GetString("ai-api-key"),
			AIChatModel:      viper.GetString("ai-chat-model"),
			AIEmbeddingModel: viper.GetString("ai-embedding-model"),
			SSOName:          viper.GetString("sso-name"),
			SSOClientID:      viper.GetString("sso-client-id"),
			SSOClientSecret:  viper.GetString("sso-client-secret"),
			SSOAuthURL:       viper.GetString("sso-auth-url"),
			SSOTokenURL:      viper.GetString("sso-token-url"),
			SSOUserInfoURL:   viper.GetString("sso-userinfo-url"),
			SSOScopes:        viper.GetString("sso-scopes"),
			Version:          version.GetCurrentVersion(viper.GetString("mode")),
		}
		if err := instanceProfile.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}

		slog.SetDefault(observability.NewLogger(instanceProfile.IsDev()))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", slog.Any("error", err))
			return
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", slog.Any("error", err))
			return
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			slog.Error("failed to create server", slog.Any("error", err))
			return
		}

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-c
			slog.Info("signal received, shutting down", slog.String("signal", sig.String()))
			s.Shutdown(ctx)
			cancel()
		}()

		printGreetings(instanceProfile)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", slog.Any("error", err))
			return
		}

		// Wait for the shutdown goroutine to finish.
		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().String("instance-url", "", "the public url of this instance")
	rootCmd.PersistentFlags().String("secret", "", "secret used to sign session tokens, generated when empty")
	rootCmd.PersistentFlags().Int("quiz-request-limit", 30, "maximum quiz items a single generation request may ask for")
	rootCmd.PersistentFlags().Int("quiz-min-score", 3, "default minimum score a rule-generated quiz candidate needs to be kept")
	rootCmd.PersistentFlags().Bool("ai-enabled", false, "enable AI quiz generation and related notes")
	rootCmd.PersistentFlags().String("ai-base-url", "", "base url of an OpenAI-compatible API")
	rootCmd.PersistentFlags().String("ai-api-key", "", "api key for the AI provider")
	rootCmd.PersistentFlags().String("ai-chat-model", "", "chat model used for quiz generation")
	rootCmd.PersistentFlags().String("ai-embedding-model", "", "embedding model used for related notes")
	rootCmd.PersistentFlags().String("sso-name", "", "display name of the OAuth2 identity provider, enables SSO when set")
	rootCmd.PersistentFlags().String("sso-client-id", "", "OAuth2 client id")
	rootCmd.PersistentFlags().String("sso-client-secret", "", "OAuth2 client secret")
	rootCmd.PersistentFlags().String("sso-auth-url", "", "OAuth2 authorization endpoint")
	rootCmd.PersistentFlags().String("sso-token-url", "", "OAuth2 token endpoint")
	rootCmd.PersistentFlags().String("sso-userinfo-url", "", "OAuth2 userinfo endpoint")
	rootCmd.PersistentFlags().String("sso-scopes", "", "comma separated OAuth2 scopes")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("noteshare")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func printGreetings(profile *profile.Profile) {
	fmt.Print(greetingBanner)
	fmt.Printf("Version %s has been started on port %d\n", profile.Version, profile.Port)
	fmt.Printf("---\nServer profile\nmode: %s\ndriver: %s\ndata: %s\n---\n", profile.Mode, profile.Driver, profile.Data)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
