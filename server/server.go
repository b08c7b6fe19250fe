// Package server assembles the HTTP server: middlewares, routes and
// background runners.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/internal/profile"
	"github.com/ayakoji/noteshare/server/internal/observability"
	apiv1 "github.com/ayakoji/noteshare/server/router/api/v1"
	"github.com/ayakoji/noteshare/server/router/rss"
	"github.com/ayakoji/noteshare/server/runner/embedding"
	"github.com/ayakoji/noteshare/store"
)

type Server struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	metrics    *observability.Metrics
	apiV1      *apiv1.APIV1Service
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Profile: profile,
		Store:   store,
		metrics: observability.NewMetrics(),
	}

	secret, err := s.resolveSecret(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve server secret")
	}
	s.Secret = secret

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	s.echoServer = echoServer

	echoServer.Use(s.requestLogger())
	echoServer.Use(echomw.Recover())
	echoServer.Use(echomw.CORS())
	echoServer.Use(echomw.BodyLimit("32M"))

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": profile.Version,
		})
	})

	s.apiV1 = apiv1.NewAPIV1Service(secret, profile, store, s.metrics)
	s.apiV1.RegisterRoutes(echoServer)

	rssService := rss.NewRSSService(profile, store)
	rssService.RegisterRoutes(echoServer)

	return s, nil
}

// Start launches the HTTP listener and the background runners. It returns
// immediately; the context cancels the runners.
func (s *Server) Start(ctx context.Context) error {
	if s.apiV1.AIProvider != nil && s.Profile.Driver == "postgres" {
		runner := embedding.NewRunner(s.Store, s.apiV1.AIProvider)
		go runner.Run(ctx)
		slog.Info("embedding runner started")
	}

	go func() {
		address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Shutdown drains in-flight requests and closes the database.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}
	slog.Info("noteshare stopped properly")
}

// resolveSecret returns the token signing secret. An explicitly configured
// secret wins; otherwise a generated one is persisted so sessions survive
// restarts.
func (s *Server) resolveSecret(ctx context.Context) (string, error) {
	if s.Profile.Secret != "" {
		return s.Profile.Secret, nil
	}

	setting, err := s.Store.GetSystemSetting(ctx, &store.FindSystemSetting{Name: store.SettingServerSecret})
	if err != nil {
		return "", err
	}
	if setting != nil && setting.Value != "" {
		return setting.Value, nil
	}

	secret := uuid.New().String()
	if _, err := s.Store.UpsertSystemSetting(ctx, &store.SystemSetting{
		Name:        store.SettingServerSecret,
		Value:       secret,
		Description: "token signing secret",
	}); err != nil {
		return "", err
	}
	slog.Info("generated new server secret")
	return secret, nil
}

// requestLogger logs one line per request with a request ID and records the
// route metrics.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			start := time.Now()

			requestID := observability.NewRequestID()
			ctx := observability.WithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			if err = next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			duration := time.Since(start)
			s.metrics.RecordRequest(c.Request().Method+" "+c.Path(), status, duration)

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			slog.LogAttrs(ctx, level, "request",
				slog.String(observability.LogFieldRequestID, requestID),
				slog.String(observability.LogFieldMethod, c.Request().Method),
				slog.String(observability.LogFieldPath, c.Request().URL.Path),
				slog.Int(observability.LogFieldStatus, status),
				slog.Int64(observability.LogFieldDuration, duration.Milliseconds()),
			)
			return
		}
	}
}
