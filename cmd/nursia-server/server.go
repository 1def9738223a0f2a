package main

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/nursia/nursia-api/internal/config"
	"github.com/nursia/nursia-api/internal/domain/extraction"
	"github.com/nursia/nursia-api/internal/domain/record"
	"github.com/nursia/nursia-api/internal/normalize"
	"github.com/nursia/nursia-api/internal/platform/auth"
	"github.com/nursia/nursia-api/internal/platform/db"
	"github.com/nursia/nursia-api/internal/platform/middleware"
	"github.com/nursia/nursia-api/internal/platform/telemetry"
)

// serverDeps are the collaborators that talk to the outside world.
type serverDeps struct {
	DB        db.Pinger
	Schema    db.StatusReporter
	Records   record.Repository
	Extractor extraction.Extractor
	Cache     extraction.Cache
	Metrics   *telemetry.Provider // created when nil and METRICS_ENABLED is set
}

func newServer(cfg *config.Config, logger zerolog.Logger, deps serverDeps) (*echo.Echo, error) {
	locale, err := cfg.NormalizeLocale()
	if err != nil {
		return nil, err
	}
	normalizer := normalize.New(normalize.WithLocale(locale))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	metrics := deps.Metrics
	if cfg.MetricsEnabled {
		if metrics == nil {
			metrics = telemetry.NewProvider()
		}
		e.Use(metrics.Middleware())
	}
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, auth.AccessHeader, auth.AdminHeader, middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(middleware.BodyLimitConfig{
		Default:    cfg.BodyLimit,
		Large:      cfg.ExtractBodyLimit,
		LargePaths: []string{"/ai/extract"},
	}))
	e.Use(middleware.RequestTimeout(middleware.TimeoutConfig{
		Timeout:      cfg.RequestTimeout,
		SkipPrefixes: []string{"/ai/"},
		Logger:       logger,
	}))
	e.Use(middleware.Audit(logger))

	// Unauthenticated
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})
	if deps.DB != nil {
		e.GET("/health/db", db.HealthHandler(deps.DB, deps.Schema, logger))
	}

	gate := auth.NewGate(cfg.AccessPassword, cfg.AdminKey)
	auth.NewLoginHandler(gate).RegisterRoutes(e, middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.LoginRateLimitRPS,
		BurstSize:         cfg.LoginRateLimitBurst,
		IdleTTL:           middleware.LoginRateLimitConfig().IdleTTL,
	}))

	// Gated groups
	read := e.Group("", gate.RequireAccess())
	admin := e.Group("", gate.RequireAccess(), gate.RequireAdmin())

	recordSvc := record.NewService(deps.Records)
	record.NewHandler(recordSvc, normalizer).RegisterRoutes(read, admin)

	extractSvc := extraction.NewService(deps.Extractor, deps.Cache, normalizer, logger)
	if cfg.MetricsEnabled {
		extractSvc.WithObserver(metrics)
		admin.GET("/metrics", metrics.Handler())
	}
	extraction.NewHandler(extractSvc).RegisterRoutes(admin, middleware.RequestTimeout(middleware.TimeoutConfig{
		Timeout: cfg.ExtractTimeout,
		Logger:  logger,
	}))

	return e, nil
}

// errorHandler renders every error as {"error": message}. Causes of 5xx
// answers are logged, never sent.
func errorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			code = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				msg = m
			} else if httpErr.Message != nil {
				msg = http.StatusText(code)
			}
		}

		if code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Int("status", code).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]string{"error": msg})
		}
		if err != nil {
			logger.Error().Err(err).Msg("failed to write error response")
		}
	}
}
