package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/abdusco/shortr/internal/auth"
	"github.com/abdusco/shortr/internal/db"
	"github.com/abdusco/shortr/internal/handler"
	"github.com/abdusco/shortr/internal/logger"
	"github.com/abdusco/shortr/internal/repo"
	"github.com/abdusco/shortr/internal/shorten"
	"github.com/abdusco/shortr/internal/visit"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

type Config struct {
	Host       string
	Port       string
	DBPath     string
	BaseURL    string
	AdminToken string
	LogLevel   string
	Debug      bool
}

// cmpOr is cmp.Or from Go 1.22, inlined so the module builds on Go 1.21.
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, val := range vals {
		if val != zero {
			return val
		}
	}
	return zero
}

func newConfigFromEnv() (Config, error) {
	cfg := Config{
		Host:       cmpOr(os.Getenv("HOST"), "localhost"),
		Port:       cmpOr(os.Getenv("PORT"), "8080"),
		DBPath:     cmpOr(os.Getenv("DB_PATH"), "shortr.db"),
		BaseURL:    os.Getenv("BASE_URL"),
		AdminToken: os.Getenv("ADMIN_TOKEN"),
		LogLevel:   cmpOr(os.Getenv("LOG_LEVEL"), "info"),
		Debug:      os.Getenv("DEBUG") == "1",
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return Config{}, fmt.Errorf("invalid BASE_URL: %w", err)
	}

	if cfg.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN not set - analytics endpoints are forbidden")
	}

	return cfg, nil
}

func main() {
	cfg, err := newConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse configuration from environment")
	}

	logger.Setup(cfg.LogLevel, cfg.Debug)

	log.Info().
		Str("base_url", cfg.BaseURL).
		Str("db_path", cfg.DBPath).
		Msg("current configuration")

	ctx := context.Background()
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func run(ctx context.Context, cfg Config) error {
	log.Info().
		Str("version", version).
		Str("build_time", buildTime).
		Msg("starting application")

	dbInstance, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbInstance.Close()

	e := buildServer(cfg, dbInstance)
	defer e.Close()

	address := cfg.Host + ":" + cfg.Port
	log.Info().Str("address", address).Msg("server starting")

	runServer(ctx, e, address)

	return nil
}

// buildServer wires repositories, services and routes into an echo instance.
func buildServer(cfg Config, dbInstance *sql.DB) *echo.Echo {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogMethod: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Err(v.Error).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	linksRepo := repo.NewLinksRepo(dbInstance)
	visitsRepo := repo.NewVisitsRepo(dbInstance)

	shortener := shorten.NewService(linksRepo)
	recorder := visit.NewRecorder(visitsRepo, visit.IplocResolver{})

	authenticator := auth.NewAuthenticator(cfg.AdminToken)
	authMiddleware := auth.NewAuthMiddleware(authenticator)

	linkHandler := handler.NewLinkHandler(shortener, linksRepo, recorder, cfg.BaseURL)
	analyticsHandler := handler.NewAnalyticsHandler(linksRepo, visitsRepo)
	authHandler := handler.NewAuthHandler(authenticator)

	api := e.Group("/api")
	api.POST("/shorten", linkHandler.Shorten)
	api.GET("/generate", linkHandler.Generate)
	api.POST("/resolve", linkHandler.Resolve)
	api.GET("/info/:id", linkHandler.Info)
	api.GET("/analytics/:id", analyticsHandler.GetAnalytics, authMiddleware)
	api.GET("/urls", linkHandler.List, authMiddleware)
	api.DELETE("/urls/:id", linkHandler.Delete, authMiddleware)
	api.POST("/auth/session", authHandler.CreateSession, authMiddleware)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Parameterized route (must be last)
	e.GET("/:id", linkHandler.Redirect)

	return e
}

func runServer(ctx context.Context, e *echo.Echo, address string) {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(address)
	}()

	// Wait for context cancellation (Ctrl+C or SIGTERM)
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during graceful shutdown")
	}

	if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("server stopped")
}

func customErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "internal server error"
	isAPICall := strings.HasPrefix(c.Path(), "/api/")

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}

	log.Error().
		Int("code", code).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Err(err).
		Msg("http error")

	if c.Response().Committed {
		return
	}

	// Redirect misses answer in plain text, API calls in JSON.
	if !isAPICall && code == http.StatusNotFound {
		c.String(code, message)
		return
	}

	c.JSON(code, map[string]any{
		"error": message,
	})
}
