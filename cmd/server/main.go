package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"triage.app/assistant/common/id"
	"triage.app/assistant/common/llm"
	"triage.app/assistant/common/logger"
	"triage.app/assistant/common/otel"
	"triage.app/assistant/core/config"
	"triage.app/assistant/internal/analyzer"
	"triage.app/assistant/internal/github"
	"triage.app/assistant/internal/http/middleware"
	httprouter "triage.app/assistant/internal/http/router"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet, OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "issue assistant starting", "env", cfg.Env, "version", cfg.Version)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	fetcher, err := github.NewFetcher(cfg.GitHub)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize github client", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "github client ready",
		"authenticated", cfg.GitHub.Token != "",
		"cache_ttl", cfg.GitHub.CacheTTL)

	// A missing or broken provider disables analysis but never blocks
	// startup; /health reports llm_service as unavailable instead.
	var issueAnalyzer analyzer.Analyzer
	if cfg.LLM.Enabled() {
		llmClient, err := llm.New(llm.Config{
			Provider:  cfg.LLM.Provider,
			APIKey:    cfg.LLM.APIKey,
			BaseURL:   cfg.LLM.BaseURL,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
		})
		if err != nil {
			slog.WarnContext(ctx, "llm init failed, analysis disabled", "error", err)
		} else {
			issueAnalyzer = analyzer.New(llmClient, cfg.LLM.Provider, cfg.LLM.Timeout)
			slog.InfoContext(ctx, "llm provider ready",
				"provider", cfg.LLM.Provider,
				"model", llmClient.Model())
		}
	} else {
		slog.WarnContext(ctx, "no llm provider configured, analysis disabled")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, fetcher, issueAnalyzer)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Must outlast the provider budget plus both GitHub calls
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, fetcher github.Fetcher, issueAnalyzer analyzer.Analyzer) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → RequestID enriches context →
	// Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORS.AllowOrigin))

	httprouter.SetupRoutes(router, fetcher, issueAnalyzer, httprouter.RouterConfig{
		Version: cfg.Version,
	})

	return router
}

const banner = `
 █████╗ ███████╗███████╗██╗███████╗████████╗ █████╗ ███╗   ██╗████████╗
██╔══██╗██╔════╝██╔════╝██║██╔════╝╚══██╔══╝██╔══██╗████╗  ██║╚══██╔══╝
███████║███████╗███████╗██║███████╗   ██║   ███████║██╔██╗ ██║   ██║
██╔══██║╚════██║╚════██║██║╚════██║   ██║   ██╔══██║██║╚██╗██║   ██║
██║  ██║███████║███████║██║███████║   ██║   ██║  ██║██║ ╚████║   ██║
╚═╝  ╚═╝╚══════╝╚══════╝╚═╝╚══════╝   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═══╝   ╚═╝
`
