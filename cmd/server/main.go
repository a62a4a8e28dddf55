package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/joho/godotenv"

	"github.com/arturoeanton/gitgrade-analyzer/internal/adapter/ai"
	"github.com/arturoeanton/gitgrade-analyzer/internal/adapter/github"
	"github.com/arturoeanton/gitgrade-analyzer/internal/adapter/store"
	"github.com/arturoeanton/gitgrade-analyzer/internal/handler"
	"github.com/arturoeanton/gitgrade-analyzer/internal/mcp"
	"github.com/arturoeanton/gitgrade-analyzer/internal/middleware"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
	"github.com/arturoeanton/gitgrade-analyzer/internal/service"
	"github.com/arturoeanton/gitgrade-analyzer/pkg/config"

	_ "github.com/lib/pq"
)

// stores groups the persistence ports so either backend can be plugged in.
type stores interface {
	port.RateLimitStore
	port.AuditStore
}

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("Starting GitGrade Analyzer",
		"port", cfg.Port,
		"ai_gateway", cfg.AIGatewayURL,
		"ai_model", cfg.AIModel,
		"ai_key_configured", cfg.AIAPIKey != "",
		"github_token_configured", cfg.GitHubToken != "",
		"database", cfg.DatabaseURL != "",
		"mcp_enabled", cfg.MCPEnabled,
	)
	if cfg.AIAPIKey == "" {
		slog.Warn("AI_GATEWAY_API_KEY is not set; analysis requests will return 503")
	}

	// ── Database ─────────────────────────────────────────────────────────
	var st stores
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = pgStore.EnsureSchema(ctx)
		cancel()
		if err != nil {
			slog.Error("failed to prepare database schema", "error", err)
			os.Exit(1)
		}
		st = pgStore
	} else {
		slog.Info("DATABASE_URL not set, using in-memory rate limit and audit stores")
		st = store.NewMemoryStore()
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	fetcher, err := github.NewFetcher(github.Config{
		Token:        cfg.GitHubToken,
		RetryBackoff: cfg.GitHubRetryBackoff,
	})
	if err != nil {
		slog.Error("failed to create GitHub client", "error", err)
		os.Exit(1)
	}

	gateway := ai.NewGatewayProvider(ai.GatewayConfig{
		URL:    cfg.AIGatewayURL,
		Model:  cfg.AIModel,
		APIKey: cfg.AIAPIKey,
	})

	// ── Services ─────────────────────────────────────────────────────────
	analysisService := service.NewAnalysisService(fetcher, gateway)
	limiter := service.NewRateLimiter(st, cfg.RateLimitMax, cfg.RateLimitWindow)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // GitHub fan-out plus a slow completion
		BodyLimit:    16 * 1024,
		ErrorHandler: handler.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins:  append(append([]string{}, cfg.AllowedOrigins...), cfg.DevOrigins...),
		DefaultOrigin: cfg.DefaultOrigin(),
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(st))

	// ── Routes ───────────────────────────────────────────────────────────
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	handler.NewAnalyzeHandler(analysisService, limiter).Register(app)

	if cfg.AuditToken != "" {
		handler.NewAuditHandler(st, cfg.AuditToken).Register(app.Group("/api/v1"))
	}

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(analysisService, limiter, st, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
