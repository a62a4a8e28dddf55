package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Default outbound endpoints.
const (
	DefaultAIGatewayURL = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultAIModel      = "google/gemini-2.5-flash"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Database (empty = in-memory rate-limit and audit stores)
	DatabaseURL string

	// AI gateway
	AIGatewayURL string
	AIModel      string
	AIAPIKey     string // required for analysis; absence surfaces as service unavailable

	// GitHub
	GitHubToken        string // optional; empty = anonymous, lower quota
	GitHubRetryBackoff time.Duration

	// CORS
	AllowedOrigins []string // hosted domains first; the first one is the default origin
	DevOrigins     []string

	// Rate limiting
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Audit log listing (empty = endpoint disabled)
	AuditToken string

	// MCP
	MCPEnabled bool
	MCPPort    string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "3001"),
		AppName: envOrDefault("APP_NAME", "GitGrade Analyzer"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AIGatewayURL: envOrDefault("AI_GATEWAY_URL", DefaultAIGatewayURL),
		AIModel:      envOrDefault("AI_MODEL", DefaultAIModel),
		AIAPIKey:     envOrDefault("AI_GATEWAY_API_KEY", os.Getenv("LOVABLE_API_KEY")),

		GitHubToken:        os.Getenv("GITHUB_TOKEN"),
		GitHubRetryBackoff: time.Duration(envOrDefaultInt("GITHUB_RETRY_BACKOFF_MS", 1000)) * time.Millisecond,

		AllowedOrigins: envOrDefaultList("ALLOWED_ORIGINS", []string{"https://gitgrade.lovable.app", "https://gitgrade.app"}),
		DevOrigins: envOrDefaultList("DEV_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:8080",
			"http://localhost:3000",
			"http://127.0.0.1:5173",
		}),

		RateLimitMax:    envOrDefaultInt("RATE_LIMIT_MAX", 10),
		RateLimitWindow: time.Duration(envOrDefaultInt("RATE_LIMIT_WINDOW_MINUTES", 60)) * time.Minute,

		AuditToken: os.Getenv("AUDIT_TOKEN"),

		MCPEnabled: envOrDefaultBool("MCP_ENABLED", false),
		MCPPort:    envOrDefault("MCP_PORT", "3002"),
	}
}

// DefaultOrigin is echoed back to callers whose origin is not allow-listed.
func (c *Config) DefaultOrigin() string {
	if len(c.AllowedOrigins) > 0 {
		return c.AllowedOrigins[0]
	}
	return ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envOrDefaultList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
