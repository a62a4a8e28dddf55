package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

// maxErrorBody caps how much of an error reply is kept for logging.
const maxErrorBody = 2048

// GatewayConfig holds the configuration for an OpenAI-compatible chat endpoint.
type GatewayConfig struct {
	URL     string // full chat-completions URL
	Model   string // e.g. google/gemini-2.5-flash
	APIKey  string // bearer token (empty = not configured)
	Timeout time.Duration
}

// GatewayProvider implements port.CompletionProvider against a hosted
// OpenAI-style /chat/completions endpoint.
type GatewayProvider struct {
	cfg        GatewayConfig
	httpClient *http.Client
}

// NewGatewayProvider creates a new chat-completion provider.
func NewGatewayProvider(cfg GatewayConfig) *GatewayProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &GatewayProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ModelName returns the model identifier.
func (g *GatewayProvider) ModelName() string {
	return g.cfg.Model
}

// Configured reports whether an API key is present.
func (g *GatewayProvider) Configured() bool {
	return g.cfg.APIKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one system + user exchange and returns choices[0].message.content.
// The call is never retried.
func (g *GatewayProvider) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	if !g.Configured() {
		return "", fmt.Errorf("ai gateway: api key not configured: %w", port.ErrServiceUnavailable)
	}

	payload, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai gateway: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ai gateway: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai gateway: %w: %v", port.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Error("ai gateway error", "status", resp.StatusCode, "model", g.cfg.Model, "body", string(body))
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return "", fmt.Errorf("ai gateway (%d): %w", resp.StatusCode, port.ErrRateLimited)
		case http.StatusPaymentRequired:
			return "", fmt.Errorf("ai gateway (%d): %w", resp.StatusCode, port.ErrServiceUnavailable)
		default:
			return "", fmt.Errorf("ai gateway (%d): %w", resp.StatusCode, port.ErrUpstream)
		}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ai gateway decode: %w: %v", port.ErrUpstream, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("ai gateway: empty completion: %w", port.ErrUpstream)
	}

	return out.Choices[0].Message.Content, nil
}
