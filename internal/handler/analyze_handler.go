package handler

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/gitgrade-analyzer/internal/middleware"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
	"github.com/arturoeanton/gitgrade-analyzer/internal/service"
)

// Routes serving the analysis endpoint. The second mirrors the hosted
// edge-function path so existing frontends keep working.
const (
	AnalyzePath       = "/api/analyze-repo"
	LegacyAnalyzePath = "/functions/v1/analyze-repo"
)

// AnalyzeHandler serves repository analysis requests.
type AnalyzeHandler struct {
	analysis *service.AnalysisService
	limiter  *service.RateLimiter
	now      func() time.Time
}

// NewAnalyzeHandler creates a new analyze handler. A nil limiter disables
// rate limiting.
func NewAnalyzeHandler(analysis *service.AnalysisService, limiter *service.RateLimiter) *AnalyzeHandler {
	return &AnalyzeHandler{analysis: analysis, limiter: limiter, now: time.Now}
}

// Register sets up analysis routes.
func (h *AnalyzeHandler) Register(router fiber.Router) {
	router.Post(AnalyzePath, h.Analyze)
	router.Post(LegacyAnalyzePath, h.Analyze)
}

type analyzeRequest struct {
	RepoURL string `json:"repoUrl"`
}

// Analyze validates the repository URL, applies the caller's rate limit and
// returns the graded report.
func (h *AnalyzeHandler) Analyze(c fiber.Ctx) error {
	var body analyzeRequest
	if err := c.Bind().JSON(&body); err != nil {
		return fail(c, port.ErrInvalidURL)
	}

	ref, err := service.ParseURL(body.RepoURL)
	if err != nil {
		return fail(c, err)
	}

	if h.limiter != nil {
		identity := middleware.ClientIdentity(c)
		if err := h.limiter.Allow(c.Context(), identity, h.now()); err != nil {
			slog.Info("rate limit exceeded", "identity", identity, "error", err)
			return fail(c, err)
		}
	}

	report, err := h.analysis.Analyze(c.Context(), ref.URL())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(report)
}

// fail writes the sanitized { "error": ... } body for err.
func fail(c fiber.Ctx, err error) error {
	status, msg := port.PublicError(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("analysis request failed", "status", status, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
