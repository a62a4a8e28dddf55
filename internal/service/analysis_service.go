package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arturoeanton/gitgrade-analyzer/internal/analysis"
	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

// AnalysisService runs the fetch → prompt → complete → validate pipeline for
// one repository.
type AnalysisService struct {
	fetcher port.RepoFetcher
	ai      port.CompletionProvider
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(fetcher port.RepoFetcher, ai port.CompletionProvider) *AnalysisService {
	return &AnalysisService{fetcher: fetcher, ai: ai}
}

// ParseURL validates a repository URL, wrapping failures with ErrInvalidURL.
func ParseURL(raw string) (domain.RepoRef, error) {
	ref, err := domain.ParseRepositoryURL(raw)
	if err != nil {
		return domain.RepoRef{}, fmt.Errorf("%w: %v", port.ErrInvalidURL, err)
	}
	return ref, nil
}

// Analyze grades the repository at rawURL.
func (s *AnalysisService) Analyze(ctx context.Context, rawURL string) (*domain.AnalysisReport, error) {
	ref, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	// Checked before the fetch so a missing key costs no GitHub quota.
	if !s.ai.Configured() {
		slog.Error("AI gateway API key is not configured")
		return nil, fmt.Errorf("completion provider: %w", port.ErrServiceUnavailable)
	}

	id := uuid.NewString()
	start := time.Now()
	slog.Info("analysis started", "analysis_id", id, "repo", ref.FullName())

	snap, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		slog.Warn("fetch failed", "analysis_id", id, "repo", ref.FullName(), "error", err)
		return nil, fmt.Errorf("fetch %s: %w", ref.FullName(), err)
	}

	prompt := analysis.BuildPrompt(snap)
	raw, err := s.ai.Complete(ctx, analysis.SystemPrompt, prompt)
	if err != nil {
		slog.Warn("completion failed", "analysis_id", id, "model", s.ai.ModelName(), "error", err)
		return nil, fmt.Errorf("complete: %w", err)
	}

	report, err := analysis.ParseReport(raw)
	if err != nil {
		slog.Warn("report rejected", "analysis_id", id, "error", err, "reply_chars", len(raw))
		return nil, err
	}

	if want := domain.LevelFor(report.Score); report.Level != want {
		slog.Warn("model level disagrees with score table", "analysis_id", id, "score", report.Score, "level", report.Level, "table_level", want)
	}

	slog.Info("analysis complete",
		"analysis_id", id,
		"repo", ref.FullName(),
		"score", report.Score,
		"level", report.Level,
		"duration", time.Since(start),
	)
	return report, nil
}

// Prompt fetches the repository and returns the evaluation prompt without
// calling the model.
func (s *AnalysisService) Prompt(ctx context.Context, rawURL string) (string, error) {
	ref, err := ParseURL(rawURL)
	if err != nil {
		return "", err
	}
	snap, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", ref.FullName(), err)
	}
	return analysis.BuildPrompt(snap), nil
}

// Levels returns the fixed score → level table.
func (s *AnalysisService) Levels() []domain.LevelBand {
	return domain.LevelBands
}
