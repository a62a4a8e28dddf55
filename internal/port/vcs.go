package port

import (
	"context"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
)

// RepoFetcher collects the facts about a hosted repository that feed a report.
type RepoFetcher interface {
	// Fetch returns a snapshot or an error wrapping ErrNotFound, ErrAccessDenied,
	// ErrRateLimited or ErrUpstream.
	Fetch(ctx context.Context, ref domain.RepoRef) (*domain.RepositorySnapshot, error)
}
