package ports

import (
	"context"
	"time"

	"go.trai.ch/redirector/internal/core/domain"
)

// TierResolver produces an unverified candidate URL for a request.
//
//go:generate mockgen -source=tier_resolver.go -destination=mocks/mock_tier_resolver.go -package=mocks
type TierResolver interface {
	// Tier returns the tier this resolver serves.
	Tier() domain.Tier

	// Resolve returns a candidate URL or an error. An empty candidate is
	// reported as domain.ErrNoCandidate.
	Resolve(ctx context.Context, req *domain.ResolutionRequest, timeout time.Duration) (string, error)
}
