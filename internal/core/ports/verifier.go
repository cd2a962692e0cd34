package ports

import "context"

// StreamVerifier decides whether a URL points at playable media.
//
//go:generate mockgen -source=verifier.go -destination=mocks/mock_verifier.go -package=mocks
type StreamVerifier interface {
	// Verify probes url and returns true only for content that looks playable.
	// Manifests are followed at most maxDepth levels deep.
	Verify(ctx context.Context, url, userAgent string, maxDepth int) bool
}
