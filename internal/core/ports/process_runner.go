package ports

import (
	"context"

	"go.trai.ch/redirector/internal/core/domain"
)

// ProcessRunner runs external tools in an isolated, time-bounded sandbox.
//
//go:generate mockgen -source=process_runner.go -destination=mocks/mock_process_runner.go -package=mocks
type ProcessRunner interface {
	// Run executes the request and waits for it. The whole process tree is
	// killed when the timeout expires or ctx is cancelled. Run never panics;
	// failures are reported through the result.
	Run(ctx context.Context, req domain.ProcessRequest) domain.ProcessResult
}
