package domain

import "go.trai.ch/zerr"

var (
	// ErrAllTiersFailed is returned when no tier produced a verified stream URL.
	ErrAllTiersFailed = zerr.New("all resolution tiers failed")

	// ErrNoTargetURL is returned when the caller arguments contain no media URL.
	ErrNoTargetURL = zerr.New("no media url in arguments")

	// ErrInvalidPlayerHint is returned when a session player hint is not recognised.
	ErrInvalidPlayerHint = zerr.New("invalid player hint, expected 'avpro', 'unity' or 'unknown'")

	// ErrStateCreateFailed is returned when the state directory cannot be created.
	ErrStateCreateFailed = zerr.New("failed to create state directory")

	// ErrStateReadFailed is returned when the state document cannot be read.
	ErrStateReadFailed = zerr.New("failed to read state document")

	// ErrStateUnmarshalFailed is returned when the state document is not valid JSON.
	ErrStateUnmarshalFailed = zerr.New("failed to unmarshal state document")

	// ErrStateSchemaViolation is returned when the state document does not match its schema.
	ErrStateSchemaViolation = zerr.New("state document does not match schema")

	// ErrStateMarshalFailed is returned when the state document cannot be marshaled.
	ErrStateMarshalFailed = zerr.New("failed to marshal state document")

	// ErrStateWriteFailed is returned when the state document cannot be written.
	ErrStateWriteFailed = zerr.New("failed to write state document")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrLogOpenFailed is returned when the log file cannot be opened.
	ErrLogOpenFailed = zerr.New("failed to open log file")

	// ErrProxyRequestFailed is returned when the remote resolver cannot be reached.
	ErrProxyRequestFailed = zerr.New("proxy request failed")

	// ErrProxyBadStatus is returned when the remote resolver answers with a non-200 status.
	ErrProxyBadStatus = zerr.New("proxy returned unexpected status")

	// ErrProxyParseFailed is returned when the remote resolver response is not valid JSON.
	ErrProxyParseFailed = zerr.New("failed to parse proxy response")

	// ErrProxyReportedFailure is returned when the remote resolver reports status "failed".
	ErrProxyReportedFailure = zerr.New("proxy reported resolution failure")

	// ErrNoCandidate is returned when a tier ran to completion without producing a URL.
	ErrNoCandidate = zerr.New("tier produced no candidate url")

	// ErrVerificationFailed is returned when a candidate URL is rejected by the stream verifier.
	ErrVerificationFailed = zerr.New("stream verification failed")

	// ErrProcessSpawnFailed is returned when an external tool cannot be started.
	ErrProcessSpawnFailed = zerr.New("failed to start process")

	// ErrProcessTimedOut is returned when an external tool exceeds its time budget.
	ErrProcessTimedOut = zerr.New("process timed out")

	// ErrProcessExitNonZero is returned when an external tool exits with a non-zero code.
	ErrProcessExitNonZero = zerr.New("process exited with non-zero code")

	// ErrScratchCreateFailed is returned when the private scratch directory cannot be created.
	ErrScratchCreateFailed = zerr.New("failed to create scratch directory")

	// ErrTierPanicked is returned when a tier task panics.
	ErrTierPanicked = zerr.New("tier task panicked")

	// ErrUnhealthy is returned by the health check when a component is not usable.
	ErrUnhealthy = zerr.New("one or more components are unhealthy")
)
