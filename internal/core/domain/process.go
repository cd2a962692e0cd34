package domain

import (
	"strconv"
	"time"
)

const (
	// ExitTimeout is the exit code reported when a process was killed for exceeding its budget.
	ExitTimeout = -1

	// ExitSpawnFailure is the exit code reported when a process could not be started.
	ExitSpawnFailure = 1
)

// ProcessRequest describes one sandboxed execution of an external tool.
type ProcessRequest struct {
	// Name labels the process in logs and scratch directory names.
	Name string
	Path string
	Args []string
	// ScratchRoot is the parent of the private scratch directory.
	// The system temp directory is used when empty.
	ScratchRoot string
	Timeout     time.Duration
	Env         map[string]string
}

// ProcessResult is the outcome of a sandboxed execution.
type ProcessResult struct {
	// LastLine is the last non-empty line written to stdout.
	LastLine string
	// Output is the full stdout.
	Output   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
	Err      error
}

// Succeeded reports whether the process exited cleanly.
func (r ProcessResult) Succeeded() bool {
	return r.Err == nil && !r.TimedOut && r.ExitCode == 0
}

// ExitStatusError carries the exit code of a tool whose invocation was passed
// through unchanged. The caller exits with the same code.
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return "tool exited with status " + strconv.Itoa(e.Code)
}
