package tiers

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports"
	"go.trai.ch/zerr"
)

// Tool runs a local resolver executable through the process sandbox.
type Tool struct {
	tier        domain.Tier
	path        string
	scratchRoot string
	runner      ports.ProcessRunner
	args        func(*domain.ResolutionRequest) []string
}

// NewModern creates the tier that runs the up-to-date resolver tool with a
// format selector matched to the client profile.
func NewModern(cfg domain.Config, runner ports.ProcessRunner) *Tool {
	denoPath := domain.ToolPath(cfg.BaseDir, domain.DenoToolName)
	maxHeight := cfg.PreferredMaxHeight
	return &Tool{
		tier:        domain.TierModern,
		path:        domain.ToolPath(cfg.BaseDir, domain.ModernToolName),
		scratchRoot: domain.ScratchPath(cfg.BaseDir),
		runner:      runner,
		args: func(req *domain.ResolutionRequest) []string {
			return ModernArgs(req.RawArgs, req.Profile, maxHeight, denoPath)
		},
	}
}

// NewNative creates the tier that runs the original resolver tool with the
// caller arguments untouched.
func NewNative(cfg domain.Config, runner ports.ProcessRunner) *Tool {
	return &Tool{
		tier:        domain.TierNative,
		path:        domain.ToolPath(cfg.BaseDir, domain.NativeToolName),
		scratchRoot: domain.ScratchPath(cfg.BaseDir),
		runner:      runner,
		args: func(req *domain.ResolutionRequest) []string {
			return append([]string(nil), req.RawArgs...)
		},
	}
}

// Tier returns the tier this resolver serves.
func (t *Tool) Tier() domain.Tier {
	return t.tier
}

// Path returns the executable run by this tier.
func (t *Tool) Path() string {
	return t.path
}

// Resolve runs the tool and returns the last line it printed.
func (t *Tool) Resolve(ctx context.Context, req *domain.ResolutionRequest, timeout time.Duration) (string, error) {
	result := t.runner.Run(ctx, domain.ProcessRequest{
		Name:        t.tier.String(),
		Path:        t.path,
		Args:        t.args(req),
		ScratchRoot: t.scratchRoot,
		Timeout:     timeout,
	})

	switch {
	case result.Err != nil:
		return "", zerr.Wrap(result.Err, t.tier.String()+" tool did not run")
	case result.TimedOut:
		return "", zerr.With(zerr.Wrap(domain.ErrProcessTimedOut, t.tier.String()), "timeout", timeout.String())
	case result.ExitCode != 0:
		return "", zerr.With(zerr.Wrap(domain.ErrProcessExitNonZero, t.tier.String()), "exit_code", strconv.Itoa(result.ExitCode))
	}
	return acceptCandidate(result.LastLine)
}

// ModernArgs rewrites the caller arguments for the modern tool: any format
// selector and extractor allow-list flags are replaced by the runtime hints and
// a selector chosen for the client profile.
func ModernArgs(raw []string, profile domain.ClientProfile, maxHeight int, denoPath string) []string {
	args := StripArgs(raw, "-f", "--format", "--exp-allow", "--wild-allow")
	args = append(args, "--remote-components", "ejs:github")
	if denoPath != "" {
		if info, err := os.Stat(denoPath); err == nil && !info.IsDir() {
			args = append(args, "--extractor-args", "ejs:deno_path="+denoPath)
		}
	}
	return append(args, "-f", FormatFor(profile, maxHeight))
}

// FormatFor returns the format selector for the client profile.
func FormatFor(profile domain.ClientProfile, maxHeight int) string {
	h := strconv.Itoa(maxHeight)
	if profile.Legacy {
		return "best[height<=" + h + "][ext=mp4][vcodec^=avc1][acodec^=mp4a]" +
			"[protocol^=http][protocol!*=m3u8][protocol!*=dash]/best[height<=" + h + "]/best"
	}
	return "bestvideo[height<=" + h + "]+bestaudio/best[height<=" + h + "]"
}
