// Package sandbox runs external resolver tools in private, time-bounded process trees.
package sandbox

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports"
	"go.trai.ch/zerr"
)

// waitDelay bounds how long Wait keeps draining pipes after the process was killed.
const waitDelay = 2 * time.Second

// Runner implements ports.ProcessRunner using os/exec.
type Runner struct {
	logger ports.Logger
	jobs   *container
}

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{logger: logger, jobs: newContainer()}
}

// Run executes req and waits for it to finish.
func (r *Runner) Run(ctx context.Context, req domain.ProcessRequest) (result domain.ProcessResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = spawnFailure(zerr.With(
				zerr.Wrap(domain.ErrProcessSpawnFailed, fmt.Sprint(rec)), "process", req.Name))
		}
		result.Duration = time.Since(start)
	}()
	return r.run(ctx, req)
}

func (r *Runner) run(ctx context.Context, req domain.ProcessRequest) domain.ProcessResult {
	scratch, err := makeScratch(req)
	if err != nil {
		return spawnFailure(zerr.With(zerr.Wrap(err, domain.ErrScratchCreateFailed.Error()), "process", req.Name))
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	env := resolveEnvironment(os.Environ(), scratchEnv(scratch), req.Env)

	executable := req.Path
	if !filepath.IsAbs(executable) {
		if lp, lookErr := lookPath(executable, env); lookErr == nil {
			executable = lp
		}
	}
	if err := findExecutable(executable); err != nil {
		return spawnFailure(zerr.With(zerr.Wrap(err, domain.ErrProcessSpawnFailed.Error()), "path", req.Path))
	}

	cmd := exec.CommandContext(runCtx, executable, req.Args...) //nolint:gosec // tool paths come from the base directory
	cmd.Dir = scratch
	cmd.Env = env
	cmd.WaitDelay = waitDelay
	isolate(cmd)

	var stdout bytes.Buffer
	stderrLog := &logWriter{logger: r.logger, prefix: req.Name}
	cmd.Stdout = &stdout
	cmd.Stderr = stderrLog

	if err := cmd.Start(); err != nil {
		return spawnFailure(zerr.With(zerr.Wrap(err, domain.ErrProcessSpawnFailed.Error()), "path", req.Path))
	}
	if err := r.jobs.add(cmd.Process); err != nil {
		r.logger.Warn(fmt.Sprintf("[%s] tree cleanup falls back to cancellation: %v", req.Name, err))
	}

	waitErr := cmd.Wait()
	_ = stderrLog.Close()

	result := domain.ProcessResult{
		LastLine: lastLine(stdout.Bytes()),
		Output:   stdout.String(),
	}

	if timedOut(waitErr, runCtx.Err()) {
		result.LastLine = ""
		result.ExitCode = domain.ExitTimeout
		result.TimedOut = true
		result.Err = zerr.With(zerr.Wrap(domain.ErrProcessTimedOut, runCtx.Err().Error()), "process", req.Name)
		return result
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result
		}
		if cmd.ProcessState != nil {
			result.ExitCode = cmd.ProcessState.ExitCode()
			return result
		}
		result.ExitCode = domain.ExitSpawnFailure
		result.Err = zerr.Wrap(waitErr, domain.ErrProcessSpawnFailed.Error())
		return result
	}

	return result
}

// timedOut reports whether the run ended because its context expired. A tool
// that exited cleanly keeps its result even if the deadline passed while Wait
// was returning.
func timedOut(waitErr, ctxErr error) bool {
	return waitErr != nil && ctxErr != nil
}

func spawnFailure(err error) domain.ProcessResult {
	return domain.ProcessResult{
		ExitCode: domain.ExitSpawnFailure,
		Err:      err,
	}
}

// makeScratch creates the private directory of one execution. Its name is
// keyed on the process name and arguments so concurrent runs are easy to
// tell apart on disk.
func makeScratch(req domain.ProcessRequest) (string, error) {
	root := req.ScratchRoot
	if root == "" {
		root = os.TempDir()
	} else if err := os.MkdirAll(root, domain.DirPerm); err != nil {
		return "", err
	}

	name := req.Name
	if name == "" {
		name = filepath.Base(req.Path)
	}
	key := xxhash.Sum64String(strings.Join(req.Args, "\x00"))
	return os.MkdirTemp(root, fmt.Sprintf("%s-%016x-*", sanitize(name), key))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func scratchEnv(dir string) []string {
	return []string{"TMP=" + dir, "TEMP=" + dir, "TMPDIR=" + dir}
}

// lastLine returns the last non-empty line of out.
func lastLine(out []byte) string {
	var last string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	return last
}

type logWriter struct {
	logger ports.Logger
	prefix string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if strings.TrimSpace(msg) == "" {
		return
	}
	w.logger.Debug("[" + w.prefix + "] " + msg)
}

// resolveEnvironment merges the system environment, the scratch variables and
// the request overrides, later sources winning. PWD is dropped because the
// child runs in its scratch directory.
func resolveEnvironment(sysEnv, scratch []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(scratch)+len(overrides))
	order := make([]string, 0, len(envMap))
	set := func(k, v string) {
		if _, exists := envMap[k]; !exists {
			order = append(order, k)
		}
		envMap[k] = v
	}

	for _, list := range [][]string{sysEnv, scratch} {
		for _, entry := range list {
			if k, v, ok := strings.Cut(entry, "="); ok && k != "" && k != "PWD" {
				set(k, v)
			}
		}
	}
	for k, v := range overrides {
		set(k, v)
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}
