// Package app implements the application layer for redirector.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.trai.ch/redirector/internal/adapters/detector"  //nolint:depguard // Wired in app layer
	"go.trai.ch/redirector/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/redirector/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/redirector/internal/adapters/tiers"     //nolint:depguard // Wired in app layer
	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports"
	"go.trai.ch/redirector/internal/engine/orchestrator"
	"go.trai.ch/zerr"
)

// passthroughTimeout bounds a tool invocation that carries no media URL.
const passthroughTimeout = time.Minute

// logSink is implemented by loggers whose destination can be redirected.
type logSink interface {
	SetOutput(w io.Writer)
	SetJSON(enable bool)
	SetTimestamps(enable bool)
	SetLevel(level slog.Level)
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	store        ports.StateStore
	verifier     ports.StreamVerifier
	runner       ports.ProcessRunner
	baseDir      string

	client *http.Client
	tracer ports.Tracer
	stdout io.Writer
	now    func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	store ports.StateStore,
	verifier ports.StreamVerifier,
	runner ports.ProcessRunner,
	baseDir string,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		store:        store,
		verifier:     verifier,
		runner:       runner,
		baseDir:      baseDir,
		client:       &http.Client{},
		stdout:       os.Stdout,
		now:          time.Now,
	}
}

// WithOutput sets the writer that receives resolved URLs and command output.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithHTTPClient replaces the client used by the remote resolver tiers.
func (a *App) WithHTTPClient(c *http.Client) *App {
	a.client = c
	return a
}

// WithTracer replaces the OpenTelemetry tracer.
// This is primarily used for testing.
func (a *App) WithTracer(t ports.Tracer) *App {
	a.tracer = t
	return a
}

// WithClock replaces the wall clock.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// BaseDir returns the directory holding config, state and tools.
func (a *App) BaseDir() string {
	return a.baseDir
}

// Resolve prints a verified stream URL for the media URL in args. Arguments
// without a media URL are handed to the native tool unchanged.
func (a *App) Resolve(ctx context.Context, args []string) error {
	cfg, done := a.prepare()
	defer done()

	ua := detector.UserAgent(args, cfg.CustomUserAgent)
	profile := detector.DetectProfile(args, ua, a.store.Load().ActivePlayer)

	req, err := domain.NewResolutionRequest(args, profile, ua)
	if errors.Is(err, domain.ErrNoTargetURL) {
		return a.passthrough(ctx, cfg, args)
	}
	if err != nil {
		return err
	}
	a.logger.Debug(fmt.Sprintf("client profile legacy=%t player=%s", profile.Legacy, profile.Player))

	tracer, shutdown := a.newTracer()
	defer shutdown(ctx)

	orch := orchestrator.New(
		cfg,
		a.store,
		a.verifier,
		tiers.NewSet(cfg, a.runner, a.client),
		tracer,
		a.logger,
		orchestrator.WithClock(a.now),
	)

	res, err := orch.Resolve(ctx, req)
	if err == nil {
		_, err = fmt.Fprintln(a.stdout, res.URL)
	}
	orch.Drain(ctx)
	return err
}

// passthrough runs the native tool with args verbatim and mirrors its exit
// code, so --version and --help keep working for the host. Output reaches
// stdout only when the tool succeeded.
func (a *App) passthrough(ctx context.Context, cfg domain.Config, args []string) error {
	a.logger.Info("no media url in arguments, passing through to the native tool")
	result := a.runner.Run(ctx, domain.ProcessRequest{
		Name:        "passthrough",
		Path:        domain.ToolPath(cfg.BaseDir, domain.NativeToolName),
		Args:        args,
		ScratchRoot: domain.ScratchPath(cfg.BaseDir),
		Timeout:     passthroughTimeout,
	})
	switch {
	case result.Err != nil:
		return result.Err
	case result.ExitCode != 0:
		if out := strings.TrimSpace(result.Output); out != "" {
			a.logger.Debug("[passthrough] " + out)
		}
		return &domain.ExitStatusError{Code: result.ExitCode}
	}
	if result.Output != "" {
		if _, err := io.WriteString(a.stdout, result.Output); err != nil {
			return zerr.Wrap(err, "failed to write tool output")
		}
	}
	return nil
}

// prepare loads the configuration and points the logger at the log file.
// The returned function restores the logger and closes the file.
func (a *App) prepare() (domain.Config, func()) {
	cfg, loadErr := a.configLoader.Load(a.baseDir)
	done := a.configureLogging(cfg)
	if loadErr != nil {
		a.logger.Error(zerr.Wrap(loadErr, "failed to load configuration, using defaults"))
	}
	return cfg, done
}

func (a *App) configureLogging(cfg domain.Config) func() {
	sink, ok := a.logger.(logSink)
	if !ok {
		return func() {}
	}
	if cfg.DebugMode {
		sink.SetLevel(slog.LevelDebug)
	}

	f, err := logger.OpenFile(domain.LogPath(cfg.BaseDir), domain.MaxLogSize)
	if err != nil {
		a.logger.Error(err)
		return func() {}
	}
	sink.SetOutput(f)
	sink.SetJSON(cfg.LogFormat == domain.LogFormatJSON)
	sink.SetTimestamps(true)

	return func() {
		sink.SetOutput(nil)
		_ = f.Close()
	}
}

// newTracer returns the configured tracer, or one backed by a provider that
// reports finished spans to the log.
func (a *App) newTracer() (ports.Tracer, func(context.Context)) {
	if a.tracer != nil {
		return a.tracer, func(context.Context) {}
	}
	tp := telemetry.NewProvider(a.logger)
	tracer := telemetry.NewOTelTracerFromProvider(tp, telemetry.InstrumentationName)
	return tracer, func(ctx context.Context) {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}
}
