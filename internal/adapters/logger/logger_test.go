package logger_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/redirector/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger with an injected bytes.Buffer for isolated testing.
// It also sets NO_COLOR=1 to ensure deterministic output without ANSI escape codes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name       string
		log        func(*logger.Logger)
		debug      bool
		goldenName string
	}{
		{
			name:       "info",
			log:        func(l *logger.Logger) { l.Info("resolving target") },
			goldenName: "info_basic",
		},
		{
			name:       "multiline info",
			log:        func(l *logger.Logger) { l.Info("line1\nline2") },
			goldenName: "info_multiline",
		},
		{
			name:       "warn",
			log:        func(l *logger.Logger) { l.Warn("tier rejected by verifier") },
			goldenName: "warn_basic",
		},
		{
			name:       "debug filtered at info level",
			log:        func(l *logger.Logger) { l.Debug("stderr line") },
			goldenName: "debug_filtered",
		},
		{
			name:       "debug enabled",
			log:        func(l *logger.Logger) { l.Debug("stderr line") },
			debug:      true,
			goldenName: "debug_enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			if tt.debug {
				lg.SetLevel(slog.LevelDebug)
			}
			tt.log(lg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "simple error",
			err:        os.ErrPermission,
			goldenName: "error_simple",
		},
		{
			name:       "multiline error",
			err:        errors.New("yaml: unmarshal errors:\n  line 3: cannot unmarshal"),
			goldenName: "error_multiline",
		},
		{
			name:       "wrapped chain",
			err:        zerr.Wrap(zerr.Wrap(errors.New("connection refused"), "proxy request failed"), "tier proxy failed"),
			goldenName: "error_chain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Info("hello")
	lg.Error(errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"hello"`)
	assert.Contains(t, lines[1], `"level":"ERROR"`)
	assert.Contains(t, lines[1], `"error":"boom"`)
}

func TestLogger_Timestamps(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetTimestamps(true)

	lg.Info("stamped")
	line := strings.TrimSpace(buf.String())
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3} stamped$`, line)
}

func TestErrorEntries(t *testing.T) {
	err := zerr.Wrap(errors.New("inner"), "outer")

	entries := logger.CollectErrorEntries(err)
	assert.Equal(t, []string{"outer", "inner"}, entries)
	assert.Equal(t, "Error: outer\n\n  Caused by:\n    → inner", logger.FormatErrorEntries(entries))
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "redirector.log")

	f, err := logger.OpenFile(path, 16)
	require.NoError(t, err)
	_, err = f.WriteString("first line that is long\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = logger.OpenFile(path, 16)
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data), "oversized log is truncated on open")

	f, err = logger.OpenFile(path, 1024)
	require.NoError(t, err)
	_, err = f.WriteString("third\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\nthird\n", string(data))
}
