package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/redirector/cmd/redirector/commands"
	"go.trai.ch/redirector/internal/build"
)

type mockApp struct {
	resolved [][]string
	shown    int
	cleared  int
	player   string
	health   int
	err      error
}

func (m *mockApp) Resolve(_ context.Context, args []string) error {
	m.resolved = append(m.resolved, args)
	return m.err
}

func (m *mockApp) StateShow(w io.Writer) error {
	m.shown++
	_, _ = io.WriteString(w, "state\n")
	return m.err
}

func (m *mockApp) StateClear() error {
	m.cleared++
	return m.err
}

func (m *mockApp) StatePlayer(hint string) error {
	m.player = hint
	return m.err
}

func (m *mockApp) Health(_ context.Context, w io.Writer) error {
	m.health++
	_, _ = io.WriteString(w, "healthy\n")
	return m.err
}

func execute(t *testing.T, m *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(m)
	cli.SetArgs(args)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Resolve(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"media url", []string{"https://video.example/x"}},
		{"tool flags are not parsed", []string{"-f", "best", "--no-warnings", "--get-url", "https://video.example/x"}},
		{"help belongs to the tool", []string{"--help"}},
		{"version flag belongs to the tool", []string{"--version"}},
		{"double dash is kept", []string{"--", "https://video.example/x"}},
		{"subcommand name later in args", []string{"--get-url", "state"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockApp{}
			_, err := execute(t, m, tt.args...)
			require.NoError(t, err)
			require.Len(t, m.resolved, 1)
			assert.Equal(t, tt.args, m.resolved[0])
		})
	}
}

func TestCommands_ResolveNoArgs(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m)
	require.NoError(t, err)
	require.Len(t, m.resolved, 1)
	assert.Empty(t, m.resolved[0])
}

func TestCommands_ResolveError(t *testing.T) {
	m := &mockApp{err: errors.New("simulated error")}
	_, err := execute(t, m, "https://video.example/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated error")
}

func TestCommands_State(t *testing.T) {
	t.Run("show is the default", func(t *testing.T) {
		m := &mockApp{}
		out, err := execute(t, m, "state")
		require.NoError(t, err)
		assert.Equal(t, 1, m.shown)
		assert.Equal(t, "state\n", out)
	})

	t.Run("show", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "state", "show")
		require.NoError(t, err)
		assert.Equal(t, 1, m.shown)
	})

	t.Run("clear", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "state", "clear")
		require.NoError(t, err)
		assert.Equal(t, 1, m.cleared)
		assert.Empty(t, m.resolved)
	})

	t.Run("player", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "state", "player", "unity")
		require.NoError(t, err)
		assert.Equal(t, "unity", m.player)
	})

	t.Run("player requires a hint", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "state", "player")
		require.Error(t, err)
		assert.Empty(t, m.player)
	})
}

func TestCommands_Health(t *testing.T) {
	m := &mockApp{}
	out, err := execute(t, m, "health")
	require.NoError(t, err)
	assert.Equal(t, 1, m.health)
	assert.Equal(t, "healthy\n", out)
}

func TestCommands_Version(t *testing.T) {
	build.Version = "1.2.3"
	build.Commit = "abc"
	build.Date = "2026-01-01"
	t.Cleanup(func() {
		build.Version = "dev"
		build.Commit = "none"
		build.Date = "unknown"
	})

	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "redirector version 1.2.3 (commit: abc, date: 2026-01-01)\n", out)
}
