//go:build windows

package sandbox

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_CloseKillsAssignedTree(t *testing.T) {
	c := newContainer()

	//nolint:gosec // fixed test command
	cmd := exec.Command("cmd", "/c", "ping", "-n", "60", "127.0.0.1")
	require.NoError(t, cmd.Start())
	require.NoError(t, c.add(cmd.Process))

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	require.NoError(t, c.close())

	select {
	case err := <-done:
		assert.Error(t, err, "the job object terminates the process")
	case <-time.After(10 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("process survived the job object being closed")
	}
}

func TestContainer_SharedAcrossProcesses(t *testing.T) {
	c := newContainer()
	t.Cleanup(func() { _ = c.close() })

	for range 2 {
		//nolint:gosec // fixed test command
		cmd := exec.Command("cmd", "/c", "exit", "0")
		require.NoError(t, cmd.Start())
		_ = c.add(cmd.Process)
		_ = cmd.Wait()
	}
	assert.NoError(t, c.err)
	assert.NotZero(t, c.job)
}
