package tools

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/m4xw311/askai/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell tests assume a POSIX sh")
	}
}

func TestExecuteShellCommand(t *testing.T) {
	skipOnWindows(t)
	e, _ := newTestExecutor(t)

	res, err := e.ExecuteShellCommand(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Empty(t, res.Stderr)
	assert.True(t, res.Success)
}

func TestExecuteShellCommandRunsInWorkingDirectory(t *testing.T) {
	skipOnWindows(t)
	e, dir := newTestExecutor(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), nil, 0644))

	res, err := e.ExecuteShellCommand(context.Background(), "ls")
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "marker.txt")
}

func TestExecuteShellCommandSuccessIsStderrBased(t *testing.T) {
	skipOnWindows(t)
	e, _ := newTestExecutor(t)

	// Exit status 0 but stderr output: reported as not successful.
	res, err := e.ExecuteShellCommand(context.Background(), "echo progress 1>&2")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "progress", strings.TrimSpace(res.Stderr))

	// Non-zero exit status with empty stderr: reported as successful.
	res, err = e.ExecuteShellCommand(context.Background(), "exit 3")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestExecuteShellCommandBlocked(t *testing.T) {
	skipOnWindows(t)
	e, dir := newTestExecutor(t)
	victim := filepath.Join(dir, "victim")
	require.NoError(t, os.MkdirAll(victim, 0755))

	_, err := e.ExecuteShellCommand(context.Background(), "RM -RF "+victim)
	assert.True(t, errors.Is(err, errors.ErrCommandNotAllowed), "%v", err)
	_, statErr := os.Stat(victim)
	assert.NoError(t, statErr)
}

func TestExecuteShellCommandCancelled(t *testing.T) {
	skipOnWindows(t)
	e, _ := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ExecuteShellCommand(ctx, "sleep 5")
	assert.ErrorIs(t, err, context.Canceled)
}
