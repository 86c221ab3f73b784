package tools

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"

	"github.com/m4xw311/askai/errors"
)

// ExecuteShellCommand runs commandLine through the system shell in the
// configured working directory. A command matching the block-list is
// rejected with errors.ErrCommandNotAllowed before anything runs.
//
// A non-zero exit status is not an error; the result reports it only through
// Success, which is derived from stderr. There is no timeout: the command
// runs until it exits or ctx is cancelled.
func (e *Executor) ExecuteShellCommand(ctx context.Context, commandLine string) (ShellResult, error) {
	if !e.CommandAllowed(commandLine) {
		return ShellResult{}, errors.Mark(errors.ErrCommandNotAllowed, nil, "command '%s' contains a blocked pattern", commandLine)
	}
	return runShell(ctx, commandLine, e.cfg.WorkDir())
}

func runShell(ctx context.Context, commandLine, dir string) (ShellResult, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", commandLine)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", commandLine)
	}
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ShellResult{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return ShellResult{}, errors.Mark(errors.ErrIO, err, "command execution failed")
		}
	}

	return ShellResult{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Success: stderr.Len() == 0,
	}, nil
}
