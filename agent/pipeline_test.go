package agent

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m4xw311/askai/agentop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineLegacyAnnotationsNeedConfirmation(t *testing.T) {
	a, _, dir := newTestAgent(t)
	path := filepath.Join(dir, "old.txt")
	text := "Earlier: (Executed: exists:" + path + ")"
	reqs := a.extractor().Extract(text)
	require.Len(t, reqs, 1)
	require.True(t, reqs[0].Legacy)

	var asked int
	out, outcomes := a.Pipeline.Run(context.Background(), text, reqs, ProcessCallbacks{
		ShouldExecute: func(agentop.Request) bool { asked++; return false },
	})
	assert.Equal(t, 1, asked)
	assert.Equal(t, "Earlier: (Command not executed: exists:"+path+")", out)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Approved)
}

func TestPipelineStopsWhenCancelled(t *testing.T) {
	a, _, dir := newTestAgent(t)
	text := "{{agent:fs:exists:" + dir + "}} {{agent:fs:exists:" + dir + "}}"
	reqs := a.extractor().Extract(text)
	require.Len(t, reqs, 2)

	ctx, cancel := context.WithCancel(context.Background())
	out, outcomes := a.Pipeline.Run(ctx, text, reqs, ProcessCallbacks{
		ShouldExecute: func(agentop.Request) bool { cancel(); return false },
	})
	require.Len(t, outcomes, 1)
	assert.True(t, strings.HasPrefix(out, "(Command not executed: exists:"))
	assert.True(t, strings.HasSuffix(out, "{{agent:fs:exists:"+dir+"}}"))
}

func TestOperationResultString(t *testing.T) {
	assert.Equal(t, "out", OperationResult{Output: "out"}.String())
	assert.Equal(t, "stderr:\nwarn", OperationResult{Stderr: "warn"}.String())
	assert.Equal(t, "out\nstderr:\nwarn", OperationResult{Output: "out", Stderr: "warn"}.String())
}

func TestNarrate(t *testing.T) {
	shell := agentop.Request{Op: agentop.ShellOperation{CommandLine: "date"}, Payload: "date"}
	assert.Contains(t, narrate(shell, OperationResult{Output: "Mon\n"}, nil), "I ran the command `date`. Output:\n```\nMon\n```")
	assert.Contains(t, narrate(shell, OperationResult{}, nil), "It produced no output.")

	file := agentop.Request{Op: agentop.FileOperation{Action: "read", Path: "/x"}, Payload: "read:/x"}
	assert.Contains(t, narrate(file, OperationResult{}, errors.New("boom")), "`read:/x`. It failed with: boom")
}
