package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/m4xw311/askai/agentop"
	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/tools"
	"go.uber.org/zap"
)

// OperationResult is what an executed operation produced.
type OperationResult struct {
	Output string
	Stderr string
	// Success follows tools.ShellResult.Success for shell commands and is
	// always true for file operations that returned without error.
	Success bool
}

// String renders the result for narrating it back to the model.
func (r OperationResult) String() string {
	if r.Stderr == "" {
		return r.Output
	}
	if r.Output == "" {
		return "stderr:\n" + r.Stderr
	}
	return r.Output + "\nstderr:\n" + r.Stderr
}

// Outcome records how one operation of a reply was resolved.
type Outcome struct {
	Request  agentop.Request
	Approved bool
	Result   OperationResult
	Err      error
}

// Pipeline confirms and executes the operations of a reply one at a time,
// in order, and annotates the reply with what happened.
type Pipeline struct {
	executor *tools.Executor
	logger   *zap.Logger
}

func NewPipeline(executor *tools.Executor, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{executor: executor, logger: logger}
}

// Run resolves reqs, which must have been extracted from text, and returns
// text with every resolved span replaced by its annotation.
//
// A shell command matching the block-list is refused without asking. Any
// other operation is shown through callbacks and runs only if ShouldExecute
// approves it. An approved operation is annotated as executed even when it
// fails. If ctx is cancelled, the remaining operations are left untouched.
func (p *Pipeline) Run(ctx context.Context, text string, reqs []agentop.Request, callbacks ProcessCallbacks) (string, []Outcome) {
	var (
		replacements []agentop.Replacement
		outcomes     []Outcome
	)
	for _, req := range reqs {
		if ctx.Err() != nil {
			break
		}
		outcome := p.resolve(ctx, req, callbacks)
		outcomes = append(outcomes, outcome)

		annotation := agentop.NotExecuted(req.Payload)
		if outcome.Approved {
			annotation = agentop.Executed(req.Payload)
		}
		replacements = append(replacements, agentop.Replacement{Request: req, Text: annotation})
	}
	return agentop.Rewrite(text, replacements), outcomes
}

func (p *Pipeline) resolve(ctx context.Context, req agentop.Request, callbacks ProcessCallbacks) Outcome {
	outcome := Outcome{Request: req}
	callbacks.operation(req)

	if err := p.precheck(req); err != nil {
		p.logger.Info("operation refused", zap.String("payload", req.Payload), zap.Error(err))
		outcome.Err = err
		callbacks.operationResult(req, outcome.Result, err)
		return outcome
	}

	if !callbacks.shouldExecute(req) {
		p.logger.Info("operation declined", zap.String("kind", string(req.Kind())), zap.String("payload", req.Payload))
		return outcome
	}

	outcome.Approved = true
	outcome.Result, outcome.Err = p.Execute(ctx, req)
	callbacks.operationResult(req, outcome.Result, outcome.Err)
	return outcome
}

// precheck refuses operations that must never reach a confirmation prompt.
func (p *Pipeline) precheck(req agentop.Request) error {
	if op, ok := req.Op.(agentop.ShellOperation); ok && !p.executor.CommandAllowed(op.CommandLine) {
		return errors.Mark(errors.ErrCommandNotAllowed, nil, "command '%s' contains a blocked pattern", op.CommandLine)
	}
	return nil
}

// Execute dispatches req to the executor without asking for confirmation.
func (p *Pipeline) Execute(ctx context.Context, req agentop.Request) (OperationResult, error) {
	var (
		result OperationResult
		err    error
	)
	switch op := req.Op.(type) {
	case agentop.FileOperation:
		var fr tools.FileResult
		fr, err = p.executor.ExecuteFileOperation(ctx, op.Action, op.Path, op.Content)
		if err == nil {
			result = OperationResult{Output: fr.String(), Success: true}
		}
	case agentop.ShellOperation:
		var sr tools.ShellResult
		sr, err = p.executor.ExecuteShellCommand(ctx, op.CommandLine)
		if err == nil {
			result = OperationResult{Output: sr.Stdout, Stderr: sr.Stderr, Success: sr.Success}
		}
	default:
		err = errors.Mark(errors.ErrUnsupportedOperation, nil, "unknown operation %T", req.Op)
	}

	p.logger.Info("operation executed",
		zap.String("kind", string(req.Kind())),
		zap.String("payload", req.Payload),
		zap.Bool("success", err == nil && result.Success),
		zap.Error(err),
	)
	return result, err
}

// narrate describes an executed operation for a follow-up question.
func narrate(req agentop.Request, result OperationResult, err error) string {
	var b strings.Builder
	if req.Kind() == agentop.KindShell {
		fmt.Fprintf(&b, "I ran the command `%s`.", strings.TrimSpace(req.Payload))
	} else {
		fmt.Fprintf(&b, "I performed the file operation `%s`.", req.Payload)
	}
	if err != nil {
		fmt.Fprintf(&b, " It failed with: %v", err)
	} else if out := strings.TrimSpace(result.String()); out != "" {
		fmt.Fprintf(&b, " Output:\n```\n%s\n```", out)
	} else {
		b.WriteString(" It produced no output.")
	}
	b.WriteString("\nPlease briefly explain the result.")
	return b.String()
}
