package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/m4xw311/askai/agentop"
	"github.com/m4xw311/askai/config"
	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/llm"
	"github.com/m4xw311/askai/router"
	"github.com/m4xw311/askai/session"
	"github.com/m4xw311/askai/tools"
	"go.uber.org/zap"
)

// Apology is stored as the assistant reply when the provider call fails.
const Apology = "Sorry, I couldn't get a response from the model. Please try again."

const systemPromptTemplate = `You are a helpful assistant running in the user's terminal.

You can ask the user's computer to perform operations by writing tokens in your reply:

  {{agent:fs:ACTION:PATH}}            ACTION is read, list or exists
  {{agent:fs:write:PATH:CONTENT}}     write CONTENT to PATH
  {{agent:exec:COMMAND}}              run COMMAND in the shell

The user confirms every operation before it runs. Once handled, a token is replaced by
"(Executed: PAYLOAD)" or "(Command not executed: PAYLOAD)"; those annotations only record
history, never write them yourself.

File paths are relative to the document root %s.
Allowed directories: %s
Shell commands run in %s.
Only use a token when the user asks for something that needs it.`

// Agent drives the ask, execute and respond cycle of one conversation.
type Agent struct {
	Config    *config.Config
	Session   *session.Session
	LLMClient llm.LLMClient
	Executor  *tools.Executor
	Router    *router.Router
	Pipeline  *Pipeline
	Logger    *zap.Logger
}

func New(cfg *config.Config, sess *session.Session, client llm.LLMClient, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	executor := tools.NewExecutor(cfg)
	return &Agent{
		Config:    cfg,
		Session:   sess,
		LLMClient: client,
		Executor:  executor,
		Router:    router.New(cfg, logger),
		Pipeline:  NewPipeline(executor, logger),
		Logger:    logger,
	}
}

func (a *Agent) extractor() agentop.Extractor {
	return agentop.Extractor{DocumentRoot: a.Config.DocumentRoot}
}

// SystemPrompt describes the operation grammar and the current allow-list.
func (a *Agent) SystemPrompt() string {
	return fmt.Sprintf(systemPromptTemplate,
		a.Config.DocumentRoot,
		strings.Join(a.Config.AllowList.AllowedDirectories, ", "),
		a.Config.WorkDir(),
	)
}

// ProcessUserInput asks question with routing.
func (a *Agent) ProcessUserInput(ctx context.Context, question string, callbacks ProcessCallbacks) error {
	return a.Ask(ctx, question, false, callbacks)
}

// Ask runs one cycle: the question is added to history, routed to a model
// tier, and answered; operations in the reply go through the pipeline and the
// annotated reply replaces the stored one. force skips routing and uses the
// powerful tier.
//
// A provider failure stores an apology as the reply and returns an error
// marked errors.ErrProviderError; the conversation stays usable.
func (a *Agent) Ask(ctx context.Context, question string, force bool, callbacks ProcessCallbacks) error {
	logger := a.Logger.With(zap.String("turn_id", uuid.NewString()))
	a.Session.AddMessage(session.Message{Role: session.RoleUser, Content: question})

	decision := a.Router.Route(ctx, a.LLMClient, question, force)
	logger.Info("asking",
		zap.String("provider", a.Config.Provider),
		zap.String("model", decision.Model),
		zap.String("tier", string(decision.Tier)),
		zap.Bool("forced", force),
	)

	reply, err := a.complete(ctx, decision, callbacks)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error("provider call failed", zap.Error(err))
		a.Session.AddMessage(session.Message{Role: session.RoleAssistant, Content: Apology})
		a.Session.Trim(a.Config.MaxContextMessages)
		a.save(callbacks)
		return errors.Mark(errors.ErrProviderError, err, "no reply from %s", a.Config.Provider)
	}

	a.Session.AddMessage(session.Message{Role: session.RoleAssistant, Content: reply})
	a.Session.Trim(a.Config.MaxContextMessages)
	callbacks.assistantMessage(reply)

	if a.Config.Agent.Enabled {
		if reqs := a.extractor().Extract(reply); len(reqs) > 0 {
			logger.Info("operations found", zap.Int("count", len(reqs)))
			annotated, _ := a.Pipeline.Run(ctx, reply, reqs, callbacks)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.Session.ReplaceLastAssistant(annotated)
		}
	}

	a.save(callbacks)
	return nil
}

func (a *Agent) complete(ctx context.Context, d router.Decision, callbacks ProcessCallbacks) (string, error) {
	messages := a.messages()
	if !d.Refine {
		return a.LLMClient.Complete(ctx, d.Model, messages, llm.Options{})
	}

	refinement, err := a.Router.Refine(ctx, a.LLMClient, d.Model, messages, a.Config.Reasoning.Iterations)
	if err != nil {
		return "", err
	}
	if a.Config.Reasoning.ShowSteps {
		for i, step := range refinement.Steps {
			callbacks.reasoningStep(i+1, len(refinement.Steps), step)
		}
	}
	return refinement.Answer, nil
}

// messages is the system prompt followed by the most recent history.
func (a *Agent) messages() []session.Message {
	history := a.Session.Messages
	if limit := 2 * a.Config.MaxContextMessages; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	msgs := make([]session.Message, 0, len(history)+1)
	msgs = append(msgs, session.Message{Role: session.RoleSystem, Content: a.SystemPrompt()})
	return append(msgs, history...)
}

// IsConfirmShortcut reports whether input is a bare "y" or "yes" answering an
// operation still pending in the latest assistant message.
func (a *Agent) IsConfirmShortcut(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
	default:
		return false
	}
	last, ok := a.Session.LastAssistant()
	return ok && a.extractor().HasPending(last.Content)
}

// RunPending executes the first unresolved token of the latest assistant
// message without asking, annotates it, and asks the model to explain the
// result. Only that single token is considered.
func (a *Agent) RunPending(ctx context.Context, callbacks ProcessCallbacks) error {
	last, ok := a.Session.LastAssistant()
	if !ok {
		return errors.New("no assistant message to confirm")
	}
	req, ok := a.extractor().FirstPending(last.Content)
	if !ok {
		return errors.New("no pending operation in the last reply")
	}
	callbacks.operation(req)

	if err := a.Pipeline.precheck(req); err != nil {
		callbacks.operationResult(req, OperationResult{}, err)
		a.annotate(last.Content, req, agentop.NotExecuted(req.Payload))
		a.save(callbacks)
		return nil
	}

	result, err := a.Pipeline.Execute(ctx, req)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	callbacks.operationResult(req, result, err)
	a.annotate(last.Content, req, agentop.Executed(req.Payload))

	return a.Ask(ctx, narrate(req, result, err), false, callbacks)
}

func (a *Agent) annotate(text string, req agentop.Request, annotation string) {
	a.Session.ReplaceLastAssistant(agentop.Rewrite(text, []agentop.Replacement{{Request: req, Text: annotation}}))
}

// RunFileOperation runs a user-typed "ACTION:PATH[:CONTENT]" payload. The
// path is confined to the document root and checked against the allow-list,
// but no confirmation is asked and history is not touched.
func (a *Agent) RunFileOperation(ctx context.Context, payload string, callbacks ProcessCallbacks) error {
	req := agentop.Request{Op: a.extractor().ParseFilePayload(payload), Payload: payload}
	return a.runDirect(ctx, req, callbacks)
}

// RunShellCommand runs a user-typed command line, subject to the block-list.
func (a *Agent) RunShellCommand(ctx context.Context, commandLine string, callbacks ProcessCallbacks) error {
	commandLine = strings.TrimSpace(commandLine)
	req := agentop.Request{Op: agentop.ShellOperation{CommandLine: commandLine}, Payload: commandLine}
	return a.runDirect(ctx, req, callbacks)
}

func (a *Agent) runDirect(ctx context.Context, req agentop.Request, callbacks ProcessCallbacks) error {
	result, err := a.Pipeline.Execute(ctx, req)
	if err != nil {
		return err
	}
	callbacks.operationResult(req, result, nil)
	return nil
}

// SetClient swaps the provider client, for example after a provider change.
func (a *Agent) SetClient(client llm.LLMClient) {
	a.LLMClient = client
	a.Session.Provider = a.Config.Provider
}

// Clear forgets the conversation and persists the empty session.
func (a *Agent) Clear(callbacks ProcessCallbacks) {
	a.Session.Clear()
	a.save(callbacks)
}

func (a *Agent) save(callbacks ProcessCallbacks) {
	if err := a.Session.Save(); err != nil {
		a.Logger.Warn("failed to save session", zap.Error(err))
		callbacks.warning(fmt.Sprintf("failed to save session: %v", err))
	}
}
