package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/m4xw311/askai/agent"
	"github.com/m4xw311/askai/agentop"
	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/llm"
	"github.com/peterh/liner"
)

// ErrInterrupted is returned by Run when the user pressed Ctrl-C at a prompt.
var ErrInterrupted = errors.New("interrupted")

const (
	inputPrompt   = "You: "
	confirmPrompt = "Do you want to allow this? (y/n): "
	menuPrompt    = "setting (key=value, empty to finish): "
	clearScreen   = "\033[2J\033[H"
)

// LineReader reads edited lines of input. *liner.State implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// ClientFactory builds the provider client after a provider change.
type ClientFactory func(ctx context.Context, provider string) (llm.LLMClient, error)

// Terminal handles the terminal/CLI interaction mode for the agent
type Terminal struct {
	agent     *agent.Agent
	line      LineReader
	out       io.Writer
	newClient ClientFactory

	interrupted bool
	cancel      context.CancelFunc
}

// New creates a new Terminal instance. The line editor is opened by Run.
func New(a *agent.Agent) *Terminal {
	return &Terminal{
		agent:     a,
		out:       os.Stdout,
		newClient: llm.NewClient,
	}
}

// Run starts the interactive terminal session. It returns nil when the user
// exits or input ends, and ErrInterrupted on Ctrl-C.
func (t *Terminal) Run(ctx context.Context, initialPrompt string) error {
	if t.line == nil {
		state := liner.NewLiner()
		state.SetCtrlCAborts(true)
		t.line = state
	}
	defer t.line.Close()
	t.loadHistory()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.cancel = cancel

	// If there's an initial prompt from the command line, use it first
	if initialPrompt != "" {
		quit, err := t.handle(ctx, initialPrompt)
		if err := t.report(ctx, err); err != nil {
			return err
		}
		if quit {
			return nil
		}
	}

	for {
		userInput, err := t.line.Prompt(inputPrompt)
		switch {
		case err == liner.ErrPromptAborted:
			return ErrInterrupted
		case err == io.EOF:
			fmt.Fprintln(t.out)
			return nil
		case err != nil:
			return errors.Wrapf(err, "failed to read input")
		}

		userInput = strings.TrimSpace(userInput)
		if userInput == "" {
			continue
		}
		t.line.AppendHistory(userInput)

		quit, err := t.handle(ctx, userInput)
		if err := t.report(ctx, err); err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// report prints a non-fatal error and turns an interrupt into ErrInterrupted.
func (t *Terminal) report(ctx context.Context, err error) error {
	if t.interrupted || ctx.Err() != nil {
		return ErrInterrupted
	}
	if err != nil {
		fmt.Fprintf(t.out, "Error: %v\n", err)
	}
	return nil
}

// loadHistory seeds line history with the questions of a resumed session.
func (t *Terminal) loadHistory() {
	for _, msg := range t.agent.Session.Messages {
		if msg.Role == "user" && msg.Content != "" && !strings.HasPrefix(msg.Content, "/") {
			t.line.AppendHistory(msg.Content)
		}
	}
}

// handle dispatches one line of input. quit is true for the exit commands.
func (t *Terminal) handle(ctx context.Context, input string) (quit bool, err error) {
	callbacks := t.callbacks()

	if t.agent.IsConfirmShortcut(input) {
		return false, t.agent.RunPending(ctx, callbacks)
	}

	command, arg := input, ""
	if i := strings.IndexAny(input, " \t"); i >= 0 {
		command, arg = input[:i], strings.TrimSpace(input[i+1:])
	}
	if !strings.HasPrefix(command, "/") {
		return false, t.agent.ProcessUserInput(ctx, input, callbacks)
	}

	switch strings.ToLower(command) {
	case "/exit", "/quit", "/end":
		fmt.Fprintln(t.out, "Goodbye!")
		return true, nil
	case "/clear":
		t.agent.Clear(callbacks)
		fmt.Fprintln(t.out, "Conversation cleared.")
	case "/cls", "/clearscreen":
		fmt.Fprint(t.out, clearScreen)
	case "/help":
		printHelp(t.out)
	case "/menu":
		return false, t.menu(ctx, arg)
	case "/d":
		if arg == "" {
			return false, errors.New("usage: /d QUESTION")
		}
		return false, t.agent.Ask(ctx, arg, true, callbacks)
	case "/fs":
		if arg == "" {
			return false, errors.New("usage: /fs ACTION:PATH[:CONTENT]")
		}
		return false, t.agent.RunFileOperation(ctx, arg, callbacks)
	case "/exec":
		if arg == "" {
			return false, errors.New("usage: /exec COMMAND")
		}
		return false, t.agent.RunShellCommand(ctx, arg, callbacks)
	default:
		return false, errors.New("unknown command '%s', type /help for the list", command)
	}
	return false, nil
}

// callbacks creates the terminal-specific behavior for an ask cycle
func (t *Terminal) callbacks() agent.ProcessCallbacks {
	return agent.ProcessCallbacks{
		OnAssistantMessage: func(message string) {
			fmt.Fprintf(t.out, "AI: %s\n", message)
		},
		OnReasoningStep: func(iteration, total int, content string) {
			fmt.Fprintf(t.out, "Reasoning step %d/%d:\n%s\n", iteration, total, content)
		},
		OnOperation: func(req agentop.Request) {
			fmt.Fprintf(t.out, "AI wants to %s: %s\n", req.Intent(), req.Payload)
		},
		ShouldExecute: t.confirm,
		OnOperationResult: func(req agentop.Request, result agent.OperationResult, err error) {
			if err != nil {
				fmt.Fprintf(t.out, "Error: %v\n", err)
				return
			}
			if result.Output != "" {
				fmt.Fprint(t.out, ensureNewline(result.Output))
			}
			if !result.Success {
				fmt.Fprintf(t.out, "Command reported errors:\n%s", ensureNewline(result.Stderr))
			}
		},
		OnWarning: func(warning string) {
			fmt.Fprintf(t.out, "Warning: %s\n", warning)
		},
	}
}

// confirm asks the user to approve an operation. Ctrl-C declines and
// cancels the rest of the cycle.
func (t *Terminal) confirm(req agentop.Request) bool {
	answer, err := t.line.Prompt(confirmPrompt)
	if err != nil {
		if err == liner.ErrPromptAborted {
			t.interrupted = true
			if t.cancel != nil {
				t.cancel()
			}
		}
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// menu shows the settings and applies key=value updates, either given on
// the command line or entered one per line.
func (t *Terminal) menu(ctx context.Context, arg string) error {
	var entries []string
	if arg != "" {
		entries = strings.Fields(arg)
	} else {
		t.printSettings()
		for {
			line, err := t.line.Prompt(menuPrompt)
			if err == liner.ErrPromptAborted {
				t.interrupted = true
				return nil
			}
			if err != nil || strings.TrimSpace(line) == "" {
				break
			}
			entries = append(entries, strings.TrimSpace(line))
		}
	}
	if len(entries) == 0 {
		return nil
	}

	settings := map[string]string{}
	for _, e := range entries {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			return errors.New("expected key=value, got '%s'", e)
		}
		settings[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return t.applySettings(ctx, settings)
}

func (t *Terminal) applySettings(ctx context.Context, settings map[string]string) error {
	cfg := t.agent.Config
	previous := cfg.Provider
	if err := cfg.Update(settings); err != nil {
		return err
	}

	if cfg.Provider != previous {
		client, err := t.newClient(ctx, cfg.Provider)
		if err != nil {
			if rerr := cfg.Update(map[string]string{"provider": previous}); rerr != nil {
				return errors.Wrapf(rerr, "could not restore provider after: %v", err)
			}
			return err
		}
		t.agent.SetClient(client)
	}

	if err := cfg.Save(); err != nil {
		fmt.Fprintf(t.out, "Warning: settings applied but not saved: %v\n", err)
		return nil
	}
	fmt.Fprintln(t.out, "Settings updated.")
	return nil
}

func (t *Terminal) printSettings() {
	settings := t.agent.Config.Settings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(t.out, "Current settings:")
	for _, k := range keys {
		fmt.Fprintf(t.out, "  %s = %s\n", k, settings[k])
	}
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `Commands:
  /help                     show this help
  /exit, /quit, /end        leave
  /clear                    forget the conversation
  /cls, /clearscreen        clear the screen
  /menu [key=value ...]     show or change settings
  /d QUESTION               ask the powerful model directly
  /fs ACTION:PATH[:CONTENT] read, write, list or check a file
  /exec COMMAND             run a shell command
  y, yes                    run the operation the last reply suggested
`)
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
