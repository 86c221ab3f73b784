package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/m4xw311/askai/agent"
	"github.com/m4xw311/askai/agent/terminal"
	"github.com/m4xw311/askai/config"
	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/llm"
	"github.com/m4xw311/askai/logging"
	"github.com/m4xw311/askai/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exitInterrupted is the conventional status for a process ended by SIGINT.
const exitInterrupted = 130

type options struct {
	session    string
	resume     string
	provider   string
	configPath string
	trace      bool
	traceFile  string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	cmd := newRootCmd(&opts)
	cmd.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, terminal.ErrInterrupted), errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr)
		return exitInterrupted
	default:
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		return 1
	}
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "askai [prompt]",
		Short: "Chat with an LLM from your terminal",
		Long: `askai forwards questions to an LLM provider and keeps the conversation going.

The model may suggest file or shell operations; each one is shown to you and
runs only after you confirm it, and only inside the allowed directories.

Run without arguments to start the interactive chat. Any arguments are sent as
the first question.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts, strings.Join(args, " "))
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.session, "session", "s", "", "Session name to create or use")
	flags.StringVarP(&opts.resume, "resume", "r", "", "Resume a session by name")
	flags.StringVar(&opts.provider, "provider", "", "Provider to use: openai, anthropic, gemini, bedrock or mock")
	flags.StringVar(&opts.configPath, "config", "", "Read and write settings in this file instead of ~/.askai/config.yaml")
	flags.BoolVar(&opts.trace, "trace", false, "Enable execution tracing to troubleshoot issues")
	flags.StringVar(&opts.traceFile, "trace-file", logging.DefaultPath, "Where --trace writes")
	return cmd
}

func runChat(ctx context.Context, opts *options, initialPrompt string) error {
	logger, err := logging.New(opts.traceFile, opts.trace)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return errors.Wrapf(err, "error loading configuration")
	}

	sess, err := openSession(opts)
	if err != nil {
		return err
	}

	// A resumed session keeps its provider unless overridden.
	provider := opts.provider
	if provider == "" && opts.resume != "" {
		provider = sess.Provider
	}
	if provider != "" && provider != cfg.Provider {
		if err := cfg.Update(map[string]string{"provider": provider}); err != nil {
			return err
		}
	}
	sess.Provider = cfg.Provider

	client, err := llm.NewClient(ctx, cfg.Provider)
	if err != nil {
		return errors.Wrapf(err, "error initializing %s client", cfg.Provider)
	}
	logger.Info("starting",
		zap.String("session", sess.Name),
		zap.String("provider", cfg.Provider),
		zap.String("config", cfg.Path()),
		zap.String("document_root", cfg.DocumentRoot),
	)

	a := agent.New(cfg, sess, client, logger)
	fmt.Printf("askai is ready (%s). Type your prompt, or /help.\n", cfg.Provider)
	return terminal.New(a).Run(ctx, initialPrompt)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfigFrom(path)
	}
	return config.LoadConfig()
}

func openSession(opts *options) (*session.Session, error) {
	if opts.resume != "" {
		sess, err := session.Load(opts.resume)
		if err != nil {
			return nil, errors.Wrapf(err, "error resuming session '%s'", opts.resume)
		}
		fmt.Printf("Resuming session: %s\n", opts.resume)
		return sess, nil
	}

	name := opts.session
	if name == "" {
		name = defaultSessionName()
	}
	sess, err := session.New(name)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating session '%s'", name)
	}
	fmt.Printf("Starting new session: %s\n", name)
	return sess, nil
}

func defaultSessionName() string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "askai"
	}
	dirName := filepath.Base(wd)
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_%s", dirName, timestamp)
}
