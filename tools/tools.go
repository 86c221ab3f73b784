package tools

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/m4xw311/askai/config"
)

// FileAction is one of the primitive file-system operations.
type FileAction string

const (
	ActionRead   FileAction = "read"
	ActionWrite  FileAction = "write"
	ActionList   FileAction = "list"
	ActionExists FileAction = "exists"
)

// FileResult carries the outcome of a file operation. Which field is set
// depends on Action.
type FileResult struct {
	Action       FileAction
	Path         string
	Content      string   // read
	BytesWritten int      // write
	Entries      []string // list, sorted by name
	Exists       bool     // exists
}

// String renders the result for display and for narrating it back to the
// model.
func (r FileResult) String() string {
	switch r.Action {
	case ActionRead:
		return r.Content
	case ActionWrite:
		return fmt.Sprintf("Successfully wrote %d bytes to %s", r.BytesWritten, r.Path)
	case ActionList:
		if len(r.Entries) == 0 {
			return ""
		}
		return strings.Join(r.Entries, "\n") + "\n"
	case ActionExists:
		if r.Exists {
			return fmt.Sprintf("%s exists", r.Path)
		}
		return fmt.Sprintf("%s does not exist", r.Path)
	}
	return ""
}

// ShellResult carries the captured streams of a shell command.
type ShellResult struct {
	Stdout string
	Stderr string
	// Success is true when nothing was written to stderr. It does not look
	// at the exit status; callers use it to decide whether to show an error
	// banner, so a command that logs progress on stderr counts as failed.
	Success bool
}

// Executor performs file and shell operations after checking them against
// the allow-list of cfg. It reads cfg on every call, so settings updates
// take effect immediately.
type Executor struct {
	cfg *config.Config
}

func NewExecutor(cfg *config.Config) *Executor {
	return &Executor{cfg: cfg}
}

// CommandAllowed reports whether commandLine passes the block-list.
func (e *Executor) CommandAllowed(commandLine string) bool {
	return IsCommandAllowed(commandLine, e.cfg.AllowList.DisallowedCommands)
}

// isPathRestricted checks if a path matches any of the glob patterns.
func isPathRestricted(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}
