package tools

import (
	"path/filepath"
	"testing"

	"github.com/m4xw311/askai/config"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestExecutor returns an executor confined to a fresh temp directory.
func newTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DocumentRoot = dir
	cfg.AllowList = config.AllowList{
		AllowedDirectories: []string{dir},
		DisallowedCommands: []string{"rm -rf", "sudo"},
		Hidden:             []string{"**/.askai", "**/.askai/**"},
	}
	return NewExecutor(cfg), dir
}

func TestIsPathRestricted(t *testing.T) {
	patterns := []string{"**/.askai/**", "**/*.key"}
	tests := []struct {
		path string
		want bool
	}{
		{"/home/u/.askai/sessions/a.json", true},
		{"/srv/secrets/server.key", true},
		{"/srv/notes.txt", false},
	}
	for _, tc := range tests {
		got, err := isPathRestricted(tc.path, patterns)
		if err != nil {
			t.Fatalf("isPathRestricted(%q): %v", tc.path, err)
		}
		if got != tc.want {
			t.Errorf("isPathRestricted(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestFileResultString(t *testing.T) {
	p := filepath.Join("docs", "a.txt")
	if got := (FileResult{Action: ActionWrite, Path: p, BytesWritten: 3}).String(); got != "Successfully wrote 3 bytes to "+p {
		t.Errorf("unexpected write rendering %q", got)
	}
	if got := (FileResult{Action: ActionList, Entries: []string{"a", "b"}}).String(); got != "a\nb\n" {
		t.Errorf("unexpected list rendering %q", got)
	}
	if got := (FileResult{Action: ActionList}).String(); got != "" {
		t.Errorf("unexpected empty list rendering %q", got)
	}
	if got := (FileResult{Action: ActionExists, Path: p}).String(); got != p+" does not exist" {
		t.Errorf("unexpected exists rendering %q", got)
	}
}
