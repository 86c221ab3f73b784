package errors

import (
	stderrors "errors"
	"io/fs"
	"strings"
	"testing"
)

func TestWrapfNil(t *testing.T) {
	if err := Wrapf(nil, "context"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestNewCarriesCaller(t *testing.T) {
	err := New("boom %d", 42)
	if !strings.HasPrefix(err.Error(), "[errors_test.go:") {
		t.Errorf("expected caller prefix, got %q", err.Error())
	}
	if !strings.HasSuffix(err.Error(), "boom 42") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestMarkKeepsKindAndCause(t *testing.T) {
	err := Mark(ErrIO, fs.ErrNotExist, "failed to read file '%s'", "x.txt")
	if !Is(err, ErrIO) {
		t.Errorf("expected ErrIO in chain: %v", err)
	}
	if !Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist in chain: %v", err)
	}
	if Is(err, ErrAccessDenied) {
		t.Errorf("unexpected ErrAccessDenied in chain: %v", err)
	}
}

func TestMarkWithoutCause(t *testing.T) {
	err := Mark(ErrAccessDenied, nil, "path '%s' is outside the allowed directories", "/etc")
	if !Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied: %v", err)
	}
	if !strings.Contains(err.Error(), "/etc") {
		t.Errorf("message lost: %v", err)
	}
}

func TestAs(t *testing.T) {
	var pathErr *fs.PathError
	err := Wrapf(&fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}, "outer")
	if !As(err, &pathErr) {
		t.Fatal("expected *fs.PathError")
	}
	if !stderrors.Is(err, fs.ErrPermission) {
		t.Error("expected fs.ErrPermission")
	}
}
