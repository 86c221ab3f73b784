package errors

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// Error kinds. Callers match them with Is; every error built by this package
// keeps the kind in its chain.
var (
	// ErrAccessDenied is returned when a path falls outside the allowed
	// directories or matches a hidden pattern.
	ErrAccessDenied = stderrors.New("access denied")
	// ErrCommandNotAllowed is returned when a shell command contains a
	// blocked substring.
	ErrCommandNotAllowed = stderrors.New("command not allowed")
	// ErrProviderUnavailable is returned when the selected provider has no
	// credentials configured.
	ErrProviderUnavailable = stderrors.New("provider unavailable")
	// ErrProviderError wraps a failed provider call.
	ErrProviderError = stderrors.New("provider error")
	// ErrClassificationParse marks classifier output that could not be parsed.
	ErrClassificationParse = stderrors.New("classification parse error")
	// ErrIO wraps an underlying file-system failure.
	ErrIO = stderrors.New("i/o error")
	// ErrUnsupportedOperation is returned for file actions the executor
	// does not know.
	ErrUnsupportedOperation = stderrors.New("unsupported operation")
)

// New creates a new error with file and line number information.
func New(format string, a ...interface{}) error {
	file, line := caller()
	return fmt.Errorf("[%s:%d] %s", file, line, fmt.Sprintf(format, a...))
}

// Wrapf adds context (including file and line number) to an existing error.
// If the provided error is nil, Wrapf returns nil.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	file, line := caller()
	return fmt.Errorf("[%s:%d] %s: %w", file, line, fmt.Sprintf(format, a...), err)
}

// Mark wraps err with context and tags it with kind, so that both
// Is(result, kind) and Is(result, err) hold. A nil err produces an error
// carrying only the kind.
func Mark(kind, err error, format string, a ...interface{}) error {
	file, line := caller()
	if err == nil {
		return fmt.Errorf("[%s:%d] %s: %w", file, line, fmt.Sprintf(format, a...), kind)
	}
	return fmt.Errorf("[%s:%d] %s: %w: %w", file, line, fmt.Sprintf(format, a...), kind, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

func caller() (string, int) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???", 0
	}
	return filepath.Base(file), line
}
