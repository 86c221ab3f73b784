package tools

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/m4xw311/askai/errors"
)

// ExecuteFileOperation performs exactly one file action on path. The path is
// checked against the allowed directories and hidden patterns before any
// I/O; a violation fails with errors.ErrAccessDenied. File-system failures
// come back marked errors.ErrIO with the underlying error kept in the chain.
func (e *Executor) ExecuteFileOperation(ctx context.Context, action FileAction, path, content string) (FileResult, error) {
	result := FileResult{Action: action, Path: path}

	if err := e.checkPath(path); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	switch action {
	case ActionRead:
		data, err := os.ReadFile(path)
		if err != nil {
			return result, errors.Mark(errors.ErrIO, err, "failed to read file '%s'", path)
		}
		result.Content = string(data)
	case ActionWrite:
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return result, errors.Mark(errors.ErrIO, err, "failed to create directory for '%s'", path)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return result, errors.Mark(errors.ErrIO, err, "failed to write to file '%s'", path)
		}
		result.BytesWritten = len(content)
	case ActionList:
		entries, err := os.ReadDir(path)
		if err != nil {
			return result, errors.Mark(errors.ErrIO, err, "failed to list directory '%s'", path)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		sort.Strings(names)
		result.Entries = names
	case ActionExists:
		_, err := os.Stat(path)
		switch {
		case err == nil:
			result.Exists = true
		case os.IsNotExist(err):
			result.Exists = false
		default:
			return result, errors.Mark(errors.ErrIO, err, "failed to stat '%s'", path)
		}
	default:
		return result, errors.Mark(errors.ErrUnsupportedOperation, nil, "unknown file action '%s'", action)
	}
	return result, nil
}

func (e *Executor) checkPath(path string) error {
	allow := e.cfg.AllowList
	if !IsPathAllowed(path, allow.AllowedDirectories) {
		return errors.Mark(errors.ErrAccessDenied, nil, "path '%s' is outside the allowed directories", path)
	}
	hidden, err := IsPathHidden(path, allow.Hidden)
	if err != nil {
		return errors.Wrapf(err, "could not check hidden patterns for '%s'", path)
	}
	if hidden {
		return errors.Mark(errors.ErrAccessDenied, nil, "path '%s' is hidden", path)
	}
	return nil
}
