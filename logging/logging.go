// Package logging builds the trace logger.
//
// User-facing output goes to the terminal directly. The trace logger writes
// structured JSON lines to a file so a session can be troubleshot without
// cluttering the conversation. When tracing is off it discards everything.
package logging

import (
	"os"
	"path/filepath"

	"github.com/m4xw311/askai/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultPath is where the trace file goes unless configured otherwise.
var DefaultPath = filepath.Join(".askai", "askai.trace")

// New returns a logger appending to path at debug level, or a no-op logger
// when enabled is false.
func New(path string, enabled bool) (*zap.Logger, error) {
	if !enabled {
		return zap.NewNop(), nil
	}
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "could not create trace directory")
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Sampling = nil

	logger, err := config.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to initialize trace logger")
	}
	return logger, nil
}
