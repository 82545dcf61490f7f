// Package logger builds the zap loggers used by the CLI and the HTTP server.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Structured field keys shared across packages.
const (
	FieldJobID    = "job_id"
	FieldModel    = "model"
	FieldFilename = "filename"
	FieldStatus   = "status"
	FieldURL      = "url"
	FieldRemoteIP = "remote_ip"
	FieldDuration = "duration"
)

// New builds a logger writing to stderr. json selects the JSON encoder over the
// console one; debug lowers the level to Debug.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}

	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "msg",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,

			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// WithJob attaches the job ID field. A nil logger yields a no-op logger.
func WithJob(l *zap.Logger, jobID string) *zap.Logger {
	l = OrNop(l)
	if strings.TrimSpace(jobID) == "" {
		return l
	}
	return l.With(zap.String(FieldJobID, jobID))
}

// TruncateForLog shortens s to limit runes, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
