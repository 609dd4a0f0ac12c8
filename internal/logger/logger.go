// Package logger provides structured logging for wikietl using zap, plus the
// append-only progress log each job writes.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dbsmedya/wikietl/internal/config"
)

// Context keys attached by the With* helpers.
const (
	KeyJob   = "job"
	KeyRun   = "run_id"
	KeyStage = "stage"
)

// Logger wraps zap.SugaredLogger with pipeline context helpers.
type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

// New creates a Logger from configuration. Output is "stdout", "stderr" or a
// file path; a file that cannot be opened is an error.
func New(cfg *config.LoggingConfig) (*Logger, error) {
	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	return NewWithSink(cfg, sink), nil
}

// NewWithSink creates a Logger writing to sink with cfg's level and format.
func NewWithSink(cfg *config.LoggingConfig, sink zapcore.WriteSyncer) *Logger {
	core := zapcore.NewCore(buildEncoder(cfg.Format), sink, parseLevel(cfg.Level))
	base := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

// NewDefault creates a Logger at info level writing text to stderr.
func NewDefault() *Logger {
	return NewWithSink(&config.LoggingConfig{Level: "info", Format: "text"}, zapcore.Lock(os.Stderr))
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	base := zap.NewNop()
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

// parseLevel maps a config level to zap; empty or unknown means info.
func parseLevel(level string) zapcore.Level {
	if level == "" {
		return zapcore.InfoLevel
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func buildEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

// openSink resolves the output setting. Stdout carries the extracted table and
// the query results, so logs default to stderr.
func openSink(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr", "":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output %q: %w", output, err)
	}
	return zapcore.AddSync(f), nil
}

func (l *Logger) with(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...), base: l.base}
}

// WithJob tags entries with the job name.
func (l *Logger) WithJob(jobName string) *Logger { return l.with(KeyJob, jobName) }

// WithRun tags entries with the run ID.
func (l *Logger) WithRun(runID string) *Logger { return l.with(KeyRun, runID) }

// WithStage tags entries with the pipeline stage.
func (l *Logger) WithStage(stage string) *Logger { return l.with(KeyStage, stage) }

// WithFields returns a Logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.with(args...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
