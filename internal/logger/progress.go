package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
)

// ProgressTimeLayout renders timestamps as YYYY-Mon-DD-HH:MM:SS.
const ProgressTimeLayout = "2006-Jan-02-15:04:05"

// Recorder receives pipeline progress events.
type Recorder interface {
	Record(event string) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(event string) error

// Record calls f(event).
func (f RecorderFunc) Record(event string) error { return f(event) }

// ProgressLog appends one "<timestamp>:<message>" line per event to a file.
type ProgressLog struct {
	path  string
	file  *os.File
	core  zapcore.Core
	clock zapcore.Clock
}

// ProgressOption configures a ProgressLog.
type ProgressOption func(*ProgressLog)

// WithClock overrides the time source used for timestamps.
func WithClock(clock zapcore.Clock) ProgressOption {
	return func(p *ProgressLog) { p.clock = clock }
}

// OpenProgressLog opens (or creates) path for appending.
func OpenProgressLog(path string, opts ...ProgressOption) (*ProgressLog, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open progress log %s: %w", path, err)
	}

	p := &ProgressLog{
		path:  path,
		file:  file,
		clock: zapcore.DefaultClock,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.core = zapcore.NewCore(progressEncoder(), zapcore.AddSync(file), zapcore.InfoLevel)
	return p, nil
}

func progressEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(ProgressTimeLayout),
		ConsoleSeparator: ":",
	})
}

// Record appends event with the current local time.
func (p *ProgressLog) Record(event string) error {
	entry := zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Time:    p.clock.Now(),
		Message: event,
	}
	if err := p.core.Write(entry, nil); err != nil {
		return fmt.Errorf("write progress log %s: %w", p.path, err)
	}
	return nil
}

// Path returns the file the log appends to.
func (p *ProgressLog) Path() string { return p.path }

// Close closes the underlying file.
func (p *ProgressLog) Close() error {
	return p.file.Close()
}
