package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields mirrors logrus.Fields.
type Fields map[string]interface{}

// Log is the process logger.
type Log struct {
	*logrus.Logger
}

// Entry is a Log with fields attached.
type Entry struct {
	*logrus.Entry
}

const (
	levelEnv = "LOG_LEVEL"

	// rotateMaxSizeMB caps a rotated log file.
	rotateMaxSizeMB = 100
)

var globalLogger = NewLog(os.Stderr)

// NewLog returns a JSON logger writing to w. The level comes from LOG_LEVEL
// and falls back to info. Quote rows own stdout, so callers pass stderr or a
// file here.
func NewLog(w io.Writer) *Log {
	l := logrus.New()
	l.SetOutput(w)
	l.SetReportCaller(true)
	l.SetFormatter(newFormatter("json"))
	l.AddHook(&callerHook{})

	l.SetLevel(logrus.InfoLevel)
	if lvl, err := logrus.ParseLevel(strings.ToLower(os.Getenv(levelEnv))); err == nil {
		l.SetLevel(lvl)
	}
	return &Log{Logger: l}
}

func GetLogger() *Log {
	return globalLogger
}

func (l *Log) WithComponent(component string) *Entry {
	return l.entry().WithComponent(component)
}

func (l *Log) WithFields(fields Fields) *Entry {
	return l.entry().WithFields(fields)
}

func (l *Log) WithError(err error) *Entry {
	return l.entry().WithError(err)
}

// WithEnv records the current value of each named environment variable.
func (l *Log) WithEnv(envs ...string) *Entry {
	return l.entry().WithEnv(envs...)
}

func (l *Log) entry() *Entry {
	return &Entry{Entry: logrus.NewEntry(l.Logger)}
}

func (e *Entry) WithComponent(component string) *Entry {
	return &Entry{Entry: e.Entry.WithField("component", component)}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{Entry: e.Entry.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}

// WithEnv records the current value of each named environment variable.
func (e *Entry) WithEnv(envs ...string) *Entry {
	fields := make(Fields, len(envs))
	for _, name := range envs {
		fields[name] = os.Getenv(name)
	}
	return e.WithFields(fields)
}

// Configure applies the logging section of the config. LOG_LEVEL, when set,
// wins over level. Any output other than stderr or stdout is a file path,
// rotated by lumberjack when maxAge is positive.
func (l *Log) Configure(level string, format string, output string, maxAge int) error {
	if env := os.Getenv(levelEnv); env != "" {
		level = env
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level '%s'", level)
	}

	formatter := newFormatter(format)
	if formatter == nil {
		return fmt.Errorf("invalid log format '%s'", format)
	}

	w, err := openOutput(output, maxAge)
	if err != nil {
		return err
	}

	l.SetLevel(lvl)
	l.SetFormatter(formatter)
	l.SetOutput(w)
	l.SetReportCaller(true)
	return nil
}

func newFormatter(format string) logrus.Formatter {
	switch format {
	case "json", "":
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: shortCaller,
		}
	case "text":
		return &logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: shortCaller,
		}
	default:
		return nil
	}
}

// shortCaller reports file:line without the function name.
func shortCaller(f *runtime.Frame) (string, string) {
	return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}

func openOutput(output string, maxAge int) (io.Writer, error) {
	switch output {
	case "stderr", "":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	if maxAge > 0 {
		return &lumberjack.Logger{
			Filename: output,
			MaxAge:   maxAge,
			MaxSize:  rotateMaxSizeMB,
			Compress: true,
		}, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", output, err)
	}
	return f, nil
}

// LogPerformanceEntry logs how long operation took, plus any extra fields.
func LogPerformanceEntry(entry *Entry, component string, operation string, duration time.Duration, fields Fields) {
	merged := Fields{
		"operation":   operation,
		"duration_ms": float64(duration.Nanoseconds()) / 1e6,
	}
	for k, v := range fields {
		merged[k] = v
	}
	entry.WithComponent(component).WithFields(merged).Info("performance metric")
}

// LogDataFlowEntry logs a count of records moved from source to destination.
func LogDataFlowEntry(entry *Entry, source string, destination string, recordCount int, dataType string) {
	entry.WithFields(Fields{
		"flow_type":    "data_flow",
		"source":       source,
		"destination":  destination,
		"record_count": recordCount,
		"data_type":    dataType,
	}).Info("data flow metric")
}
