package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is the key HTTP middleware stores the request id under.
const RequestIDKey = "request_id"

// Logger writes structured entries tagged with the service name, hostname,
// action and request id.
type Logger struct {
	service  string
	hostname string
	backend  *logrus.Logger
}

// Options tunes the logger backend. Zero values mean info level, JSON, stdout.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New creates a logger for the given service with default options.
func New(service string) *Logger {
	l, _ := NewWithOptions(service, Options{})
	return l
}

// NewWithOptions creates a logger for the given service.
func NewWithOptions(service string, opts Options) (*Logger, error) {
	hostname, _ := os.Hostname()

	backend := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}
	backend.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "", "json":
		backend.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "text":
		backend.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", opts.Format)
	}

	if opts.Output != nil {
		backend.SetOutput(opts.Output)
	} else {
		backend.SetOutput(os.Stdout)
	}

	return &Logger{
		service:  service,
		hostname: hostname,
		backend:  backend,
	}, nil
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	l, _ := NewWithOptions("test", Options{Output: io.Discard})
	return l
}

// GenerateRequestID returns a fresh request id.
func GenerateRequestID() string {
	return uuid.NewString()
}

func (l *Logger) entry(action, requestID string, fields map[string]interface{}) *logrus.Entry {
	e := l.backend.WithFields(logrus.Fields{
		"service":    l.service,
		"hostname":   l.hostname,
		"action":     action,
		"request_id": requestID,
	})
	if len(fields) > 0 {
		e = e.WithFields(logrus.Fields(fields))
	}
	return e
}

func (l *Logger) Info(action, message, requestID string, fields map[string]interface{}) {
	l.entry(action, requestID, fields).Info(message)
}

func (l *Logger) Debug(action, message, requestID string, fields map[string]interface{}) {
	l.entry(action, requestID, fields).Debug(message)
}

func (l *Logger) Warn(action, message, requestID string, fields map[string]interface{}) {
	l.entry(action, requestID, fields).Warn(message)
}

// Error logs at error level. A nil err is allowed; the stack is only attached
// at debug level to keep production entries small.
func (l *Logger) Error(action, message, requestID string, err error, fields map[string]interface{}) {
	e := l.entry(action, requestID, fields)
	if err != nil {
		e = e.WithField("error", err.Error())
		if l.backend.IsLevelEnabled(logrus.DebugLevel) {
			e = e.WithField("stack", string(debug.Stack()))
		}
	}
	e.Error(message)
}

// Service returns the service name this logger was created for.
func (l *Logger) Service() string {
	return l.service
}
