package executor

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// Logger is the structured logging interface every primitive in this
// module reports diagnostics through: Misuse counters, cancellation
// bookkeeping, and the rare "this should never happen" invariant
// violation. Modeled on eventloop's own package-level swappable logger
// (SetStructuredLogger / getGlobalLogger), but backed by logiface so a
// caller can plug in any real logiface writer.
type Logger interface {
	Log(category string, fields map[string]any, msg string)
	IsEnabled() bool
}

// noopLogger discards everything; it is the default so the primitives
// never pay for logging unless a caller opts in.
type noopLogger struct{}

func (noopLogger) Log(string, map[string]any, string) {}
func (noopLogger) IsEnabled() bool                    { return false }

var globalLogger struct {
	sync.RWMutex
	logger Logger
}

func init() {
	globalLogger.logger = noopLogger{}
}

// SetLogger installs the package-level logger. Primitives read it once, at
// construction; a Loop uses it unless built with the WithLogger option.
func SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	globalLogger.Lock()
	globalLogger.logger = l
	globalLogger.Unlock()
}

// GetLogger returns the current package-level logger.
func GetLogger() Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}

// logEvent is the minimal logiface.Event implementation backing
// NewLogifaceLogger. It accumulates fields into a map and writes a single
// flat line; a caller wanting a richer backend (zerolog, stumpy, slog,
// ...) supplies their own logiface.Writer instead of using this one.
type logEvent struct {
	logiface.UnimplementedEvent
	level  logiface.Level
	fields map[string]any
	msg    string
	err    error
}

func (e *logEvent) Level() logiface.Level { return e.level }

func (e *logEvent) AddField(key string, val any) {
	if e.fields == nil {
		e.fields = make(map[string]any, 4)
	}
	e.fields[key] = val
}

func (e *logEvent) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

func (e *logEvent) AddError(err error) bool {
	e.err = err
	return true
}

type logEventFactory struct{}

func (logEventFactory) NewEvent(level logiface.Level) *logEvent {
	return &logEvent{level: level}
}

// lineWriter is a minimal logiface.Writer writing one line per event to an
// io.Writer, in the low-overhead style of eventloop's DefaultLogger.
type lineWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *lineWriter) Write(e *logEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.out, "%s level=%s msg=%q fields=%v err=%v\n",
		time.Now().UTC().Format(time.RFC3339Nano), e.level, e.msg, e.fields, e.err)
	return err
}

// logifaceLogger adapts a logiface.Logger[*logEvent] to this package's
// Logger interface.
type logifaceLogger struct {
	enabled atomic.Bool
	lg      *logiface.Logger[*logEvent]
}

// NewLogifaceLogger builds a Logger backed by logiface, writing flat lines
// to out (os.Stderr if nil). Pass a custom writer built from any logiface
// backend (e.g. one of the ecosystem's zerolog/stumpy/slog adapters) by
// calling logiface.New directly and wrapping the result in a type that
// implements Logger instead, if a richer sink is desired.
func NewLogifaceLogger(level logiface.Level, out io.Writer) Logger {
	if out == nil {
		out = os.Stderr
	}
	lg := logiface.New[*logEvent](
		logiface.WithLevel[*logEvent](level),
		logiface.WithEventFactory[*logEvent](logEventFactory{}),
		logiface.WithWriter[*logEvent](&lineWriter{out: out}),
	)
	l := &logifaceLogger{lg: lg}
	l.enabled.Store(level.Enabled())
	return l
}

func (l *logifaceLogger) IsEnabled() bool { return l.enabled.Load() }

func (l *logifaceLogger) Log(category string, fields map[string]any, msg string) {
	b := l.lg.Notice()
	b = b.Str("category", category)
	for k, v := range fields {
		b = b.Interface(k, v)
	}
	b.Log(msg)
}
