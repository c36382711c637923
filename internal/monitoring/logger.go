// Package monitoring owns the process-wide diagnostic logger.
//
// Library packages never build their own loggers; they ask for a
// component-scoped child with Named and emit leveled zerolog events.
// Tests or binaries redirect or mute output with Init, SetLogger or Mute.
package monitoring

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the root logger.
type Options struct {
	Level  string    // trace, debug, info, warn, error, fatal, panic
	Format string    // "console" or "json"
	Writer io.Writer // defaults to os.Stderr
}

var root atomic.Pointer[zerolog.Logger]

// Logf is the package-level printf-style hook. It defaults to an info-level
// event on the root logger but may be replaced by SetLogf.
var Logf func(format string, v ...interface{}) = defaultLogf

func defaultLogf(format string, v ...interface{}) {
	Logger().Info().Msg(fmt.Sprintf(format, v...))
}

// SetLogf replaces the printf hook. Passing nil will set a no-op hook.
func SetLogf(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Init builds the root logger from opt and installs it. Unlike a one-shot
// initialiser it may be called again to reconfigure output.
func Init(opt Options) {
	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.ToLower(opt.Format) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: opt.Writer != nil}
	}
	l := zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp().Logger()
	root.Store(&l)
}

// Logger returns the root logger, installing a console logger at info level
// on first use.
func Logger() *zerolog.Logger {
	if l := root.Load(); l != nil {
		return l
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel).With().Timestamp().Logger()
	root.CompareAndSwap(nil, &l)
	return root.Load()
}

// SetLogger replaces the root logger.
func SetLogger(l zerolog.Logger) {
	root.Store(&l)
}

// Mute discards all output from the root logger and the printf hook.
func Mute() {
	SetLogger(zerolog.Nop())
	SetLogf(nil)
}

// Named returns a child of the root logger tagged with a component field.
func Named(component string) *zerolog.Logger {
	if component == "" {
		return Logger()
	}
	l := Logger().With().Str("component", component).Logger()
	return &l
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}
