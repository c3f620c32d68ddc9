// Package harplog wraps go-kit/log with the small fixed vocabulary
// harp's ambient components log against: ingestion, pipeline
// execution, and cache activity, each at a leveled severity.
//
// Grounded on grafana-tempo's direct use of go-kit/log and
// go-kit/log/level: a base logfmt logger wrapped in level.NewFilter,
// with call sites doing level.Info(logger).Log("msg", ..., k, v, ...)
// rather than a fprintf-style API.
package harplog

import (
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New wraps the base logger w (typically a logfmt logger over os.Stdout
// or os.Stderr), filtered to levelName ("debug", "info", "warn", "error";
// anything else defaults to "info"), with a timestamp and caller field
// attached to every line.
func New(w log.Logger, levelName string) log.Logger {
	l := log.With(w, "ts", log.DefaultTimestampUTC, "caller", log.Caller(5))
	return level.NewFilter(l, levelOption(levelName))
}

// NewStderr is the common case: a logfmt logger over os.Stderr.
func NewStderr(levelName string) log.Logger {
	return New(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), levelName)
}

func levelOption(name string) level.Option {
	switch name {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// Discard is a logger that drops every line, used as the zero-value
// default so components never need a nil check before logging.
var Discard log.Logger = log.NewNopLogger()

// WithComponent tags every line logger emits with a component field,
// the way harp's ambient packages (ingest, pipeline, cache) identify
// themselves in shared log output.
func WithComponent(logger log.Logger, component string) log.Logger {
	return log.With(logger, "component", component)
}
