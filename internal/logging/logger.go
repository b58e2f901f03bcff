// Package logging builds the leveled logger shared by the client.  It wraps
// gommon's logger, the same one echo exposes through c.Logger().
package logging

import (
	"io"
	"strings"

	"github.com/labstack/gommon/log"
)

// Logger is the subset of a leveled logger the client packages use.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// New returns a gommon logger writing to w at the named level.  Unknown
// level names fall back to info.
func New(prefix, level string, w io.Writer) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(w)
	l.SetHeader("${time_rfc3339} ${level} ${prefix}")
	l.SetLevel(ParseLevel(level))
	return l
}

// Discard returns a logger that drops everything; tests use it.
func Discard() *log.Logger {
	l := log.New("-")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

// ParseLevel maps debug|info|warn|error|off to a gommon level.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off", "none":
		return log.OFF
	default:
		return log.INFO
	}
}
