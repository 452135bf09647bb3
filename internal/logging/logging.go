// Package logging provides the structured loggers shared by every
// component of the eNB. It plays the role the teacher's textcolor.go /
// log.go pair played for Dire Wolf, but backed by charmbracelet/log
// instead of ANSI colour codes around dw_printf.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// Severity mirrors the teacher's dw_color_e levels, renamed to what they
// actually mean rather than the colour used to render them.
type Severity = log.Level

const (
	SeverityDebug Severity = log.DebugLevel
	SeverityInfo  Severity = log.InfoLevel
	SeverityWarn  Severity = log.WarnLevel
	SeverityError Severity = log.ErrorLevel
	SeverityFatal Severity = log.FatalLevel
)

var root = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05.000",
})

// For returns a component-scoped logger, e.g. logging.For("sfworker").
func For(component string) *log.Logger {
	return root.With("component", component)
}

// SetLevel adjusts the verbosity of every logger returned by For, matching
// the effect of the config file's log.all_level keyword.
func SetLevel(s Severity) {
	root.SetLevel(s)
}

// ParseLevel maps the config file's textual level name the way the
// teacher's config.go maps textual keywords to enums.
func ParseLevel(name string) (Severity, error) {
	return log.ParseLevel(name)
}
