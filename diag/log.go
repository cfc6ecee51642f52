// Package diag collects informational messages, warnings, and errors
// produced while analyzing a function, for display to the user alongside
// (or instead of) suggestions. Modeled directly on the teacher's
// refactoring.Log/Entry/Severity trio, trimmed to drop the AST-position
// association helpers this engine has no analog for (positions here are
// always a plain source line).
package diag

import (
	"bytes"
	"fmt"
)

// Severity indicates whether a log entry is informational, a warning, or
// an error.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return ""
	}
}

// Entry is a single log entry. Line is 0 when the entry has no associated
// source position.
type Entry struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Function string   `json:"function,omitempty"`
	Line     int      `json:"line,omitempty"`
}

func (e *Entry) String() string {
	var b bytes.Buffer
	if e.Severity != Info {
		b.WriteString(e.Severity.String())
		b.WriteString(": ")
	}
	if e.Function != "" {
		fmt.Fprintf(&b, "%s", e.Function)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Log accumulates Entries in the order they were reported.
type Log struct {
	Entries []*Entry `json:"entries"`
}

// NewLog returns an empty Log.
func NewLog() *Log {
	return &Log{Entries: []*Entry{}}
}

// Infof logs an informational message.
func (log *Log) Infof(function string, line int, format string, v ...interface{}) {
	log.add(Info, function, line, format, v...)
}

// Warnf logs a warning.
func (log *Log) Warnf(function string, line int, format string, v ...interface{}) {
	log.add(Warning, function, line, format, v...)
}

// Errorf logs an error.
func (log *Log) Errorf(function string, line int, format string, v ...interface{}) {
	log.add(Error, function, line, format, v...)
}

func (log *Log) add(sev Severity, function string, line int, format string, v ...interface{}) {
	log.Entries = append(log.Entries, &Entry{
		Severity: sev,
		Message:  fmt.Sprintf(format, v...),
		Function: function,
		Line:     line,
	})
}

// HasErrors reports whether any Error-severity entry was logged.
func (log *Log) HasErrors() bool {
	for _, e := range log.Entries {
		if e.Severity == Error {
			return true
		}
	}
	return false
}

func (log *Log) String() string {
	var b bytes.Buffer
	for _, e := range log.Entries {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}
