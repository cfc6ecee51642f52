// Package apperr defines the sentinel error kinds the decomposition engine
// can return, modeled on the severity/message split the teacher's
// refactoring.Log entries use, but expressed as ordinary Go errors since
// these conditions abort a run rather than annotate a successful one.
package apperr

import "fmt"

// Kind classifies an error returned by the decompose package.
type Kind int

const (
	// KindSourceNotAvailable means the function's source text could not
	// be recovered for metadata scanning (e.g. a synthetic or generated
	// AST with no backing file).
	KindSourceNotAvailable Kind = iota
	// KindConfigNotAvailable means a policy thresholds file was named but
	// could not be read or parsed.
	KindConfigNotAvailable
	// KindNestedFunctionRejected means a function body contains a nested
	// function definition, which the CFG builder does not support.
	KindNestedFunctionRejected
)

func (k Kind) String() string {
	switch k {
	case KindSourceNotAvailable:
		return "SourceNotAvailable"
	case KindConfigNotAvailable:
		return "ConfigNotAvailable"
	case KindNestedFunctionRejected:
		return "NestedFunctionRejected"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every exported apperr constructor
// returns. Line is 0 when the error has no associated source position.
type Error struct {
	Kind    Kind
	Line    int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Message, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is an *Error with the same Kind, so callers can
// use errors.Is(err, apperr.SourceNotAvailable("")) style checks.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// SourceNotAvailable reports that a function's source text is missing.
func SourceNotAvailable(name string) error {
	return &Error{Kind: KindSourceNotAvailable, Message: "no source text available for " + name}
}

// ConfigNotAvailable reports that no usable policy configuration was found.
func ConfigNotAvailable(path string) error {
	msg := "no configuration available"
	if path != "" {
		msg += ": " + path
	}
	return &Error{Kind: KindConfigNotAvailable, Message: msg}
}

// NestedFunctionRejected reports a nested function definition at line.
func NestedFunctionRejected(line int) error {
	return &Error{
		Kind:    KindNestedFunctionRejected,
		Line:    line,
		Message: "nested function definitions are not supported",
	}
}
