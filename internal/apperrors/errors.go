// =============================================================================
// Grab Sheet Builder - Error Taxonomy
// =============================================================================
//
// Every fatal failure in a run is an *Error carrying one Kind. Callers test
// the kind with errors.Is against the sentinel values below:
//
//   errors.Is(err, apperrors.ErrSchema)
//
// The underlying cause (an os, excelize or yaml error) stays reachable through
// Unwrap.
//
// =============================================================================

package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an Error.
type Kind string

const (
	KindConfig        Kind = "CONFIG"
	KindInputNotFound Kind = "INPUT_NOT_FOUND"
	KindSchema        Kind = "SCHEMA"
	KindDataType      Kind = "DATA_TYPE"
	KindOutput        Kind = "OUTPUT"
)

// Sentinels matched by errors.Is.
var (
	ErrConfig        = errors.New("configuration error")
	ErrInputNotFound = errors.New("input not found")
	ErrSchema        = errors.New("schema error")
	ErrDataType      = errors.New("data type error")
	ErrOutput        = errors.New("output error")
)

var sentinels = map[Kind]error{
	KindConfig:        ErrConfig,
	KindInputNotFound: ErrInputNotFound,
	KindSchema:        ErrSchema,
	KindDataType:      ErrDataType,
	KindOutput:        ErrOutput,
}

// Error is an application error with a kind and optional context.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%q", k, e.Context[k])
		}
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// With adds a context field and returns the same error.
func (e *Error) With(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// New creates an error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Config reports a missing or unreadable configuration, or absent keys.
func Config(message string, cause error) *Error {
	return New(KindConfig, message, cause)
}

// InputNotFound reports an input path that is not a readable tabular file.
func InputNotFound(path string, cause error) *Error {
	return New(KindInputNotFound, "input is not a readable tabular file", cause).With("path", path)
}

// Schema reports missing required columns or other structural problems.
func Schema(message string, cause error) *Error {
	return New(KindSchema, message, cause)
}

// MissingColumns is the Schema error for absent required columns.
func MissingColumns(path string, missing []string) *Error {
	return Schema("missing required columns: "+strings.Join(missing, ", "), nil).With("path", path)
}

// DataType reports a non-numeric cell in a column that is summed.
func DataType(column, route, value string) *Error {
	return New(KindDataType, "non-numeric value in summed column", nil).
		With("column", column).
		With("route", route).
		With("value", value)
}

// Output reports a failure building or persisting the output workbook.
func Output(message string, cause error) *Error {
	return New(KindOutput, message, cause)
}

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
