package frontend

import (
	"fmt"
	"strings"
)

// ErrCode classifies a diagnostic raised by the scanner or parser.
type ErrCode int

const (
	// LexErr indicates the scanner produced an error token.
	LexErr ErrCode = iota
	// ParseErr indicates the parser could not make sense of a statement
	// and resumed at the next top-level statement.
	ParseErr
)

// Error is a single diagnostic with an optional source Location.
type Error struct {
	Code     ErrCode
	Location *Location
	Message  string
}

// NewError returns a new Error.
func NewError(code ErrCode, loc *Location, format string, args ...interface{}) *Error {
	return &Error{Code: code, Location: loc, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Location == nil {
		return e.Message
	}
	return fmt.Sprintf("%v: %v", e.Location, e.Message)
}

// Errors is a collected batch of diagnostics from parsing one file.
type Errors []*Error

func (e Errors) Error() string {
	switch len(e) {
	case 0:
		return "no error(s)"
	case 1:
		return fmt.Sprintf("1 error occurred: %v", e[0].Error())
	}
	parts := make([]string, len(e))
	for i, err := range e {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred:\n%s", len(e), strings.Join(parts, "\n"))
}
