package mbe

import (
	"errors"
	"fmt"
)

// ErrNoMatchingRule is returned by Expand when no rule matches the input.
var ErrNoMatchingRule = errors.New("no rule matches the macro input")

// ParseError reports a malformed macro definition or an unconvertible
// token tree.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("macro definition error: %s", e.Message)
}

// ExpandError reports a failure while transcribing a matched rule.
type ExpandError struct {
	Message string
}

func (e *ExpandError) Error() string {
	return fmt.Sprintf("macro expansion error: %s", e.Message)
}

func parseErrorf(format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

func expandErrorf(format string, args ...any) error {
	return &ExpandError{Message: fmt.Sprintf(format, args...)}
}
