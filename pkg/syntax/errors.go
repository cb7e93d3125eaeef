package syntax

import (
	"fmt"

	"github.com/leapstack-labs/rustle/pkg/token"
)

// ParseError represents a recoverable syntax error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrExpectedItem        = "expected an item, found %s"
	ErrExpectedName        = "expected a name after %s"
	ErrExpectedDelimiter   = "expected a delimited token tree, found %s"
	ErrUnclosedDelimiter   = "unclosed delimiter %s"
	ErrMismatchedDelim     = "mismatched closing delimiter %s, expected %s"
	ErrUnclosedBlock       = "unclosed item block"
	ErrExpectedSemicolon   = "expected ';' after %s"
	ErrUnexpectedEndOfFile = "unexpected end of file"
)
