package hir

import "fmt"

// ExpansionErrorKind classifies recoverable expansion failures.
type ExpansionErrorKind int

// Expansion failure kinds.
const (
	// MissingArgument: the call or definition has no token tree, or it could
	// not be converted.
	MissingArgument ExpansionErrorKind = iota + 1
	// MissingDefinition: the definition resolver produced no rule set.
	MissingDefinition
	// MalformedDefinition: the definition's rule set does not parse.
	MalformedDefinition
	// ExpansionMismatch: no rule matched, or transcription failed.
	ExpansionMismatch
	// TokenLimitExceeded: the expansion produced more than TokenLimit trees.
	TokenLimitExceeded
	// DepthLimitExceeded: the call sits too deep in a chain of expansions.
	DepthLimitExceeded
	// BudgetExceeded: the crate already expanded its maximum number of
	// macro files.
	BudgetExceeded
)

func (k ExpansionErrorKind) String() string {
	switch k {
	case MissingArgument:
		return "missing argument"
	case MissingDefinition:
		return "missing definition"
	case MalformedDefinition:
		return "malformed definition"
	case ExpansionMismatch:
		return "expansion mismatch"
	case TokenLimitExceeded:
		return "token limit exceeded"
	case DepthLimitExceeded:
		return "depth limit exceeded"
	case BudgetExceeded:
		return "budget exceeded"
	default:
		return fmt.Sprintf("ExpansionErrorKind(%d)", int(k))
	}
}

// ExpansionError reports why a macro file has no contents. Count carries the
// offending token count, depth or file budget for the limit kinds.
type ExpansionError struct {
	Kind  ExpansionErrorKind
	Count int
	Err   error
}

func (e *ExpansionError) Error() string {
	var msg string
	switch e.Kind {
	case MissingArgument:
		msg = "failed to convert macro argument to a token tree"
	case MissingDefinition:
		msg = "failed to find macro definition"
	case MalformedDefinition:
		msg = "failed to parse macro definition"
	case ExpansionMismatch:
		msg = "failed to expand macro"
	case TokenLimitExceeded:
		msg = fmt.Sprintf("total tokens count exceed limit: count = %d", e.Count)
	case DepthLimitExceeded:
		msg = fmt.Sprintf("macro expansion depth limit exceeded: depth = %d", e.Count)
	case BudgetExceeded:
		msg = fmt.Sprintf("macro expansion budget exceeded: files = %d", e.Count)
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ExpansionError) Unwrap() error {
	return e.Err
}

// MacroOriginError is the panic value of AsOriginalFile when called on a
// macro expansion. It signals a programming error in the caller.
type MacroOriginError struct {
	File HirFileID
}

func (e *MacroOriginError) Error() string {
	return fmt.Sprintf("macro generated file: %s", e.File)
}
