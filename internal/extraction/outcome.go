package extraction

import "startask/internal/domain"

// OutcomeKind discriminates the three-way result of a gateway call. The
// processing cycle switches exhaustively on it: success commits a task,
// fallback routes the item to human review, fatal aborts the whole cycle.
type OutcomeKind int

// Possible outcome kinds
const (
	KindSuccess OutcomeKind = iota
	KindFallbackRequired
	KindFatal
)

// String returns the kind's name for logging.
func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFallbackRequired:
		return "fallback_required"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one gateway extraction. Exactly one of
// Result, Reason, or Err is meaningful, selected by Kind.
type Outcome struct {
	Kind OutcomeKind

	// Result is set when Kind == KindSuccess.
	Result *domain.ExtractionResult

	// Reason is set when Kind == KindFallbackRequired. Fallback is a
	// routing decision, not an error; the reason is recorded on the
	// review, never in the error log.
	Reason string

	// Err is set when Kind == KindFatal.
	Err error
}

// Success constructs a success outcome.
func Success(result *domain.ExtractionResult) Outcome {
	return Outcome{Kind: KindSuccess, Result: result}
}

// Fallback constructs a fallback-required outcome.
func Fallback(reason string) Outcome {
	return Outcome{Kind: KindFallbackRequired, Reason: reason}
}

// Fatal constructs a fatal outcome.
func Fatal(err error) Outcome {
	return Outcome{Kind: KindFatal, Err: err}
}
