package playoff

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies engine failures.
type Kind int

const (
	KindInvalidSeedingInput Kind = iota + 1
	KindInvalidBracket
	KindDuplicateResult
	KindUnknownMatchup
	KindStateCorruption
	KindSchedulingFailure
)

// Severity describes how a failure should be presented to users.
type Severity int

const (
	// SeverityHardStop failures halt the operation and are shown with full diagnostic context.
	SeverityHardStop Severity = iota + 1
	// SeveritySoftWarning failures are eligible for retry or silent ignore.
	SeveritySoftWarning
)

// Recovery is the action a caller is expected to take after a failure.
type Recovery int

const (
	RecoveryAbort Recovery = iota + 1
	RecoveryIgnore
	RecoveryReload
	RecoveryRetry
)

func (k Kind) String() string {
	switch k {
	case KindInvalidSeedingInput:
		return "invalid_seeding_input"
	case KindInvalidBracket:
		return "invalid_bracket"
	case KindDuplicateResult:
		return "duplicate_result"
	case KindUnknownMatchup:
		return "unknown_matchup"
	case KindStateCorruption:
		return "tournament_state_corruption"
	case KindSchedulingFailure:
		return "scheduling_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Severity returns the presentation class for the kind.
func (k Kind) Severity() Severity {
	switch k {
	case KindStateCorruption, KindSchedulingFailure:
		return SeveritySoftWarning
	default:
		return SeverityHardStop
	}
}

// Recovery returns the expected caller reaction for the kind.
func (k Kind) Recovery() Recovery {
	switch k {
	case KindUnknownMatchup:
		return RecoveryIgnore
	case KindStateCorruption:
		return RecoveryReload
	case KindSchedulingFailure:
		return RecoveryRetry
	default:
		return RecoveryAbort
	}
}

// Retryable reports whether repeating the same call may succeed.
func (k Kind) Retryable() bool {
	return k.Recovery() == RecoveryRetry
}

func (s Severity) String() string {
	switch s {
	case SeverityHardStop:
		return "hard_stop"
	case SeveritySoftWarning:
		return "soft_warning"
	default:
		return "unknown"
	}
}

func (r Recovery) String() string {
	switch r {
	case RecoveryAbort:
		return "abort"
	case RecoveryIgnore:
		return "ignore"
	case RecoveryReload:
		return "reload"
	case RecoveryRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every engine component.
type Error struct {
	Kind      Kind
	Message   string
	Round     *Round
	MatchupID string
	Teams     []TeamID
	Expected  int
	Actual    int
	Err       error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidSeedingInput = &Error{Kind: KindInvalidSeedingInput}
	ErrInvalidBracket      = &Error{Kind: KindInvalidBracket}
	ErrDuplicateResult     = &Error{Kind: KindDuplicateResult}
	ErrUnknownMatchup      = &Error{Kind: KindUnknownMatchup}
	ErrStateCorruption     = &Error{Kind: KindStateCorruption}
	ErrSchedulingFailure   = &Error{Kind: KindSchedulingFailure}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	var details []string
	if e.Round != nil {
		details = append(details, "round="+e.Round.String())
	}
	if e.MatchupID != "" {
		details = append(details, "matchup="+e.MatchupID)
	}
	if len(e.Teams) > 0 {
		ids := make([]string, len(e.Teams))
		for i, t := range e.Teams {
			ids[i] = string(t)
		}
		details = append(details, "teams="+strings.Join(ids, ","))
	}
	if e.Expected != 0 || e.Actual != 0 {
		details = append(details, fmt.Sprintf("expected=%d actual=%d", e.Expected, e.Actual))
	}
	if len(details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(details, " "))
		b.WriteString(")")
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches sentinel errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Severity is shorthand for e.Kind.Severity().
func (e *Error) Severity() Severity {
	return e.Kind.Severity()
}

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InRound attaches the round to the error.
func (e *Error) InRound(r Round) *Error {
	e.Round = &r
	return e
}

// WithMatchup attaches a matchup id to the error.
func (e *Error) WithMatchup(id string) *Error {
	e.MatchupID = id
	return e
}

// WithTeams attaches team ids to the error.
func (e *Error) WithTeams(teams ...TeamID) *Error {
	e.Teams = append(e.Teams, teams...)
	return e
}

// WithCounts attaches expected and actual counts to the error.
func (e *Error) WithCounts(expected, actual int) *Error {
	e.Expected = expected
	e.Actual = actual
	return e
}

// Wrap sets the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// KindOf returns the kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
