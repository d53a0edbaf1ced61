package ticket

import "fmt"

// Code discriminates the single TicketError kind spec.md §7 mandates for
// every failure surfaced by this package. It deliberately mirrors the
// teacher's consensus/errors.go ErrorCode + struct-with-Error() shape
// rather than a tree of distinct Go error types.
type Code string

const (
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeTooLong           Code = "TOO_LONG"
	CodeInvalidChar       Code = "INVALID_CHAR"
	CodeWrongVersion      Code = "WRONG_VERSION"
	CodeUnknownSpec       Code = "UNKNOWN_SPEC"
	CodeSequenceExhausted Code = "SEQUENCE_EXHAUSTED"
	CodeBadHash           Code = "BAD_HASH"
	CodeMalformed         Code = "MALFORMED"
)

// Error is the only error type this package returns. Msg never includes
// secret field values, keys, or ticket strings (spec.md §7: "Secret data
// and keys MUST NOT appear in any error payload").
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func newError(code Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

func newErrorf(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}
