package join

import "fmt"

// Code is a stable, machine-checkable failure class.
type Code string

const (
	CodeInputLengthMismatch Code = "INPUT_LENGTH_MISMATCH"
	CodeTokenMismatch       Code = "TOKEN_MISMATCH"
	CodeInvalidAddress      Code = "INVALID_ADDRESS"
	CodeInvalidAmount       Code = "INVALID_AMOUNT"
	CodeMathError           Code = "MATHEMATICAL_ERROR"
)

// Error carries a stable code plus a human-readable message. Validation
// errors are raised before any arithmetic runs; math errors are fatal for
// the call and never downgraded to a default value.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is matches by code so callers can test with errors.Is against sentinels.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Code == e.Code
}

func newError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is checks.
var (
	ErrInputLengthMismatch = &Error{Code: CodeInputLengthMismatch, Message: "input length mismatch"}
	ErrTokenMismatch       = &Error{Code: CodeTokenMismatch, Message: "token list mismatch"}
	ErrInvalidAddress      = &Error{Code: CodeInvalidAddress, Message: "invalid address"}
	ErrInvalidAmount       = &Error{Code: CodeInvalidAmount, Message: "invalid amount"}
	ErrMath                = &Error{Code: CodeMathError, Message: "mathematical error"}
)
