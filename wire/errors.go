package wire

import "fmt"

// Code classifies why a wire codec operation failed, mirroring dqlite's
// DQLITE_PROTO/PARSE/OVERFLOW/NOMEM result codes so a caller can dispatch
// on it without string matching.
type Code int

const (
	Proto Code = iota + 1
	Parse
	Overflow
	NoMem
)

func (c Code) String() string {
	switch c {
	case Proto:
		return "PROTO"
	case Parse:
		return "PARSE"
	case Overflow:
		return "OVERFLOW"
	case NoMem:
		return "NOMEM"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error is the error type returned by every fallible wire operation.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newErr(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
