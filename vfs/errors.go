package vfs

import "fmt"

// Code is a status code returned by VFS operations. Each Code names one of
// SQLite's documented result codes, and String returns that SQLite name;
// the numeric values are this package's own enumeration, not SQLite's.
type Code int

const (
	OK Code = iota
	IOErrRead
	IOErrWrite
	IOErrShortRead
	IOErrDelete
	IOErrDeleteNoent
	IOErrTruncate
	IOErrFsync
	IOErrLock
	IOErrUnlock
	IOErrCheckReservedLock
	IOErrFileControl
	CantOpen
	Corrupt
	Busy
	NoMem
	Protocol
	NotFound
	Misuse
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case IOErrRead:
		return "IOERR_READ"
	case IOErrWrite:
		return "IOERR_WRITE"
	case IOErrShortRead:
		return "IOERR_SHORT_READ"
	case IOErrDelete:
		return "IOERR_DELETE"
	case IOErrDeleteNoent:
		return "IOERR_DELETE_NOENT"
	case IOErrTruncate:
		return "IOERR_TRUNCATE"
	case IOErrFsync:
		return "IOERR_FSYNC"
	case IOErrLock:
		return "IOERR_LOCK"
	case IOErrUnlock:
		return "IOERR_UNLOCK"
	case IOErrCheckReservedLock:
		return "IOERR_CHECKRESERVEDLOCK"
	case IOErrFileControl:
		return "IOERR_FILE_CONTROL"
	case CantOpen:
		return "CANTOPEN"
	case Corrupt:
		return "CORRUPT"
	case Busy:
		return "BUSY"
	case NoMem:
		return "NOMEM"
	case Protocol:
		return "PROTOCOL"
	case NotFound:
		return "NOTFOUND"
	case Misuse:
		return "MISUSE"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Errno is a POSIX-style errno value, surfaced to callers through
// Root.GetLastError the way SQLite's xGetLastError expects.
type Errno int

const (
	ErrnoNone   Errno = 0
	ErrnoENOENT Errno = 2
	ErrnoEEXIST Errno = 17
	ErrnoENFILE Errno = 23
	ErrnoEBUSY  Errno = 16
)

// Error is the error type returned by every fallible vfs operation. It
// carries a Code (for SQLite-style dispatch) and, when relevant, an Errno
// (for xGetLastError) plus a human-readable message for the logger
// side-channel.
type Error struct {
	Code    Code
	Errno   Errno
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// newErr builds an *Error with no errno attached.
func newErr(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// newErrno builds an *Error that also records a POSIX errno, for failure
// paths that feed Root.GetLastError.
func newErrno(code Code, errno Errno, format string, args ...any) *Error {
	return &Error{Code: code, Errno: errno, Message: fmt.Sprintf(format, args...)}
}
