package kvs

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message. Two errors are considered equal by errors.Is if
// their codes match, so callers can test against the sentinels below.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("kvs: %s", e.Code)
	}
	return fmt.Sprintf("kvs: %s: %s", e.Code, e.Msg)
}

// Is reports whether target is a *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

func errorf(code RetCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the first *Error in err's chain. nil maps to
// RetCSuccess and errors without a *Error map to RetCError.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCError
}

var (
	ErrKeyDoesNotExist = NewError(RetCKeyDoesNotExist, "")
	ErrNoKeyInRange    = NewError(RetCNoKeyInRange, "")
	ErrNoNextKey       = NewError(RetCNoNextKey, "")
	ErrConfig          = NewError(RetCConfigError, "")
	ErrUnsupported     = NewError(RetCUnsupportedOperation, "")
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Operation succeeded.
	RetCError                               // 1: Generic failure (invalid handle, oversized input, allocation failure).
	RetCKeyDoesNotExist                     // 2: No live value for the key.
	RetCFound                               // 3: FindOrCreate found an existing key.
	RetCNoKeyInRange                        // 4: Scan matched no key.
	RetCNoNextKey                           // 5: Iterator is exhausted.
	RetCConfigError                         // 6: Store could not be constructed.
	RetCUnsupportedOperation                // 7: Operation is not supported by the index variant.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCError:
		return "Error"
	case RetCKeyDoesNotExist:
		return "KeyDoesNotExist"
	case RetCFound:
		return "Found"
	case RetCNoKeyInRange:
		return "NoKeyInRange"
	case RetCNoNextKey:
		return "NoNextKey"
	case RetCConfigError:
		return "ConfigError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	default:
		return "Unknown"
	}
}
