package webclient

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a fetch did not produce markup.
type ErrorKind int

const (
	// InvalidInput is a caller bug (bad URL or option) detected before any I/O.
	InvalidInput ErrorKind = iota + 1
	// NetworkError covers connection failures, DNS errors and read timeouts.
	NetworkError
	// HttpStatus is a non-success status after the retry budget was spent.
	HttpStatus
	// RenderTimeout means the page did not become ready within the timeout.
	RenderTimeout
	// DriverError is a browser launch, crash or protocol failure.
	DriverError
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case NetworkError:
		return "NetworkError"
	case HttpStatus:
		return "HttpStatus"
	case RenderTimeout:
		return "RenderTimeout"
	case DriverError:
		return "DriverError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// FetchError is the error form of a classified failure. Constructors return
// it for InvalidInput; Result.Err returns it for every other kind.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Msg        string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf reports the ErrorKind carried by err, or 0 if err is not a FetchError.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// IsInvalidInput is a convenience for KindOf(err) == InvalidInput.
func IsInvalidInput(err error) bool {
	return KindOf(err) == InvalidInput
}

func invalidInput(cause error, format string, args ...any) *FetchError {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg = msg + ": " + cause.Error()
	}
	return &FetchError{Kind: InvalidInput, Msg: msg, Err: cause}
}
