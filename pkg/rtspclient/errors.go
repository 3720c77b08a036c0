package rtspclient

import (
	"fmt"

	"github.com/Arjentix/Media-Server/pkg/base"
)

// ErrTransport is returned in case of a network failure.
type ErrTransport struct {
	Err error
}

// Error implements the error interface.
func (e ErrTransport) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e ErrTransport) Unwrap() error {
	return e.Err
}

// ErrWrongState is returned in case of a wrong client state.
type ErrWrongState struct {
	AllowedList []fmt.Stringer
	State       fmt.Stringer
}

// Error implements the error interface.
func (e ErrWrongState) Error() string {
	return fmt.Sprintf("must be in state %v, while is in state %v",
		e.AllowedList, e.State)
}

// ErrWrongStatusCode is returned in case of a wrong status code.
type ErrWrongStatusCode struct {
	Code    base.StatusCode
	Message string
}

// Error implements the error interface.
func (e ErrWrongStatusCode) Error() string {
	return fmt.Sprintf("wrong status code: %d (%s)", e.Code, e.Message)
}

// ErrMethodNotSupported is returned when the server does not
// advertise a required method.
type ErrMethodNotSupported struct {
	Method base.Method
}

// Error implements the error interface.
func (e ErrMethodNotSupported) Error() string {
	return fmt.Sprintf("method %s is not supported by the server", e.Method)
}

// ErrSessionHeaderMissing is returned when a SETUP response
// carries no session header.
type ErrSessionHeaderMissing struct{}

// Error implements the error interface.
func (e ErrSessionHeaderMissing) Error() string {
	return "session header is missing"
}

// ErrTransportHeaderInvalid is returned in case of an invalid
// transport header.
type ErrTransportHeaderInvalid struct {
	Err error
}

// Error implements the error interface.
func (e ErrTransportHeaderInvalid) Error() string {
	return fmt.Sprintf("invalid transport header: %v", e.Err)
}
