package pocket

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies the errors returned by Client operations.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindDecode
	KindRemote
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// TransportError is returned when the request could not be built, sent or
// its body could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pocket %s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Cause() error  { return e.Err }

// DecodeError is returned for non-2xx responses and for bodies that are not
// the JSON document the operation expects. Body holds the raw response text,
// Pocket reports some failures in shapes no model here describes.
type DecodeError struct {
	Op         string
	StatusCode int
	// XError is the X-Error header Pocket sets on failed requests.
	XError string
	Body   string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.XError != "" {
		return fmt.Sprintf("pocket %s: %s: %s", e.Op, e.Err, e.XError)
	}
	return fmt.Sprintf("pocket %s: %s", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
func (e *DecodeError) Cause() error  { return e.Err }

// RemoteError is returned when Pocket answered with a well-formed envelope
// whose error field is set.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("pocket %s: API error: %s", e.Op, e.Message)
}

// Kind reports which of the client error types err is or wraps.
func Kind(err error) ErrorKind {
	var (
		transportErr *TransportError
		decodeErr    *DecodeError
		remoteErr    *RemoteError
	)

	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &remoteErr):
		return KindRemote
	default:
		return KindUnknown
	}
}
