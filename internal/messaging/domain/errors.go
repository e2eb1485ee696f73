package domain

import (
	"errors"
	"fmt"
)

// ErrMessageNotFound is returned when a message lookup finds no record.
var ErrMessageNotFound = errors.New("message not found")

// ValidationError reports a structurally invalid outbound request. It is
// always recoverable and reported verbatim to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// UnsupportedTypeError reports an unknown messageType on a request.
type UnsupportedTypeError struct {
	Type MessageType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported message type: %q", string(e.Type))
}

// SendFailedError reports a transport response that lacked the required
// correlating identifiers.
type SendFailedError struct {
	Reason string
}

func (e *SendFailedError) Error() string {
	return fmt.Sprintf("send failed: %s", e.Reason)
}
