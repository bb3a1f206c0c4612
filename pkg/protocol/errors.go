// pkg/protocol/errors.go
package protocol

import "fmt"

// error codes
const (
	ErrCodeUnknownMessageType = 1000
	ErrCodeMalformedFrame     = 1001
	ErrCodeTruncatedStream    = 1002
)

type Error struct {
	Code    int
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Is matches on the code only, so errors.Is(err, ErrMalformedFrame) holds
// whatever detail the message carries.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	return ok && t.Code == e.Code
}

func NewError(code int, message string) Error {
	return Error{
		Code:    code,
		Message: message,
	}
}

var (
	ErrUnknownMessageType = NewError(ErrCodeUnknownMessageType, "unknown message type")
	ErrMalformedFrame     = NewError(ErrCodeMalformedFrame, "malformed frame")
	ErrTruncatedStream    = NewError(ErrCodeTruncatedStream, "truncated stream")
)
