package quality

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the stage that failed.
var (
	// ErrEmptyInput indicates stdin held nothing but whitespace.
	ErrEmptyInput = errors.New("quality: empty input")

	// ErrAssetProvisioning indicates the model or range file could not be made available.
	ErrAssetProvisioning = errors.New("quality: asset provisioning failed")

	// ErrDecode indicates the input is not valid base64.
	ErrDecode = errors.New("quality: invalid base64")

	// ErrImageDecode indicates the decoded bytes are not a recognizable image.
	ErrImageDecode = errors.New("quality: invalid image")

	// ErrScoreComputation indicates the scorer failed or returned an unusable value.
	ErrScoreComputation = errors.New("quality: score computation failed")
)

// Error is a terminal evaluation failure.
type Error struct {
	kind error
	msg  string
	err  error
}

func newError(kind, cause error, format string, args ...any) *Error {
	return &Error{
		kind: kind,
		msg:  fmt.Sprintf(format, args...),
		err:  cause,
	}
}

// Error returns the user-facing message.
func (e *Error) Error() string {
	return e.msg
}

// Unwrap exposes both the stage sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}
