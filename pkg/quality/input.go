package quality

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// ReadInput reads r to the end and returns the content without surrounding whitespace.
func ReadInput(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("Failed to read stdin: %w", err) //nolint:staticcheck // user-facing line
	}

	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", newError(ErrEmptyInput, nil, "No base64 data on stdin")
	}
	return s, nil
}

// DecodeBase64 decodes standard, padded base64. Unlike base64.StdEncoding it
// rejects embedded line breaks, so wrapped output is not accepted.
func DecodeBase64(s string) ([]byte, error) {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		err := base64.CorruptInputError(i)
		return nil, newError(ErrDecode, err, "Failed to decode base64: %v", err)
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, newError(ErrDecode, err, "Failed to decode base64: %v", err)
	}
	return b, nil
}
