package transfer

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// StatusError is a non-2xx response from the upload service. Detail carries
// the server-provided message when the body was parseable.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("service returned %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("service returned %d", e.Code)
}

// newStatusError extracts a human-readable message from an error body.
// The service wraps errors as {"detail": "..."} or
// {"detail": {"error": "...", "message": "..."}}.
func newStatusError(code int, body []byte) *StatusError {
	se := &StatusError{Code: code}
	if len(body) == 0 {
		return se
	}

	var plain struct {
		Detail string `json:"detail"`
	}
	if err := sonic.Unmarshal(body, &plain); err == nil && plain.Detail != "" {
		se.Detail = plain.Detail
		return se
	}

	var nested struct {
		Detail struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		} `json:"detail"`
	}
	if err := sonic.Unmarshal(body, &nested); err == nil {
		if nested.Detail.Message != "" {
			se.Detail = nested.Detail.Message
			return se
		}
		if nested.Detail.Error != "" {
			se.Detail = nested.Detail.Error
			return se
		}
	}

	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200] + "..."
	}
	se.Detail = detail
	return se
}
