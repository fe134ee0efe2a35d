package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// ErrorType classifies LLM failures.
type ErrorType string

const (
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeConnection  ErrorType = "connection"
	ErrorTypeBadResponse ErrorType = "bad_response"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a structured LLM error with classification.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the operation can be retried.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError categorizes an error from either provider SDK into a
// structured Error for consistent handling upstream.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Type: ErrorTypeTimeout, Message: "request timed out", Retryable: true, Cause: err}
	}

	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return classifyStatus(openaiErr.HTTPStatusCode, err)
	}

	var anthropicErr *anthropic.APIError
	if errors.As(err, &anthropicErr) {
		switch {
		case anthropicErr.IsAuthenticationErr() || anthropicErr.IsPermissionErr():
			return &Error{Type: ErrorTypeAuth, Message: "authentication failed", Retryable: false, Cause: err}
		case anthropicErr.IsRateLimitErr():
			return &Error{Type: ErrorTypeRateLimit, Message: "rate limited", Retryable: true, Cause: err}
		case anthropicErr.IsApiErr() || anthropicErr.IsOverloadedErr():
			return &Error{Type: ErrorTypeConnection, Message: "upstream error", Retryable: true, Cause: err}
		default:
			return &Error{Type: ErrorTypeBadResponse, Message: "request rejected", Retryable: false, Cause: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Type: ErrorTypeTimeout, Message: "network timeout", Retryable: true, Cause: err}
		}
		return &Error{Type: ErrorTypeConnection, Message: "network error", Retryable: true, Cause: err}
	}

	return &Error{Type: ErrorTypeUnknown, Message: "llm call failed", Retryable: false, Cause: err}
}

func classifyStatus(status int, cause error) *Error {
	switch {
	case status == 401 || status == 403:
		return &Error{Type: ErrorTypeAuth, Message: "authentication failed", Retryable: false, Cause: cause, StatusCode: status}
	case status == 429:
		return &Error{Type: ErrorTypeRateLimit, Message: "rate limited", Retryable: true, Cause: cause, StatusCode: status}
	case status >= 500:
		return &Error{Type: ErrorTypeConnection, Message: "upstream error", Retryable: true, Cause: cause, StatusCode: status}
	case status >= 400:
		return &Error{Type: ErrorTypeBadResponse, Message: "request rejected", Retryable: false, Cause: cause, StatusCode: status}
	default:
		return &Error{Type: ErrorTypeUnknown, Message: "llm call failed", Retryable: false, Cause: cause, StatusCode: status}
	}
}
