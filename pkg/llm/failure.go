package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

// FailureCode classifies a provider failure for retry decisions and telemetry.
type FailureCode string

const (
	CodeAuthError     FailureCode = "AUTH_ERROR"
	CodeRateLimit     FailureCode = "RATE_LIMIT"
	CodeServerError   FailureCode = "SERVER_ERROR"
	CodeTimeout       FailureCode = "TIMEOUT"
	CodeSchemaInvalid FailureCode = "SCHEMA_INVALID"
	CodeProviderError FailureCode = "PROVIDER_ERROR"
)

// Failure is a classified provider error. It is a value handed back to the
// caller, never a panic.
type Failure struct {
	Code      FailureCode `json:"code"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("provider failure %s (retryable=%t): %s", f.Code, f.Retryable, f.Detail)
}

func newFailure(code FailureCode, detail string) *Failure {
	return &Failure{
		Code:      code,
		Retryable: code == CodeRateLimit || code == CodeServerError || code == CodeTimeout,
		Detail:    detail,
	}
}

// SchemaInvalid marks an unparsable or off-shape model response.
func SchemaInvalid(detail string) *Failure {
	return newFailure(CodeSchemaInvalid, detail)
}

// ClassifyHTTPStatus maps an HTTP status to a failure code.
func ClassifyHTTPStatus(status int, detail string) *Failure {
	switch {
	case status == 401 || status == 403:
		return newFailure(CodeAuthError, detail)
	case status == 429:
		return newFailure(CodeRateLimit, detail)
	case status >= 500:
		return newFailure(CodeServerError, detail)
	default:
		return newFailure(CodeProviderError, detail)
	}
}

// ClassifyError classifies transport errors from either provider SDK.
func ClassifyError(err error) *Failure {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newFailure(CodeTimeout, err.Error())
	}

	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return ClassifyHTTPStatus(openaiErr.HTTPStatusCode, openaiErr.Message)
	}
	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return ClassifyHTTPStatus(googleErr.Code, googleErr.Message)
	}

	return newFailure(CodeProviderError, err.Error())
}
