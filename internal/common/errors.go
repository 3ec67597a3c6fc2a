package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Kind    string // optional subtype, only logged
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	code := e.Code
	if e.Kind != "" {
		code = fmt.Sprintf("%s[%s]", e.Code, e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any *AppError carrying the same code, so callers can test
// errors.Is(err, common.ErrExtraction) regardless of message or cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Kind == "" || t.Kind == e.Kind)
}

// Error codes
const (
	CodeConfig             = "CONFIG_ERROR"
	CodeFetch              = "FETCH_ERROR"
	CodeExtraction         = "EXTRACTION_ERROR"
	CodeStructuring        = "STRUCTURING_ERROR"
	CodePersistence        = "PERSISTENCE_ERROR"
	CodeUpload             = "UPLOAD_ERROR"
	CodeLinkRetryExhausted = "LINK_RETRY_EXHAUSTED"
	CodeParse              = "PARSE_ERROR"
)

// Structuring error subtypes. Handling is identical, they only differ in logs.
const (
	StructuringKindRequest        = "request"
	StructuringKindNoCandidates   = "no_candidates"
	StructuringKindInvalidJSON    = "invalid_json"
	StructuringKindSchemaMismatch = "schema_mismatch"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Code sentinels for errors.Is.
var (
	ErrFetch              = &AppError{Code: CodeFetch}
	ErrExtraction         = &AppError{Code: CodeExtraction}
	ErrStructuring        = &AppError{Code: CodeStructuring}
	ErrPersistence        = &AppError{Code: CodePersistence}
	ErrUpload             = &AppError{Code: CodeUpload}
	ErrLinkRetryExhausted = &AppError{Code: CodeLinkRetryExhausted}
	ErrParse              = &AppError{Code: CodeParse}
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewFetchError(bucket, key string, cause error) *AppError {
	return NewAppError(CodeFetch, fmt.Sprintf("failed to fetch %s/%s", bucket, key), cause)
}

func NewExtractionError(cause error) *AppError {
	return NewAppError(CodeExtraction, "failed to extract text from PDF", cause)
}

func NewStructuringError(kind, message string, cause error) *AppError {
	return &AppError{Code: CodeStructuring, Kind: kind, Message: message, Cause: cause}
}

func NewPersistenceError(message string, cause error) *AppError {
	return NewAppError(CodePersistence, message, cause)
}

func NewUploadError(bucket, key string, cause error) *AppError {
	return NewAppError(CodeUpload, fmt.Sprintf("failed to upload %s/%s", bucket, key), cause)
}

func NewLinkRetryExhaustedError(uploadPath string, attempts int, cause error) *AppError {
	return NewAppError(CodeLinkRetryExhausted,
		fmt.Sprintf("no resume row for %s after %d attempts", uploadPath, attempts), cause)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StatusMessage renders an error for the error_message column: the app error's
// message and cause, without the code prefix.
func StatusMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.Cause != nil {
			return fmt.Sprintf("%s: %v", ae.Message, ae.Cause)
		}
		return ae.Message
	}
	return err.Error()
}
