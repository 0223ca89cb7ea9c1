// Package apperr holds the error taxonomy shared by the desk services and the
// backend client. Every failure is recoverable: callers show the message and
// let the user retry or correct the input.
package apperr

import (
	"errors"
	"fmt"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by code, so errors.Is(err, apperr.New(CodeOverReturn, ""))
// works regardless of message.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is checks.
var (
	ErrValidation           = New(CodeValidation, "validation error")
	ErrDuplicateEntry       = New(CodeDuplicateEntry, "duplicate entry")
	ErrInsufficientStock    = New(CodeInsufficientStock, "insufficient stock")
	ErrOverStock            = New(CodeOverStock, "over stock")
	ErrOverReturn           = New(CodeOverReturn, "over return")
	ErrAccessDenied         = New(CodeAccessDenied, "access denied")
	ErrEmptySubmission      = New(CodeEmptySubmission, "empty submission")
	ErrNotFound             = New(CodeNotFound, "not found")
	ErrAuthRequired         = New(CodeAuthRequired, "authentication required")
	ErrNetwork              = New(CodeNetwork, "network error")
	ErrParse                = New(CodeParse, "parse error")
	ErrRejected             = New(CodeRejected, "rejected by backend")
	ErrSubmissionInProgress = New(CodeSubmissionInProgress, "submission in progress")
)

// CodeOf returns the code of the first *Error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Meta returns a metadata value from the first *Error in the chain.
func Meta(err error, key string) string {
	var e *Error
	if errors.As(err, &e) && e.Metadata != nil {
		return e.Metadata[key]
	}
	return ""
}
