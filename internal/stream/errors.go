// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "errors"

// ErrorType categorizes stream errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeTransport: the body failed while being read.
	ErrTypeTransport
	// ErrTypeUnsupported: no incrementally readable body was available.
	ErrTypeUnsupported
	// ErrTypeCancelled: the caller cancelled the stream.
	ErrTypeCancelled
	// ErrTypeMalformedLine: one line could not be parsed. Never terminal.
	ErrTypeMalformedLine
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeTransport:
		return "transport"
	case ErrTypeUnsupported:
		return "unsupported"
	case ErrTypeCancelled:
		return "cancelled"
	case ErrTypeMalformedLine:
		return "malformed_line"
	default:
		return "unknown"
	}
}

// StreamError is returned by Engine.Process and carried by Unknown events.
// It can be compared with errors.Is against the sentinels below, which match
// on Type.
type StreamError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// Is matches any StreamError of the same Type.
func (e *StreamError) Is(target error) bool {
	t, ok := target.(*StreamError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Sentinel errors for errors.Is checks.
var (
	ErrTransport         = &StreamError{Type: ErrTypeTransport, Message: "stream transport failed"}
	ErrUnsupportedStream = &StreamError{Type: ErrTypeUnsupported, Message: "response body is not readable as a stream"}
	ErrCancelled         = &StreamError{Type: ErrTypeCancelled, Message: "stream cancelled"}
	ErrMalformedLine     = &StreamError{Type: ErrTypeMalformedLine, Message: "malformed envelope"}
)

func transportError(cause error) *StreamError {
	return &StreamError{Type: ErrTypeTransport, Message: "stream transport failed", Cause: cause}
}

func cancelledError(cause error) *StreamError {
	return &StreamError{Type: ErrTypeCancelled, Message: "stream cancelled", Cause: cause}
}

func malformed(reason string, cause error) *StreamError {
	return &StreamError{Type: ErrTypeMalformedLine, Message: "malformed envelope: " + reason, Cause: cause}
}

// IsCancelled reports whether err is a stream cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsFatal reports whether err ended a stream in a way the user should hear
// about. Cancellation is deliberate and therefore not fatal.
func IsFatal(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrUnsupportedStream)
}
