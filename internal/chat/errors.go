// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "errors"

// ValidationError rejects input before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var (
	// ErrEmptyInput is returned for blank or whitespace-only input.
	ErrEmptyInput = &ValidationError{Field: "input", Message: "tell me a little about your situation first"}

	// ErrBusy is returned while a recommendation is still streaming.
	ErrBusy = errors.New("chat: a recommendation is already in progress")
)

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
