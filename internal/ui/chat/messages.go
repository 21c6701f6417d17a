// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	pipeline "github.com/nothing0113/database5team/internal/chat"
	"github.com/nothing0113/database5team/internal/cart"
	"github.com/nothing0113/database5team/internal/model"
)

// Hook messages, delivered through the Bridge.

// StateMsg reports a pipeline state change.
type StateMsg struct {
	State pipeline.State
}

// IndicatorMsg carries the new progress text; empty clears it.
type IndicatorMsg struct {
	Text string
}

// MessageAddedMsg reports a message appended to the conversation.
type MessageAddedMsg struct {
	Message model.Message
}

// Command results.

// SendDoneMsg is returned when a Send finishes.
type SendDoneMsg struct {
	Outcome pipeline.Outcome
	Err     error
}

// ResetDoneMsg is returned when a reset finishes.
type ResetDoneMsg struct {
	Err error
}

// CartAddedMsg is returned after adding a store's product to the cart.
type CartAddedMsg struct {
	Order cart.PendingOrder
	Err   error
}

// bridgeClosedMsg means no more hook messages will arrive.
type bridgeClosedMsg struct{}
