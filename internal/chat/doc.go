// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the send pipeline: user input in, recommendation
// (or a fallback reply) appended to the conversation.
//
// A Pipeline is either Idle or Sending. Send moves it to Sending, appends the
// user's message, opens a recommendation stream and relays progress text to
// the loading indicator. The first result becomes a recommendation message
// and ends the stream. A transport failure appends a fixed apology instead.
// Cancel abandons the stream without adding anything. Whatever happens, the
// indicator is cleared and the pipeline is Idle again when Send returns.
//
// Only one stream can be outstanding: Send while Sending returns ErrBusy and
// touches nothing.
//
// # Usage
//
//	p := chat.New(store, client, chat.WithHooks(chat.Hooks{
//	    OnIndicator: func(text string) { fmt.Println(text) },
//	}))
//	outcome, err := p.Send(ctx, "I want to cheer up a friend")
package chat
