// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the persisted chat conversation.
//
// A conversation is an ordered list of messages that always contains at least
// the seed greeting. It only grows by Append and only shrinks by Reset, which
// puts it back to the seed greeting alone. Every mutation is written to the
// key-value store before the in-memory copy changes, so a failed write leaves
// the conversation exactly as it was.
//
// # Usage
//
//	store, err := session.Open(kv, session.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	err = store.Append(model.NewUserMessage("I want to thank my mentor"))
//	msgs := store.Messages()
package session
