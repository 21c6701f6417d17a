// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages and flower
// recommendations.
//
// # Key Types
//
//   - Message: one entry of the conversation, either plain text or a
//     recommendation card
//   - Recommendation: the structured payload of a "result" envelope
//   - RecommendationCard: a Recommendation plus the prompt that produced it
//   - AvailableStore: a store that can fulfil the recommended bouquet
//
// # Usage
//
//	msg := model.NewUserMessage("I want to apologize to my friend")
//	card := model.RecommendationCard{Recommendation: rec, OriginalPrompt: msg.Content}
//	reply := model.NewRecommendationMessage(card)
package model
