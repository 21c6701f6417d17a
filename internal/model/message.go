// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER AND KIND
// =============================================================================

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// DisplayName returns a human-readable label for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "FloMe"
	default:
		return string(s)
	}
}

// Kind is the payload type of a message.
type Kind string

const (
	KindText           Kind = "text"
	KindRecommendation Kind = "recommendation"
)

// =============================================================================
// MESSAGE
// =============================================================================

// SeedID is the id of the greeting every conversation starts with.
const SeedID = "seed"

// SeedGreeting is the text of the seed message.
const SeedGreeting = "Hello! I'm the FloMe AI florist. 🌸\n" +
	"Tell me about your situation or the feelings you want to convey, and I'll recommend the perfect flowers and a letter.\n" +
	"(e.g. I broke up with my girlfriend and want to tell her how I feel)"

// FallbackReply is appended when a recommendation stream fails.
const FallbackReply = "Sorry, something went wrong while fetching your flower recommendation. Please try again in a moment."

// Message is one entry of a conversation. Messages are never mutated after
// creation.
type Message struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Kind   Kind   `json:"type"`

	// Content is set for KindText.
	Content string `json:"content,omitempty"`

	// Data is set for KindRecommendation.
	Data *RecommendationCard `json:"data,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}

// SeedMessage returns the greeting used to initialize or reset a
// conversation. It is identical on every call.
func SeedMessage() Message {
	return Message{
		ID:      SeedID,
		Sender:  SenderBot,
		Kind:    KindText,
		Content: SeedGreeting,
	}
}

// NewUserMessage creates a text message from the user.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    SenderUser,
		Kind:      KindText,
		Content:   content,
		CreatedAt: now(),
	}
}

// NewBotText creates a plain text reply.
func NewBotText(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    SenderBot,
		Kind:      KindText,
		Content:   content,
		CreatedAt: now(),
	}
}

// NewRecommendationMessage wraps a recommendation card as a bot message.
func NewRecommendationMessage(card RecommendationCard) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    SenderBot,
		Kind:      KindRecommendation,
		Data:      &card,
		CreatedAt: now(),
	}
}

// IsSeed reports whether m is the seed greeting.
func (m Message) IsSeed() bool {
	return m.ID == SeedID
}

// Text returns a one-line summary suitable for history listings.
func (m Message) Text() string {
	if m.Kind == KindRecommendation && m.Data != nil {
		return "💐 " + m.Data.Title
	}
	return m.Content
}

// now returns the current time in UTC without a monotonic reading, so a
// message compares equal to itself after a JSON round trip.
func now() time.Time {
	return time.Now().UTC()
}
