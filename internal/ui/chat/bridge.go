// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	pipeline "github.com/nothing0113/database5team/internal/chat"
	"github.com/nothing0113/database5team/internal/model"
)

// bridgeBuffer is large enough for one full stream of progress updates.
const bridgeBuffer = 64

// Bridge forwards pipeline hooks to the Bubble Tea loop.
type Bridge struct {
	events chan tea.Msg
	done   chan struct{}
	once   sync.Once
}

// NewBridge creates a Bridge.
func NewBridge() *Bridge {
	return &Bridge{
		events: make(chan tea.Msg, bridgeBuffer),
		done:   make(chan struct{}),
	}
}

// Hooks returns pipeline hooks that publish to the bridge.
func (b *Bridge) Hooks() pipeline.Hooks {
	return pipeline.Hooks{
		OnState:     func(s pipeline.State) { b.publish(StateMsg{State: s}) },
		OnIndicator: func(text string) { b.publish(IndicatorMsg{Text: text}) },
		OnMessage:   func(m model.Message) { b.publish(MessageAddedMsg{Message: m}) },
	}
}

// Close stops delivery. Pending and later hook calls return immediately.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bridge) publish(msg tea.Msg) {
	select {
	case b.events <- msg:
	case <-b.done:
	}
}

// Wait returns a command that delivers the next hook message.
func (b *Bridge) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.events:
			return msg
		case <-b.done:
			return bridgeClosedMsg{}
		}
	}
}
