// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/util"
)

// chromeHeight is every line that is not the message viewport: header,
// indicator, input border, input and status bar.
const chromeHeight = 5

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderIndicator(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("💐 FloMe")
	hint := m.theme.HeaderHint.Render("AI florist")
	state := m.theme.HeaderHint.Render("idle")
	if m.sending {
		state = m.theme.Notice.Render("recommending")
	}

	left := title + " " + hint
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(state) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + state)
}

// renderIndicator is the spinner line while sending, the reset prompt, or
// the latest notice. Text is cut to the screen width before styling.
func (m Model) renderIndicator() string {
	fit := func(text string, reserved int) string {
		return util.TruncateWidth(util.SingleLine(text), m.width-reserved)
	}
	switch {
	case m.confirmReset:
		return m.theme.Confirm.Render(fit("Reset the conversation? (y/N)", 0))
	case m.sending:
		text := m.indicator
		if text == "" {
			text = "Sending..."
		}
		spin := m.spinner.View()
		return spin + " " + m.theme.Indicator.Render(fit(text, lipgloss.Width(spin)+1))
	case m.notice != "":
		style := m.theme.Notice
		if m.noticeLevel == noticeError {
			style = m.theme.Error
		}
		return style.Render(fit(m.notice, 0))
	}
	return ""
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}

// renderMessages lays out the whole conversation for the viewport.
func (m Model) renderMessages() string {
	blocks := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg model.Message) string {
	header := m.theme.SenderName.Render(msg.Sender.DisplayName())
	if !msg.CreatedAt.IsZero() {
		header += " " + m.theme.Timestamp.Render(msg.CreatedAt.Local().Format("15:04"))
	}

	var bubble string
	switch {
	case msg.Kind == model.KindRecommendation && msg.Data != nil:
		bubble = m.theme.BotBubble.Render(m.card(msg))
	case msg.Sender == model.SenderUser:
		bubble = m.theme.UserBubble.Width(m.theme.BubbleWidth()).Render(msg.Content)
	default:
		bubble = m.theme.BotBubble.Width(m.theme.BubbleWidth()).Render(msg.Content)
	}

	block := lipgloss.JoinVertical(lipgloss.Left, header, bubble)
	if msg.Sender == model.SenderUser {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, block)
	}
	return block
}

// card renders a recommendation once per message id.
func (m Model) card(msg model.Message) string {
	if out, ok := m.cards[msg.ID]; ok {
		return out
	}
	out := m.renderer.Card(*msg.Data)
	m.cards[msg.ID] = out
	return out
}
