// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Options control terminal detection.
type Options struct {
	// Mode is "auto", "dark" or "light".
	Mode string
	// NoColor renders everything in the terminal's default colors.
	NoColor bool
}

// Theme holds the styled components of the chat screen.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderHint  lipgloss.Style

	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	SenderName lipgloss.Style
	Timestamp  lipgloss.Style

	CardTitle    lipgloss.Style
	StoreIndex   lipgloss.Style
	StoreOrder   lipgloss.Style
	StoreNoOrder lipgloss.Style

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	Spinner   lipgloss.Style
	Indicator lipgloss.Style

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	Notice  lipgloss.Style
	Error   lipgloss.Style
	Confirm lipgloss.Style
}

// NewTheme detects the terminal and builds every style.
func NewTheme(opts Options) *Theme {
	profile := termenv.ColorProfile()
	if opts.NoColor {
		profile = termenv.Ascii
	}
	lipgloss.SetColorProfile(profile)

	var isDark bool
	switch strings.ToLower(opts.Mode) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Petal)

	t.HeaderHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.BotBubble = lipgloss.NewStyle().
		Foreground(BotBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotBubbleBorder).
		Padding(0, 1)

	t.SenderName = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.CardTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Petal)

	t.StoreIndex = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sky)

	t.StoreOrder = lipgloss.NewStyle().
		Foreground(Leaf)

	t.StoreNoOrder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Petal).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Petal)

	t.Indicator = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Sky).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Notice = lipgloss.NewStyle().
		Foreground(Amber)

	t.Error = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Confirm = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
}

// SetSize updates the dimensions used for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth is the wrap width for message bubbles: most of the screen,
// clamped to a readable range.
func (t *Theme) BubbleWidth() int {
	w := t.Width * 4 / 5
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
