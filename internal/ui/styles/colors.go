// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Petal - Brand color, bot messages, card titles
var Petal = lipgloss.AdaptiveColor{Light: "#DB2777", Dark: "#F9A8D4"}

// PetalDeep - Darker petal for borders
var PetalDeep = lipgloss.AdaptiveColor{Light: "#9D174D", Dark: "#EC4899"}

// Leaf - Success, orderable stores, prices
var Leaf = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"}

// Sky - User messages, key hints
var Sky = lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#7DD3FC"}

// Amber - Notices and warnings
var Amber = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"}

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#FB7185"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

var SurfaceDim = lipgloss.AdaptiveColor{Light: "#FDF2F8", Dark: "#1F1A24"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#3F3A48"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#F3E8EE"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#C4B5C8"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#7C7386"}

// =============================================================================
// MESSAGE BUBBLE COLORS
// =============================================================================

var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#0C4A6E", Dark: "#E0F2FE"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#38BDF8", Dark: "#0EA5E9"}

var BotBubbleFg = lipgloss.AdaptiveColor{Light: "#500724", Dark: "#FCE7F3"}
var BotBubbleBorder = lipgloss.AdaptiveColor{Light: "#F9A8D4", Dark: "#DB2777"}

// StatusIndicators are ASCII markers shown next to colored status text so
// meaning never depends on color alone.
var StatusIndicators = struct {
	Success string
	Error   string
	Warning string
	Info    string
}{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
}

// RenderSuccess renders a success line with its marker.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Leaf).Bold(true).Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error line with its marker.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning line with its marker.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders an informational line with its marker.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Sky).Render(StatusIndicators.Info + " " + message)
}
