// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns conversation messages into terminal text. Cards are
// built as markdown and rendered with glamour.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/nothing0113/database5team/internal/model"
)

// DefaultWidth is the wrap width when none is given.
const DefaultWidth = 80

// Options configure a Renderer.
type Options struct {
	// Style is a glamour standard style ("dark", "light", "notty", "ascii")
	// or "auto" to follow the terminal.
	Style string
	Width int
}

// Renderer renders messages. A Renderer whose glamour setup failed falls
// back to the raw markdown.
type Renderer struct {
	tr    *glamour.TermRenderer
	width int
}

// New creates a Renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	styleOpt := glamour.WithAutoStyle()
	if opts.Style != "" && opts.Style != "auto" {
		styleOpt = glamour.WithStandardStyle(opts.Style)
	}

	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(opts.Width))
	if err != nil {
		return &Renderer{width: opts.Width}, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &Renderer{tr: tr, width: opts.Width}, nil
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Markdown renders md, returning it unchanged if rendering fails.
func (r *Renderer) Markdown(md string) string {
	if r == nil || r.tr == nil {
		return md
	}
	out, err := r.tr.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// Card renders a recommendation card.
func (r *Renderer) Card(card model.RecommendationCard) string {
	return r.Markdown(CardMarkdown(card))
}

// Message renders one conversation message. Text is shown verbatim so user
// input is never interpreted as markdown.
func (r *Renderer) Message(m model.Message) string {
	if m.Kind == model.KindRecommendation && m.Data != nil {
		return r.Card(*m.Data)
	}
	return m.Content
}

// CardMarkdown lays out a recommendation. Stores are numbered from 1 so a
// key chord can pick one.
func CardMarkdown(card model.RecommendationCard) string {
	var b strings.Builder

	title := card.Title
	if title == "" {
		title = "Your bouquet"
	}
	fmt.Fprintf(&b, "## 💐 %s\n\n", title)
	if card.ColorTheme != "" {
		fmt.Fprintf(&b, "*Color theme:* %s\n\n", card.ColorTheme)
	}

	if len(card.Flowers) > 0 {
		b.WriteString("### 🌸 Flowers\n\n")
		for _, f := range card.Flowers {
			switch {
			case f.Role != "" && f.Reason != "":
				fmt.Fprintf(&b, "- **%s** (%s): %s\n", f.Name, f.Role, f.Reason)
			case f.Role != "":
				fmt.Fprintf(&b, "- **%s** (%s)\n", f.Name, f.Role)
			default:
				fmt.Fprintf(&b, "- **%s**\n", f.Name)
			}
		}
		b.WriteString("\n")
	}

	if card.Letter != "" {
		b.WriteString("### 💌 Letter\n\n")
		for _, line := range strings.Split(card.Letter, "\n") {
			fmt.Fprintf(&b, "> %s\n", line)
		}
		b.WriteString("\n")
	}

	if len(card.CareGuide) > 0 {
		b.WriteString("### 🌿 Care guide\n\n")
		for i, tip := range card.CareGuide {
			fmt.Fprintf(&b, "%d. %s\n", i+1, tip)
		}
		b.WriteString("\n")
	}

	b.WriteString("### 🏪 Stores\n\n")
	if len(card.AvailableStores) == 0 {
		b.WriteString("No store has these flowers in stock right now.\n")
	}
	for i, s := range card.AvailableStores {
		fmt.Fprintf(&b, "%d. **%s**, %s", i+1, s.Name, s.Address)
		switch {
		case s.Orderable() && s.PriceLabel() != "":
			fmt.Fprintf(&b, " (%s)", s.PriceLabel())
		case !s.Orderable():
			b.WriteString(" (visit the store to order)")
		}
		b.WriteString("\n")
	}

	if card.OriginalPrompt != "" {
		fmt.Fprintf(&b, "\n*For:* %s\n", card.OriginalPrompt)
	}
	return b.String()
}
