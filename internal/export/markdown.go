// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/ui/render"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown. Recommendation
// messages are written as the same card the terminal shows.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	return &MarkdownExporter{options: normalize(opts)}
}

// Export converts a conversation to Markdown.
func (e *MarkdownExporter) Export(msgs []model.Message) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrEmpty
	}

	var sb strings.Builder
	exported := e.options.Now()

	// YAML frontmatter
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %s\n", escapeYAML(conversationTitle(msgs)))
	fmt.Fprintf(&sb, "messages: %d\n", len(msgs))
	fmt.Fprintf(&sb, "recommendations: %d\n", countRecommendations(msgs))
	fmt.Fprintf(&sb, "exported: %s\n", exported.Format(time.RFC3339))
	sb.WriteString("generator: flome\n")
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(conversationTitle(msgs)))

	for i, msg := range msgs {
		label := msg.Sender.DisplayName()
		if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, msg.CreatedAt.Local().Format("2006-01-02 15:04"))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		if msg.Kind == model.KindRecommendation && msg.Data != nil {
			sb.WriteString(strings.TrimSpace(render.CardMarkdown(*msg.Data)))
		} else {
			sb.WriteString(strings.TrimSpace(msg.Content))
		}
		sb.WriteString("\n\n")

		if i < len(msgs)-1 {
			sb.WriteString("---\n\n")
		}
	}

	fmt.Fprintf(&sb, "\n*Exported from FloMe on %s*\n", exported.Format("January 2, 2006 at 3:04 PM"))
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// conversationTitle is the first user message on one line, or a generic
// title for a conversation that is only the greeting.
func conversationTitle(msgs []model.Message) string {
	if text := strings.Join(strings.Fields(firstUserText(msgs)), " "); text != "" {
		return truncateTitle(text)
	}
	return "FloMe conversation"
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= 60 {
		return s
	}
	return string(runes[:57]) + "..."
}

func countRecommendations(msgs []model.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Kind == model.KindRecommendation && m.Data != nil {
			n++
		}
	}
	return n
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that would break formatting in headings.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values containing YAML syntax.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
