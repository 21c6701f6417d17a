// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/nothing0113/database5team/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// Document is the JSON export layout. Messages keep their stored form, so an
// export can be loaded back as chat history.
type Document struct {
	Generator  string          `json:"generator"`
	ExportedAt time.Time       `json:"exported_at"`
	Messages   []model.Message `json:"messages"`
}

// JSONExporter exports conversations to JSON.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	return &JSONExporter{options: normalize(opts)}
}

// Export converts a conversation to indented JSON.
func (e *JSONExporter) Export(msgs []model.Message) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrEmpty
	}
	return json.MarshalIndent(Document{
		Generator:  "flome",
		ExportedAt: e.options.Now().UTC(),
		Messages:   msgs,
	}, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
