// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a saved FloMe conversation to a file.
//
// # Supported Formats
//
//   - Markdown: human-readable, recommendation cards rendered in full
//   - JSON: the stored messages with export metadata
//
// # Usage
//
//	exporter, err := export.ForFormat("md", nil)
//	path, err := export.ToFile(store.Messages(), exporter, nil)
package export
