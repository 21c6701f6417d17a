// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared across flome packages.
//
// # Key Functions
//
//   - WriteFileAtomic: crash-safe file replacement (temp file, fsync, rename)
//   - TruncateRunes: UTF-8 safe truncation with ellipsis, used for log fields
//   - TruncateWidth: display-width truncation for terminal columns
//
// # Usage
//
//	err := util.WriteFileAtomic(path, data, 0600)
//	logger.Warn("skipped line", zap.String("line", util.TruncateRunes(line, 120)))
package util
