// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the key-value persistence port used for chat
// history and cart state.
//
// # Backends
//
//   - MemoryKV: process-local map, used in tests and with backend "memory"
//   - FileKV: one JSON file per key under a data directory, written
//     atomically; supports Watch via fsnotify
//   - SQLiteKV: a single table in a SQLite database (pure Go driver)
//
// All backends are safe for concurrent use. Get returns ErrNotFound for a
// missing key; Remove of a missing key is not an error.
//
// # Usage
//
//	kv, err := storage.Open(storage.BackendFile, "~/.flome/data")
//	if err != nil {
//	    return err
//	}
//	defer storage.Close(kv)
//	err = kv.Set("chat_history", data)
package storage
