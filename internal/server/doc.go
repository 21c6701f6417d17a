// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is the development recommendation backend used by
// "flome serve".
//
// # Endpoints
//
//   - GET  /               - Welcome message
//   - GET  /health         - Health check with catalog size
//   - POST /api/recommend  - Streams a recommendation as NDJSON
//
// The recommend endpoint writes one JSON envelope per line and flushes after
// each one:
//
//	{"type":"progress","message":"Checking the flower inventory..."}
//	{"type":"progress","message":"Finding stores that can make it..."}
//	{"type":"result","data":{...}}
//
// # Key Types
//
//   - Server: HTTP server with routes and middleware
//   - Catalog: SQLite flower, store, stock and product catalog
//   - Recommender: designs a bouquet for a situation (LLM or catalog based)
package server
