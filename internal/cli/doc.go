// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the flome command line.
//
// # Commands
//
//	flome [chat]             Full-screen chat with the AI florist (default)
//	flome ask [situation]    One-shot recommendation printed to stdout
//	flome history [-f]       Print the saved conversation, optionally following it
//	flome reset              Replace the conversation with the greeting
//	flome cart add N         Order the N-th store of the latest recommendation
//	flome cart list|remove|clear
//	flome serve              Run the development recommendation API
//	flome config show|path|init
//
// Global flags (--config, --api-url, --storage, --data-dir, --log-level,
// --no-color) override the config file, which in turn is overridden by the
// FLOME_* environment variables.
package cli
