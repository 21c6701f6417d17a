// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for flome.
//
// Configuration file locations (in order of precedence):
//   - $FLOME_HOME/config.toml (default ~/.flome/config.toml)
//   - $FLOME_HOME/config.json
//   - Built-in defaults
//
// Environment overrides are applied after the file is read.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := recommend.NewClient(&recommend.Config{BaseURL: cfg.API.BaseURL})
//
// # Example config.toml
//
//	[api]
//	base_url = "http://localhost:8000"
//
//	[storage]
//	backend = "sqlite"
//
//	[log]
//	level = "debug"
package config
