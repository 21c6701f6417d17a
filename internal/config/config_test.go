// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points the config directory at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FLOME_HOME", dir)
	for _, name := range []string{"FLOME_API_URL", "FLOME_STORAGE", "FLOME_DATA_DIR", "FLOME_LOG_LEVEL", "FLOME_LLM_URL"} {
		t.Setenv(name, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %q", cfg.Storage.Backend)
	}
	if Exists() {
		t.Error("Exists() = true with no config file")
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := isolate(t)
	content := `
[api]
base_url = "https://flome.example.com"

[storage]
backend = "sqlite"

[log]
level = "debug"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "https://flome.example.com" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q", cfg.Storage.Backend)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Addr != "127.0.0.1:8000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if !Exists() {
		t.Error("Exists() = false")
	}
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"storage":{"backend":"memory"}}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api]\nbase_ur = \"x\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "api.base_ur") {
		t.Errorf("err = %v, want unknown key error", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("FLOME_API_URL", "http://10.0.0.5:9000")
	t.Setenv("FLOME_STORAGE", "memory")
	t.Setenv("FLOME_RATE_PER_MINUTE", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q", cfg.Storage.Backend)
	}
	if cfg.Server.RatePerMinute != 5 {
		t.Errorf("Server.RatePerMinute = %d", cfg.Server.RatePerMinute)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.API.BaseURL = "localhost:8000" }, "api.base_url"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad llm url", func(c *Config) { c.Server.LLMBaseURL = "ftp://x" }, "server.llm_base_url"},
		{"negative rate", func(c *Config) { c.Server.RatePerMinute = -1 }, "server.rate_per_minute"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("err = %v, want ValidateErrors", err)
			}
			if len(verrs) != 1 || verrs[0].Field != tt.field {
				t.Errorf("errors = %v, want one for %s", verrs, tt.field)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Server.LLMToken = "sk-secret"
	cfg.Storage.Backend = "sqlite"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	path := filepath.Join(dir, "config.toml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Server.LLMToken != "sk-secret" || loaded.Storage.Backend != "sqlite" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestString_RedactsToken(t *testing.T) {
	cfg := Default()
	cfg.Server.LLMToken = "sk-secret"
	s := cfg.String()
	if strings.Contains(s, "sk-secret") {
		t.Error("String() leaked the token")
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("String() missing redaction marker")
	}
	if cfg.Server.LLMToken != "sk-secret" {
		t.Error("String() modified the config")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/.flome/data"); got != filepath.Join(home, ".flome/data") {
		t.Errorf("ExpandPath = %q", got)
	}
	if got := ExpandPath("/tmp/x"); got != "/tmp/x" {
		t.Errorf("ExpandPath = %q", got)
	}
}
