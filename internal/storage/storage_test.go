// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// BACKEND CONFORMANCE
// =============================================================================

func backends(t *testing.T) map[string]KV {
	t.Helper()

	fileKV, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	sqliteKV, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sqliteKV.Close() })

	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   fileKV,
		"sqlite": sqliteKV,
	}
}

func TestKV_GetSetRemove(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := kv.Get("chat_history"); !IsNotFound(err) {
				t.Fatalf("Get on empty store: err = %v, want ErrNotFound", err)
			}

			if err := kv.Set("chat_history", []byte(`[{"id":"seed"}]`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := kv.Get("chat_history")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `[{"id":"seed"}]` {
				t.Errorf("Get = %q", got)
			}

			if err := kv.Set("chat_history", []byte(`[]`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, _ = kv.Get("chat_history")
			if string(got) != `[]` {
				t.Errorf("after overwrite Get = %q", got)
			}

			if err := kv.Remove("chat_history"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, err := kv.Get("chat_history"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Remove: err = %v", err)
			}
			if err := kv.Remove("chat_history"); err != nil {
				t.Errorf("Remove of missing key: %v", err)
			}
		})
	}
}

func TestKV_InvalidKey(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../escape", "a/b", "UPPER", "a..b"} {
				if err := kv.Set(key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Set(%q): err = %v, want ErrInvalidKey", key, err)
				}
				if _, err := kv.Get(key); !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Get(%q): err = %v, want ErrInvalidKey", key, err)
				}
				if err := kv.Remove(key); !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Remove(%q): err = %v, want ErrInvalidKey", key, err)
				}
			}
		})
	}
}

func TestKV_ConcurrentAccess(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 10; j++ {
						if err := kv.Set("cart", []byte(`{"n":1}`)); err != nil {
							t.Errorf("Set: %v", err)
							return
						}
						if _, err := kv.Get("cart"); err != nil {
							t.Errorf("Get: %v", err)
							return
						}
					}
				}()
			}
			wg.Wait()
		})
	}
}

// =============================================================================
// BACKEND SPECIFICS
// =============================================================================

func TestFileKV_Layout(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	if err := kv.Set("pending_ai_data", []byte("{}")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "pending_ai_data.json"))
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestSQLiteKV_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flome.db")

	kv, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := kv.Set("chat_history", []byte("[1]")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	kv.Close()

	kv, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()

	got, err := kv.Get("chat_history")
	if err != nil || string(got) != "[1]" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{BackendMemory, BackendFile, BackendSQLite} {
		kv, err := Open(backend, dir)
		if err != nil {
			t.Fatalf("Open(%q): %v", backend, err)
		}
		if err := Close(kv); err != nil {
			t.Errorf("Close(%q): %v", backend, err)
		}
	}
	if _, err := Open("redis", dir); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestFileKV_Watch(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := kv.Watch(ctx, "chat_history")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// Writes to other keys are not reported.
	if err := kv.Set("cart", []byte("[]")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set("chat_history", []byte("[]")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	cancel()
	for range changes {
	}
}
