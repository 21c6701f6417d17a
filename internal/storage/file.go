// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/nothing0113/database5team/internal/util"
)

const fileExt = ".json"

// FileKV stores each key as <dir>/<key>.json. Writes replace the file
// atomically, so a concurrent reader sees either the old or the new value.
type FileKV struct {
	dir string
	mu  sync.RWMutex
}

// NewFileKV creates a file store rooted at dir, creating it if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		return nil, errors.New("storage: empty data directory")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// Dir returns the data directory.
func (f *FileKV) Dir() string {
	return f.dir
}

// Path returns the file backing key.
func (f *FileKV) Path(key string) string {
	return filepath.Join(f.dir, key+fileExt)
}

func (f *FileKV) Get(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &StoreError{Message: ErrNotFound.Message, Key: key}
	}
	if err != nil {
		return nil, &StoreError{Message: "read failed", Key: key, Cause: err}
	}
	return data, nil
}

func (f *FileKV) Set(key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := util.WriteFileAtomic(f.Path(key), value, 0600); err != nil {
		return &StoreError{Message: "write failed", Key: key, Cause: err}
	}
	return nil
}

func (f *FileKV) Remove(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &StoreError{Message: "remove failed", Key: key, Cause: err}
	}
	return nil
}

// Watch reports changes to key made by any process. Atomic writes show up
// as a create or rename of the target file, so those count as changes too.
func (f *FileKV) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory; the file itself is replaced on every write.
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", f.dir, err)
	}

	target := filepath.Clean(f.Path(key))
	changes := make(chan struct{}, 1)

	go func() {
		defer close(changes)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
					!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return changes, nil
}
