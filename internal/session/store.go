// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/storage"
	"go.uber.org/zap"
)

// HistoryKey is the storage key of the conversation.
const HistoryKey = "chat_history"

var (
	ErrDuplicateID    = errors.New("session: duplicate message id")
	ErrInvalidMessage = errors.New("session: invalid message")
)

// =============================================================================
// STORE
// =============================================================================

// Store is the conversation. It is safe for concurrent use; readers never see
// a partially applied mutation.
type Store struct {
	kv     storage.KV
	logger *zap.Logger

	mu       sync.RWMutex
	messages []model.Message
	ids      map[string]struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recovered load problems.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open loads the conversation from kv. When nothing usable is stored the
// conversation starts at the seed greeting, which is written back so the
// stored and in-memory states agree.
func Open(kv storage.KV, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, errors.New("session: nil storage")
	}
	s := &Store{kv: kv, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	msgs, found, err := s.read()
	if err != nil {
		return nil, err
	}
	if !found {
		if err := s.write(msgs); err != nil {
			return nil, err
		}
	}
	s.swap(msgs)
	return s, nil
}

// Load re-reads the stored conversation, replacing the in-memory copy, and
// returns it. If nothing usable is stored the seed greeting is written back
// and returned.
func (s *Store) Load() ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, found, err := s.read()
	if err != nil {
		return nil, err
	}
	if !found {
		if err := s.write(msgs); err != nil {
			return nil, err
		}
	}
	s.swap(msgs)
	return s.copyMessages(), nil
}

// Append adds m to the end of the conversation and persists it.
func (s *Store) Append(m model.Message) error {
	if m.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidMessage)
	}
	if m.Kind == model.KindRecommendation && m.Data == nil {
		return fmt.Errorf("%w: recommendation without data", ErrInvalidMessage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.ids[m.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
	}

	next := make([]model.Message, len(s.messages), len(s.messages)+1)
	copy(next, s.messages)
	next = append(next, m)

	if err := s.write(next); err != nil {
		return err
	}
	s.swap(next)
	return nil
}

// Reset replaces the conversation with the seed greeting. Calling it again
// has no further effect.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed := []model.Message{model.SeedMessage()}
	if err := s.write(seed); err != nil {
		return err
	}
	s.swap(seed)
	return nil
}

// Messages returns a copy of the conversation.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyMessages()
}

// Len returns the number of messages. It is never less than 1.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Last returns the newest message.
func (s *Store) Last() model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages[len(s.messages)-1]
}

// LatestRecommendation returns the newest recommendation card, if any.
func (s *Store) LatestRecommendation() (*model.RecommendationCard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if m := s.messages[i]; m.Kind == model.KindRecommendation && m.Data != nil {
			card := *m.Data
			return &card, true
		}
	}
	return nil, false
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// read decodes the stored conversation. found is false when the seed was
// substituted. Corrupt data is logged and treated as absent.
func (s *Store) read() (msgs []model.Message, found bool, err error) {
	seed := []model.Message{model.SeedMessage()}

	data, err := s.kv.Get(HistoryKey)
	if storage.IsNotFound(err) {
		return seed, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load conversation: %w", err)
	}

	var stored []model.Message
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("stored conversation is corrupt, starting over",
			zap.Error(err), zap.Int("bytes", len(data)))
		return seed, false, nil
	}

	msgs = make([]model.Message, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	for _, m := range stored {
		if _, dup := seen[m.ID]; m.ID == "" || dup {
			s.logger.Warn("dropping stored message", zap.String("id", m.ID), zap.Bool("duplicate", dup))
			continue
		}
		seen[m.ID] = struct{}{}
		msgs = append(msgs, m)
	}
	if len(msgs) == 0 {
		return seed, false, nil
	}
	return msgs, true, nil
}

func (s *Store) write(msgs []model.Message) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := s.kv.Set(HistoryKey, data); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// swap installs msgs as the current conversation. Callers hold mu, except
// Open, which runs before the Store is shared.
func (s *Store) swap(msgs []model.Message) {
	ids := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		ids[m.ID] = struct{}{}
	}
	s.messages = msgs
	s.ids = ids
}

func (s *Store) copyMessages() []model.Message {
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
