// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// flakyKV fails every Set while failing is true.
type flakyKV struct {
	*storage.MemoryKV
	failing bool
}

func (f *flakyKV) Set(key string, value []byte) error {
	if f.failing {
		return errors.New("disk full")
	}
	return f.MemoryKV.Set(key, value)
}

func sampleCard() model.RecommendationCard {
	price := 45000.0
	return model.RecommendationCard{
		Recommendation: model.Recommendation{
			Title:      "Reconciliation Bouquet",
			ColorTheme: "white",
			Flowers:    []model.Flower{{Name: "White tulip", Role: "main", Reason: "forgiveness"}},
			Letter:     "I'm sorry.",
			CareGuide:  []string{"Trim the stems"},
			AvailableStores: []model.AvailableStore{
				{StoreID: "1", Name: "Happy Flowers", Address: "Seoul", ProductID: "1", ProductPrice: &price},
			},
		},
		OriginalPrompt: "I fought with my friend",
	}
}

func stored(t *testing.T, kv storage.KV) []model.Message {
	t.Helper()
	data, err := kv.Get(HistoryKey)
	require.NoError(t, err)
	var msgs []model.Message
	require.NoError(t, json.Unmarshal(data, &msgs))
	return msgs
}

// =============================================================================
// OPEN / LOAD
// =============================================================================

func TestOpen_EmptyStorageSeeds(t *testing.T) {
	kv := storage.NewMemoryKV()
	s, err := Open(kv)
	require.NoError(t, err)

	assert.Equal(t, []model.Message{model.SeedMessage()}, s.Messages())
	assert.Equal(t, []model.Message{model.SeedMessage()}, stored(t, kv))
}

func TestOpen_CorruptOrEmptyHistory(t *testing.T) {
	for name, raw := range map[string]string{
		"corrupt":     `[{"id":`,
		"empty array": `[]`,
		"not array":   `{"id":"x"}`,
		"no ids":      `[{"sender":"user","type":"text","content":"hi"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			kv := storage.NewMemoryKV()
			require.NoError(t, kv.Set(HistoryKey, []byte(raw)))

			s, err := Open(kv, WithLogger(zap.New(core)))
			require.NoError(t, err)
			assert.Equal(t, 1, s.Len())
			assert.True(t, s.Last().IsSeed())
			assert.Equal(t, []model.Message{model.SeedMessage()}, stored(t, kv))
			if name == "corrupt" || name == "not array" {
				assert.Equal(t, 1, logs.Len())
			}
		})
	}
}

func TestRoundTrip_FileBackend(t *testing.T) {
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)

	s, err := Open(kv)
	require.NoError(t, err)
	user := model.NewUserMessage("I fought with my friend")
	bot := model.NewRecommendationMessage(sampleCard())
	require.NoError(t, s.Append(user))
	require.NoError(t, s.Append(bot))
	want := s.Messages()

	reopened, err := Open(kv)
	require.NoError(t, err)
	assert.Equal(t, want, reopened.Messages())

	loaded, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, want, loaded)
}

func TestLoad_PicksUpExternalChange(t *testing.T) {
	kv := storage.NewMemoryKV()
	a, err := Open(kv)
	require.NoError(t, err)
	b, err := Open(kv)
	require.NoError(t, err)

	require.NoError(t, a.Append(model.NewUserMessage("hello")))
	assert.Equal(t, 1, b.Len())

	msgs, err := b.Load()
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, 2, b.Len())
}

func TestLoad_CorruptHistoryIsRewritten(t *testing.T) {
	kv := storage.NewMemoryKV()
	s, err := Open(kv)
	require.NoError(t, err)
	require.NoError(t, s.Append(model.NewUserMessage("hello")))

	require.NoError(t, kv.Set(HistoryKey, []byte(`[{"id":`)))
	msgs, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []model.Message{model.SeedMessage()}, msgs)
	assert.Equal(t, msgs, stored(t, kv))

	require.NoError(t, kv.Remove(HistoryKey))
	_, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, []model.Message{model.SeedMessage()}, stored(t, kv))
}

func TestLoad_WriteBackFailure(t *testing.T) {
	kv := &flakyKV{MemoryKV: storage.NewMemoryKV()}
	s, err := Open(kv)
	require.NoError(t, err)
	require.NoError(t, s.Append(model.NewUserMessage("hello")))

	require.NoError(t, kv.MemoryKV.Set(HistoryKey, []byte(`not json`)))
	kv.failing = true
	_, err = s.Load()
	require.Error(t, err)
	assert.Equal(t, 2, s.Len())
}

// =============================================================================
// APPEND / RESET
// =============================================================================

func TestAppend(t *testing.T) {
	kv := storage.NewMemoryKV()
	s, err := Open(kv)
	require.NoError(t, err)

	m := model.NewUserMessage("hello")
	require.NoError(t, s.Append(m))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, m.ID, s.Last().ID)
	assert.Len(t, stored(t, kv), 2)

	err = s.Append(m)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 2, s.Len())

	err = s.Append(model.Message{Sender: model.SenderBot, Kind: model.KindText})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	err = s.Append(model.Message{ID: "x", Sender: model.SenderBot, Kind: model.KindRecommendation})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestAppend_FailedWriteLeavesStateUnchanged(t *testing.T) {
	kv := &flakyKV{MemoryKV: storage.NewMemoryKV()}
	s, err := Open(kv)
	require.NoError(t, err)

	kv.failing = true
	err = s.Append(model.NewUserMessage("lost"))
	require.Error(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Len(t, stored(t, kv), 1)

	kv.failing = false
	m := model.NewUserMessage("kept")
	require.NoError(t, s.Append(m))
	assert.Equal(t, m.ID, s.Last().ID)
}

func TestReset_Idempotent(t *testing.T) {
	kv := storage.NewMemoryKV()
	s, err := Open(kv)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(model.NewUserMessage(fmt.Sprintf("msg %d", i))))
	}

	require.NoError(t, s.Reset())
	once := s.Messages()
	onceStored := stored(t, kv)

	require.NoError(t, s.Reset())
	assert.Equal(t, once, s.Messages())
	assert.Equal(t, onceStored, stored(t, kv))
	assert.Equal(t, []model.Message{model.SeedMessage()}, once)

	// Reset from a fresh store gives the same state as first use.
	fresh, err := Open(storage.NewMemoryKV())
	require.NoError(t, err)
	assert.Equal(t, fresh.Messages(), once)
}

func TestLatestRecommendation(t *testing.T) {
	s, err := Open(storage.NewMemoryKV())
	require.NoError(t, err)

	_, ok := s.LatestRecommendation()
	assert.False(t, ok)

	require.NoError(t, s.Append(model.NewRecommendationMessage(sampleCard())))
	require.NoError(t, s.Append(model.NewUserMessage("thanks")))

	card, ok := s.LatestRecommendation()
	require.True(t, ok)
	assert.Equal(t, "Reconciliation Bouquet", card.Title)
}

func TestConcurrentAppend(t *testing.T) {
	s, err := Open(storage.NewMemoryKV())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(model.NewUserMessage(fmt.Sprintf("m%d", i))))
			_ = s.Messages()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 21, s.Len())
}
