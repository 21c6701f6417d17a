// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nothing0113/database5team/internal/cart"
	pipeline "github.com/nothing0113/database5team/internal/chat"
	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/session"
	"github.com/nothing0113/database5team/internal/storage"
	"github.com/nothing0113/database5team/internal/ui/render"
	"github.com/nothing0113/database5team/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeSession struct {
	messages  []model.Message
	state     pipeline.State
	sent      []string
	cancelled int
	resets    int
	resetErr  error
}

func (f *fakeSession) Send(ctx context.Context, input string) (pipeline.Outcome, error) {
	f.sent = append(f.sent, input)
	return pipeline.OutcomeRecommendation, nil
}
func (f *fakeSession) Cancel() bool              { f.cancelled++; return true }
func (f *fakeSession) Reset() error              { f.resets++; return f.resetErr }
func (f *fakeSession) Messages() []model.Message { return f.messages }
func (f *fakeSession) State() pipeline.State     { return f.state }
func (f *fakeSession) Indicator() string         { return "" }

type fakeCart struct {
	stores []model.AvailableStore
}

func (f *fakeCart) AddToCart(store model.AvailableStore, card model.RecommendationCard) (cart.PendingOrder, error) {
	f.stores = append(f.stores, store)
	return cart.BuildOrder(store, card)
}

func testCardMessage() model.Message {
	price := 45000.0
	return model.NewRecommendationMessage(model.RecommendationCard{
		Recommendation: model.Recommendation{
			Title:   "Tulips of Reconciliation",
			Flowers: []model.Flower{{Name: "White tulip", Role: "main"}},
			Letter:  "Let us begin again.",
			AvailableStores: []model.AvailableStore{
				{StoreID: "1", Name: "Happy Florist", Address: "123 Teheran-ro", ProductID: "7", ProductPrice: &price},
				{StoreID: "2", Name: "Corner Shop", Address: "5 Main St"},
			},
		},
		OriginalPrompt: "sorry",
	})
}

func newTestModel(t *testing.T, sess *fakeSession, carts Cart) Model {
	t.Helper()
	theme := styles.NewTheme(styles.Options{Mode: "dark", NoColor: true})
	r, err := render.New(render.Options{Style: "notty", Width: 60})
	require.NoError(t, err)

	m := New(sess, carts, nil, Options{Theme: theme, Renderer: r})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func altKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

// =============================================================================
// TESTS
// =============================================================================

func TestView_BeforeResize(t *testing.T) {
	sess := &fakeSession{messages: []model.Message{model.SeedMessage()}}
	m := New(sess, nil, nil, Options{Theme: styles.NewTheme(styles.Options{NoColor: true})})
	assert.Equal(t, "Loading...", m.View())
}

func TestView_ShowsConversation(t *testing.T) {
	sess := &fakeSession{messages: []model.Message{
		model.SeedMessage(),
		model.NewUserMessage("I had a fight"),
		testCardMessage(),
	}}
	m := newTestModel(t, sess, nil)

	m.viewport.GotoTop()
	content := m.renderMessages()
	assert.Contains(t, content, "FloMe AI florist")
	assert.Contains(t, content, "I had a fight")
	assert.Contains(t, content, "Tulips of Reconciliation")
	assert.Contains(t, content, "45,000원")

	view := m.View()
	assert.Contains(t, view, "💐 FloMe")
	assert.Contains(t, view, "idle")
}

func TestSubmit(t *testing.T) {
	sess := &fakeSession{messages: []model.Message{model.SeedMessage()}}
	m := newTestModel(t, sess, nil)

	m = typeText(m, "my mom's birthday")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.sending)
	assert.Empty(t, m.input.Value())

	// Run the batch and find the send result.
	var done *SendDoneMsg
	for _, c := range cmd().(tea.BatchMsg) {
		if msg, ok := c().(SendDoneMsg); ok {
			done = &msg
		}
	}
	require.NotNil(t, done)
	assert.Equal(t, []string{"my mom's birthday"}, sess.sent)

	next, _ := m.Update(*done)
	m = next.(Model)
	assert.False(t, m.sending)
	assert.Empty(t, m.notice)
}

func TestSubmit_UnicodeSpaceIsBlank(t *testing.T) {
	sess := &fakeSession{messages: []model.Message{model.SeedMessage()}}
	m := newTestModel(t, sess, nil)

	m = typeText(m, "\u3000\u00a0")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.sending)
	assert.Empty(t, sess.sent)
}

func TestSubmit_BlankAndBusy(t *testing.T) {
	sess := &fakeSession{messages: []model.Message{model.SeedMessage()}}
	m := newTestModel(t, sess, nil)

	m = typeText(m, "   ")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.sending)

	m.sending = true
	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "Still working on your last request.", m.notice)
	assert.Empty(t, sess.sent)
}

func TestSendResultNotices(t *testing.T) {
	tests := []struct {
		name  string
		msg   SendDoneMsg
		want  string
		level noticeLevel
	}{
		{"recommendation", SendDoneMsg{Outcome: pipeline.OutcomeRecommendation}, "", noticeInfo},
		{"fallback", SendDoneMsg{Outcome: pipeline.OutcomeFallback}, "", noticeInfo},
		{"cancelled", SendDoneMsg{Outcome: pipeline.OutcomeCancelled}, "Request cancelled.", noticeInfo},
		{"no result", SendDoneMsg{Outcome: pipeline.OutcomeNoResult}, "The florist finished without a recommendation. Try rephrasing.", noticeWarn},
		{"busy", SendDoneMsg{Err: pipeline.ErrBusy}, "Still working on your last request.", noticeWarn},
		{"empty", SendDoneMsg{Err: pipeline.ErrEmptyInput}, "", noticeInfo},
		{"storage", SendDoneMsg{Err: errors.New("disk full")}, "Could not send: disk full", noticeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, &fakeSession{}, nil)
			m.sending = true
			next, _ := m.Update(tt.msg)
			m = next.(Model)
			assert.False(t, m.sending)
			assert.Equal(t, tt.want, m.notice)
			assert.Equal(t, tt.level, m.noticeLevel)
		})
	}
}

func TestCancelKey(t *testing.T) {
	sess := &fakeSession{}
	m := newTestModel(t, sess, nil)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 0, sess.cancelled, "nothing to cancel while idle")

	m.sending = true
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 1, sess.cancelled)
	assert.Equal(t, "Cancelling...", m.notice)
}

func TestResetFlow(t *testing.T) {
	sess := &fakeSession{messages: []model.Message{model.SeedMessage()}}
	m := newTestModel(t, sess, nil)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, cmd)
	assert.True(t, m.confirmReset)
	assert.Contains(t, m.View(), "Reset the conversation? (y/N)")

	// Anything but y backs out.
	m, cmd = press(m, runeKey('n'))
	assert.Nil(t, cmd)
	assert.False(t, m.confirmReset)
	assert.Equal(t, "Reset cancelled.", m.notice)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m, cmd = press(m, runeKey('y'))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, ResetDoneMsg{}, msg)
	assert.Equal(t, 1, sess.resets)

	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Equal(t, "Conversation reset.", m.notice)
}

func TestResetWhileSending(t *testing.T) {
	sess := &fakeSession{}
	m := newTestModel(t, sess, nil)
	m.sending = true

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.False(t, m.confirmReset)
	assert.Equal(t, "Wait for the current recommendation to finish.", m.notice)
}

func TestResetError(t *testing.T) {
	m := newTestModel(t, &fakeSession{}, nil)
	next, _ := m.Update(ResetDoneMsg{Err: errors.New("read-only")})
	m = next.(Model)
	assert.Equal(t, "Reset failed: read-only", m.notice)
	assert.Equal(t, noticeError, m.noticeLevel)
}

func TestAddStore(t *testing.T) {
	sess := &fakeSession{messages: []model.Message{model.SeedMessage(), testCardMessage()}}
	carts := &fakeCart{}
	m := newTestModel(t, sess, carts)

	m, cmd := press(m, altKey('1'))
	require.NotNil(t, cmd)
	msg := cmd().(CartAddedMsg)
	require.NoError(t, msg.Err)
	require.Len(t, carts.stores, 1)
	assert.Equal(t, "Happy Florist", carts.stores[0].Name)

	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Equal(t, `Added "[AI] Tulips of Reconciliation" from Happy Florist to your cart (45,000원).`, m.notice)

	// The second store has no product.
	m, cmd = press(m, altKey('2'))
	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, cart.ErrNoOrderableProduct.Message, m.notice)
	assert.Equal(t, noticeWarn, m.noticeLevel)

	m, cmd = press(m, altKey('5'))
	assert.Nil(t, cmd)
	assert.Equal(t, "The latest recommendation has 2 store(s).", m.notice)
}

func TestAddStore_DigitsGoToInputWhenTyping(t *testing.T) {
	sess := &fakeSession{messages: []model.Message{testCardMessage()}}
	carts := &fakeCart{}
	m := newTestModel(t, sess, carts)

	m = typeText(m, "3 roses")
	assert.Equal(t, "3 roses", m.input.Value())
	m = typeText(m, "1")
	assert.Equal(t, "3 roses1", m.input.Value())
	assert.Empty(t, carts.stores)
	assert.Empty(t, m.notice)
}

func TestAddStore_WhileTyping(t *testing.T) {
	sess := &fakeSession{messages: []model.Message{testCardMessage()}}
	carts := &fakeCart{}
	m := newTestModel(t, sess, carts)

	m = typeText(m, "for mom")
	m, cmd := press(m, altKey('1'))
	require.NotNil(t, cmd)
	_ = cmd()
	require.Len(t, carts.stores, 1)
	assert.Equal(t, "for mom", m.input.Value())
}

func TestAddStore_NoRecommendation(t *testing.T) {
	m := newTestModel(t, &fakeSession{messages: []model.Message{model.SeedMessage()}}, &fakeCart{})
	m, cmd := press(m, altKey('1'))
	assert.Nil(t, cmd)
	assert.Equal(t, "No recommendation yet. Describe your situation first.", m.notice)
}

func TestQuitCancelsAndClosesBridge(t *testing.T) {
	sess := &fakeSession{}
	bridge := NewBridge()
	m := New(sess, nil, bridge, Options{Theme: styles.NewTheme(styles.Options{NoColor: true})})
	m.sending = true

	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, 1, sess.cancelled)
	assert.Equal(t, bridgeClosedMsg{}, bridge.Wait()())
}

func TestIndicatorView(t *testing.T) {
	m := newTestModel(t, &fakeSession{}, nil)

	next, _ := m.Update(StateMsg{State: pipeline.StateSending})
	m = next.(Model)
	assert.Contains(t, m.View(), "Sending...")
	assert.Contains(t, m.View(), "recommending")

	next, _ = m.Update(IndicatorMsg{Text: "Checking the flower inventory..."})
	m = next.(Model)
	assert.Contains(t, m.View(), "Checking the flower inventory...")

	next, _ = m.Update(StateMsg{State: pipeline.StateIdle})
	m = next.(Model)
	assert.NotContains(t, m.View(), "Checking the flower inventory...")
}

// TestBridge_WithPipeline checks that a real pipeline's hooks reach the
// screen in order.
func TestBridge_WithPipeline(t *testing.T) {
	store, err := session.Open(storage.NewMemoryKV())
	require.NoError(t, err)

	body := `{"type":"progress","message":"A"}` + "\n" +
		`{"type":"result","data":{"title":"T","flowers":[],"available_stores":[]}}`
	bridge := NewBridge()
	defer bridge.Close()
	pipe := pipeline.New(store, requesterFunc(func(ctx context.Context, s string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	}), pipeline.WithHooks(bridge.Hooks()))

	done := make(chan pipeline.Outcome, 1)
	go func() {
		out, _ := pipe.Send(context.Background(), "hello")
		done <- out
	}()

	var got []tea.Msg
	deadline := time.After(2 * time.Second)
	for len(got) < 7 {
		msgCh := make(chan tea.Msg, 1)
		go func() { msgCh <- bridge.Wait()() }()
		select {
		case msg := <-msgCh:
			got = append(got, msg)
		case <-deadline:
			t.Fatalf("timed out after %d messages: %v", len(got), got)
		}
	}
	assert.Equal(t, pipeline.OutcomeRecommendation, <-done)

	assert.Equal(t, StateMsg{State: pipeline.StateSending}, got[0])
	assert.IsType(t, MessageAddedMsg{}, got[1])
	assert.Equal(t, IndicatorMsg{Text: pipeline.DefaultIndicator}, got[2])
	assert.Equal(t, IndicatorMsg{Text: "A"}, got[3])
	added := got[4].(MessageAddedMsg)
	assert.Equal(t, model.KindRecommendation, added.Message.Kind)
	assert.Equal(t, IndicatorMsg{Text: ""}, got[5])
	assert.Equal(t, StateMsg{State: pipeline.StateIdle}, got[6])
}

type requesterFunc func(ctx context.Context, situation string) (io.ReadCloser, error)

func (f requesterFunc) Recommend(ctx context.Context, situation string) (io.ReadCloser, error) {
	return f(ctx, situation)
}
