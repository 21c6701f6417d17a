// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/stream"
	"go.uber.org/zap"
)

// DefaultIndicator is shown from the moment a request is issued until the
// first progress update arrives.
const DefaultIndicator = "AI is analyzing your situation..."

// =============================================================================
// STATE
// =============================================================================

// State is the pipeline state.
type State int

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// Outcome describes how a Send ended.
type Outcome int

const (
	OutcomeNone           Outcome = iota // rejected before a request was made
	OutcomeRecommendation                // a recommendation message was appended
	OutcomeFallback                      // the apology message was appended
	OutcomeCancelled                     // cancelled, nothing appended
	OutcomeNoResult                      // stream ended cleanly without a result
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecommendation:
		return "recommendation"
	case OutcomeFallback:
		return "fallback"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeNoResult:
		return "no_result"
	default:
		return "none"
	}
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Conversation is the message log the pipeline appends to.
type Conversation interface {
	Append(m model.Message) error
	Reset() error
	Messages() []model.Message
}

// Requester opens a recommendation stream. The returned body is read
// incrementally and closed by the pipeline.
type Requester interface {
	Recommend(ctx context.Context, situation string) (io.ReadCloser, error)
}

// Hooks observe the pipeline. They are called synchronously from the
// goroutine running Send and must not call back into the Pipeline.
type Hooks struct {
	OnState     func(State)
	OnIndicator func(text string)
	OnMessage   func(model.Message)
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline drives one conversation. It is safe for concurrent use; at most
// one Send is in flight at a time.
type Pipeline struct {
	conv   Conversation
	req    Requester
	engine *stream.Engine
	logger *zap.Logger
	hooks  Hooks

	mu        sync.Mutex
	state     State
	indicator string

	cancelMgr cancelManager
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithEngine replaces the default stream engine.
func WithEngine(e *stream.Engine) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.engine = e
		}
	}
}

// WithHooks installs observers.
func WithHooks(h Hooks) Option {
	return func(p *Pipeline) {
		p.hooks = h
	}
}

// New creates an idle pipeline.
func New(conv Conversation, req Requester, opts ...Option) *Pipeline {
	p := &Pipeline{
		conv:   conv,
		req:    req,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.engine == nil {
		p.engine = stream.NewEngine(stream.WithLogger(p.logger))
	}
	return p
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Indicator returns the loading indicator text, empty when Idle.
func (p *Pipeline) Indicator() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indicator
}

// Messages returns the conversation.
func (p *Pipeline) Messages() []model.Message {
	return p.conv.Messages()
}

// Send submits input and blocks until the recommendation stream ends.
//
// Blank input returns ErrEmptyInput and a Send while another is in flight
// returns ErrBusy; neither appends anything or makes a request. Otherwise the
// returned error is non-nil only when the conversation could not be saved.
func (p *Pipeline) Send(ctx context.Context, input string) (Outcome, error) {
	if strings.TrimSpace(input) == "" {
		return OutcomeNone, ErrEmptyInput
	}
	if !p.begin() {
		return OutcomeNone, ErrBusy
	}
	defer p.finish()

	if err := p.append(model.NewUserMessage(input)); err != nil {
		return OutcomeNone, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancelMgr.set(cancel)
	defer p.cancelMgr.cancel()

	p.setIndicator(DefaultIndicator)

	body, err := p.req.Recommend(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Info("recommendation cancelled before response")
			return OutcomeCancelled, nil
		}
		p.logger.Error("recommendation request failed", zap.Error(err))
		return p.fallback()
	}
	defer body.Close()

	var result *model.Recommendation
	stats, err := p.engine.Process(ctx, body, func(ev stream.Event) bool {
		switch ev := ev.(type) {
		case stream.Progress:
			if ev.Message != "" {
				p.setIndicator(ev.Message)
			}
		case stream.Result:
			rec := ev.Recommendation
			result = &rec
			return false
		}
		return true
	})

	switch {
	case result != nil:
		card := model.RecommendationCard{Recommendation: *result, OriginalPrompt: input}
		if err := p.append(model.NewRecommendationMessage(card)); err != nil {
			return OutcomeNone, err
		}
		p.logger.Info("recommendation received",
			zap.String("title", result.Title),
			zap.Int("stores", len(result.AvailableStores)),
			zap.Int("skipped_lines", stats.Skipped),
		)
		return OutcomeRecommendation, nil

	case stream.IsCancelled(err):
		p.logger.Info("recommendation cancelled", zap.Int("events", stats.Events))
		return OutcomeCancelled, nil

	case err != nil:
		p.logger.Error("recommendation stream failed", zap.Error(err), zap.Int("events", stats.Events))
		return p.fallback()

	default:
		p.logger.Warn("recommendation stream ended without a result",
			zap.Int("lines", stats.Lines), zap.Int("skipped", stats.Skipped))
		return OutcomeNoResult, nil
	}
}

// Cancel abandons the outstanding stream, if any. Send then returns
// OutcomeCancelled without appending a message.
func (p *Pipeline) Cancel() bool {
	return p.cancelMgr.cancel()
}

// Reset puts the conversation back to the seed greeting. It is refused
// while a recommendation is streaming.
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateSending {
		return ErrBusy
	}
	return p.conv.Reset()
}

// =============================================================================
// INTERNALS
// =============================================================================

// begin moves Idle to Sending. It reports false if already Sending.
func (p *Pipeline) begin() bool {
	p.mu.Lock()
	if p.state == StateSending {
		p.mu.Unlock()
		return false
	}
	p.state = StateSending
	p.mu.Unlock()

	if p.hooks.OnState != nil {
		p.hooks.OnState(StateSending)
	}
	return true
}

// finish clears the indicator and returns to Idle.
func (p *Pipeline) finish() {
	p.setIndicator("")

	p.mu.Lock()
	p.state = StateIdle
	p.mu.Unlock()

	if p.hooks.OnState != nil {
		p.hooks.OnState(StateIdle)
	}
}

func (p *Pipeline) setIndicator(text string) {
	p.mu.Lock()
	if p.indicator == text {
		p.mu.Unlock()
		return
	}
	p.indicator = text
	p.mu.Unlock()

	if p.hooks.OnIndicator != nil {
		p.hooks.OnIndicator(text)
	}
}

func (p *Pipeline) append(m model.Message) error {
	if err := p.conv.Append(m); err != nil {
		p.logger.Error("failed to save message", zap.String("id", m.ID), zap.Error(err))
		return err
	}
	if p.hooks.OnMessage != nil {
		p.hooks.OnMessage(m)
	}
	return nil
}

func (p *Pipeline) fallback() (Outcome, error) {
	if err := p.append(model.NewBotText(model.FallbackReply)); err != nil {
		return OutcomeNone, err
	}
	return OutcomeFallback, nil
}
