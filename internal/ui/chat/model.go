// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nothing0113/database5team/internal/cart"
	pipeline "github.com/nothing0113/database5team/internal/chat"
	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/ui/render"
	"github.com/nothing0113/database5team/internal/ui/styles"
)

// MaxInputLength caps a situation typed into the input.
const MaxInputLength = 1000

// Session is the part of the pipeline the screen drives.
type Session interface {
	Send(ctx context.Context, input string) (pipeline.Outcome, error)
	Cancel() bool
	Reset() error
	Messages() []model.Message
	State() pipeline.State
	Indicator() string
}

// Cart receives orders picked from a recommendation.
type Cart interface {
	AddToCart(store model.AvailableStore, card model.RecommendationCard) (cart.PendingOrder, error)
}

// Options configure the screen.
type Options struct {
	Theme    *styles.Theme
	Renderer *render.Renderer
	Keys     *KeyMap
	// Context bounds every Send. Defaults to context.Background().
	Context context.Context
}

type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeWarn
	noticeError
)

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	session  Session
	cart     Cart
	bridge   *Bridge
	theme    *styles.Theme
	renderer *render.Renderer
	keys     KeyMap
	ctx      context.Context

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	messages  []model.Message
	sending   bool
	indicator string

	notice      string
	noticeLevel noticeLevel

	confirmReset bool

	// cards caches rendered recommendation cards by message id.
	cards map[string]string

	width  int
	height int
	ready  bool
}

// New creates the chat screen.
func New(session Session, carts Cart, bridge *Bridge, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.Options{})
	}
	if opts.Renderer == nil {
		opts.Renderer, _ = render.New(render.Options{})
	}
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	ti := textinput.New()
	ti.Placeholder = "Describe your situation... (e.g. my best friend got a new job)"
	ti.CharLimit = MaxInputLength
	ti.Prompt = "🌸 "
	ti.PromptStyle = opts.Theme.InputPrompt
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = styles.BloomSpinner.Bubble()
	sp.Style = opts.Theme.Spinner

	return Model{
		session:  session,
		cart:     carts,
		bridge:   bridge,
		theme:    opts.Theme,
		renderer: opts.Renderer,
		keys:     keys,
		ctx:      opts.Context,
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
		messages: session.Messages(),
		sending:  session.State() == pipeline.StateSending,
		cards:    make(map[string]string),
	}
}

// Init starts the cursor blink and listens for hook messages.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.bridge != nil {
		cmds = append(cmds, m.bridge.Wait())
	}
	return tea.Batch(cmds...)
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		m.sending = msg.State == pipeline.StateSending
		cmds := []tea.Cmd{m.waitBridge()}
		if m.sending {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case IndicatorMsg:
		m.indicator = msg.Text
		return m, m.waitBridge()

	case MessageAddedMsg:
		m.refreshMessages()
		return m, m.waitBridge()

	case bridgeClosedMsg:
		return m, nil

	case SendDoneMsg:
		m.sending = false
		m.indicator = ""
		m.refreshMessages()
		m.handleSendResult(msg)
		return m, nil

	case ResetDoneMsg:
		if msg.Err != nil {
			m.setNotice(noticeError, "Reset failed: "+msg.Err.Error())
			return m, nil
		}
		m.cards = make(map[string]string)
		m.refreshMessages()
		m.setNotice(noticeInfo, "Conversation reset.")
		return m, nil

	case CartAddedMsg:
		m.handleCartResult(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmReset && !key.Matches(msg, m.keys.Quit) {
		m.confirmReset = false
		if msg.String() == "y" || msg.String() == "Y" {
			return m, m.resetCmd()
		}
		m.setNotice(noticeInfo, "Reset cancelled.")
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.sending {
			m.session.Cancel()
		}
		if m.bridge != nil {
			m.bridge.Close()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.sending && m.session.Cancel() {
			m.setNotice(noticeInfo, "Cancelling...")
			return m, nil
		}
		m.notice = ""
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Reset):
		if m.sending {
			m.setNotice(noticeWarn, "Wait for the current recommendation to finish.")
			return m, nil
		}
		m.confirmReset = true
		return m, nil

	case key.Matches(msg, m.keys.AddStore):
		n, _ := strconv.Atoi(strings.TrimPrefix(msg.String(), "alt+"))
		cmd := m.addStore(n)
		return m, cmd

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	input := m.input.Value()
	if m.sending {
		m.setNotice(noticeWarn, "Still working on your last request.")
		return m, nil
	}
	if strings.TrimSpace(input) == "" {
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	m.sending = true
	session, ctx := m.session, m.ctx
	send := func() tea.Msg {
		outcome, err := session.Send(ctx, input)
		return SendDoneMsg{Outcome: outcome, Err: err}
	}
	return m, tea.Batch(send, m.spinner.Tick)
}

func (m *Model) handleSendResult(msg SendDoneMsg) {
	switch {
	case errors.Is(msg.Err, pipeline.ErrBusy):
		m.setNotice(noticeWarn, "Still working on your last request.")
	case errors.Is(msg.Err, pipeline.ErrEmptyInput):
	case msg.Err != nil:
		m.setNotice(noticeError, "Could not send: "+msg.Err.Error())
	case msg.Outcome == pipeline.OutcomeCancelled:
		m.setNotice(noticeInfo, "Request cancelled.")
	case msg.Outcome == pipeline.OutcomeNoResult:
		m.setNotice(noticeWarn, "The florist finished without a recommendation. Try rephrasing.")
	}
}

func (m Model) resetCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return ResetDoneMsg{Err: session.Reset()}
	}
}

// addStore orders the n-th store (1-based) of the latest recommendation.
func (m *Model) addStore(n int) tea.Cmd {
	card, ok := latestCard(m.messages)
	if !ok {
		m.setNotice(noticeWarn, "No recommendation yet. Describe your situation first.")
		return nil
	}
	if n < 1 || n > len(card.AvailableStores) {
		m.setNotice(noticeWarn, fmt.Sprintf("The latest recommendation has %d store(s).", len(card.AvailableStores)))
		return nil
	}
	if m.cart == nil {
		m.setNotice(noticeWarn, "The cart is not available.")
		return nil
	}

	store, carts := card.AvailableStores[n-1], m.cart
	return func() tea.Msg {
		order, err := carts.AddToCart(store, card)
		return CartAddedMsg{Order: order, Err: err}
	}
}

func (m *Model) handleCartResult(msg CartAddedMsg) {
	var notice *cart.Notice
	switch {
	case errors.As(msg.Err, &notice):
		m.setNotice(noticeWarn, notice.Message)
	case msg.Err != nil:
		m.setNotice(noticeError, "Could not add to cart: "+msg.Err.Error())
	default:
		m.setNotice(noticeInfo, fmt.Sprintf("Added %q from %s to your cart (%s).",
			msg.Order.Item.Name, msg.Order.Item.StoreName, model.FormatPrice(msg.Order.Item.Price)))
	}
}

func (m Model) waitBridge() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	return m.bridge.Wait()
}

func (m *Model) setNotice(level noticeLevel, text string) {
	m.notice = text
	m.noticeLevel = level
}

func (m *Model) refreshMessages() {
	m.messages = m.session.Messages()
	if m.ready {
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
	}
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width, m.height = msg.Width, msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.input.Width = max(msg.Width-6, 10)

	m.viewport.Width = msg.Width
	m.viewport.Height = max(msg.Height-chromeHeight, 1)
	m.ready = true
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
	return m
}

// latestCard returns the newest recommendation in msgs.
func latestCard(msgs []model.Message) (model.RecommendationCard, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind == model.KindRecommendation && msgs[i].Data != nil {
			return *msgs[i].Data, true
		}
	}
	return model.RecommendationCard{}, false
}
