// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	ucli "github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/nothing0113/database5team/internal/cart"
	"github.com/nothing0113/database5team/internal/storage"
	chatui "github.com/nothing0113/database5team/internal/ui/chat"
	"github.com/nothing0113/database5team/internal/ui/styles"
)

// chat runs the full-screen chat. Logs go to the configured file because the
// screen belongs to Bubble Tea.
func (r *runner) chat(c *ucli.Context) error {
	if !IsTTY() || !IsStdoutTTY() {
		return errors.New("the chat screen needs a terminal; use 'flome ask' when piping")
	}

	kv, err := r.openKV()
	if err != nil {
		return err
	}
	defer storage.Close(kv)

	store, err := r.openSession(kv)
	if err != nil {
		return err
	}

	bridge := chatui.NewBridge()
	defer bridge.Close()

	pipe := r.pipeline(store, bridge.Hooks())
	theme := styles.NewTheme(styles.Options{Mode: r.cfg.UI.Theme, NoColor: r.cfg.UI.NoColor})
	// Cards sit inside a bubble, so wrap them a little narrower than the screen.
	rend := r.renderer(GetTerminalWidth() * 4 / 5)

	m := chatui.New(pipe, cart.NewService(kv, r.logger), bridge, chatui.Options{
		Theme:    theme,
		Renderer: rend,
		Context:  c.Context,
	})

	r.logger.Info("chat started",
		zap.String("api", r.cfg.API.BaseURL),
		zap.String("storage", r.cfg.Storage.Backend),
		zap.Int("messages", len(store.Messages())),
	)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(c.Context))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	r.logger.Info("chat closed")
	return nil
}
