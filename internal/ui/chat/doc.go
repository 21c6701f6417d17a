// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the Bubble Tea chat screen of flome.

The screen shows the conversation in a scrollable viewport, a text input,
and a status bar. While a recommendation streams, a spinner and the latest
progress text sit above the input.

# Wiring

The pipeline reports state, progress and new messages through hooks that
run on the goroutine doing the Send. A Bridge turns those calls into tea
messages:

	bridge := chat.NewBridge()
	pipe := pipeline.New(store, client, pipeline.WithHooks(bridge.Hooks()))
	m := chat.New(pipe, carts, bridge, chat.Options{})
	tea.NewProgram(m, tea.WithAltScreen()).Run()

# Keys

  - Enter: send the situation
  - Esc: cancel the outstanding recommendation
  - Ctrl+R: reset the conversation (asks for confirmation)
  - Alt+1..Alt+9: add that store of the latest recommendation to the cart.
    Plain digits always go to the input.
  - PgUp/PgDn, Up/Down: scroll
  - Ctrl+C: quit
*/
package chat
