// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"
	ucli "github.com/urfave/cli/v2"

	pipeline "github.com/nothing0113/database5team/internal/chat"
	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/session"
	"github.com/nothing0113/database5team/internal/storage"
	"github.com/nothing0113/database5team/internal/ui/render"
	"github.com/nothing0113/database5team/internal/ui/styles"
)

// errNoSituation is returned when ask gets nothing to work with.
var errNoSituation = errors.New("describe your situation, e.g. flome ask \"my best friend got a new job\"")

// ask sends one situation and prints progress to stderr and the card to
// stdout. Ctrl+C cancels the stream.
func (r *runner) ask(c *ucli.Context) error {
	situation := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if situation == "" && IsTTY() {
		var err error
		if situation, err = promptSituation(); err != nil {
			return err
		}
	}
	if situation == "" {
		return errNoSituation
	}

	kv, err := r.openKV()
	if err != nil {
		return err
	}
	defer storage.Close(kv)
	if c.Bool("no-save") {
		kv = storage.NewMemoryKV()
	}
	store, err := r.openSession(kv)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	errOut := c.App.ErrWriter
	pipe := r.pipeline(store, pipeline.Hooks{
		OnIndicator: func(text string) {
			if text != "" {
				fmt.Fprintln(errOut, styles.RenderInfo(text))
			}
		},
	})

	outcome, err := pipe.Send(ctx, situation)
	if err != nil {
		return err
	}
	return r.printOutcome(c.App.Writer, errOut, outcome, store)
}

func (r *runner) printOutcome(out, errOut io.Writer, outcome pipeline.Outcome, store *session.Store) error {
	switch outcome {
	case pipeline.OutcomeRecommendation:
		card, ok := store.LatestRecommendation()
		if !ok {
			return errors.New("recommendation was not saved")
		}
		if r.profile == termenv.Ascii {
			fmt.Fprintln(out, render.CardMarkdown(*card))
			return nil
		}
		fmt.Fprint(out, r.renderer(GetTerminalWidth()).Card(*card))
	case pipeline.OutcomeFallback:
		fmt.Fprintln(errOut, styles.RenderError(model.FallbackReply))
		return errors.New("recommendation failed")
	case pipeline.OutcomeCancelled:
		fmt.Fprintln(errOut, styles.RenderWarning("Cancelled."))
	case pipeline.OutcomeNoResult:
		fmt.Fprintln(errOut, styles.RenderWarning("The florist finished without a recommendation. Try rephrasing."))
	}
	return nil
}

// promptSituation reads one line with history-free line editing. Ctrl+C and
// Ctrl+D yield an empty situation.
func promptSituation() (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	input, err := line.Prompt("How are you feeling? ")
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read situation: %w", err)
	}
	return strings.TrimSpace(input), nil
}
