// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	ucli "github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/nothing0113/database5team/internal/export"
	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/session"
	"github.com/nothing0113/database5team/internal/storage"
	"github.com/nothing0113/database5team/internal/ui/styles"
	"github.com/nothing0113/database5team/internal/util"
)

func (r *runner) history(c *ucli.Context) error {
	kv, err := r.openKV()
	if err != nil {
		return err
	}
	defer storage.Close(kv)

	store, err := r.openSession(kv)
	if err != nil {
		return err
	}

	out, width := c.App.Writer, GetTerminalWidth()
	msgs := store.Messages()
	if format := c.String("export"); format != "" {
		return exportHistory(c, msgs, format)
	}
	printMessages(out, tail(msgs, c.Int("limit")), width)
	if !c.Bool("follow") {
		return nil
	}

	fkv, ok := kv.(*storage.FileKV)
	if !ok {
		return fmt.Errorf("--follow needs file storage, not %q", r.cfg.Storage.Backend)
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	changes, err := fkv.Watch(ctx, session.HistoryKey)
	if err != nil {
		return err
	}
	seen := len(msgs)
	for range changes {
		current, err := store.Load()
		if err != nil {
			r.logger.Warn("reload history", zap.Error(err))
			continue
		}
		seen = printNew(out, current, seen, width)
	}
	return nil
}

// printNew prints the messages after the first seen ones and returns the new
// count. A shorter log means the conversation was reset.
func printNew(out io.Writer, msgs []model.Message, seen, width int) int {
	if len(msgs) < seen {
		fmt.Fprintln(out, styles.RenderInfo("Conversation reset."))
		seen = 0
	}
	if len(msgs) > seen {
		printMessages(out, msgs[seen:], width)
	}
	return len(msgs)
}

func printMessages(out io.Writer, msgs []model.Message, width int) {
	for _, m := range msgs {
		fmt.Fprintln(out, historyLine(m, width))
	}
}

// historyLine is "HH:MM Sender: text", cut to width.
func historyLine(m model.Message, width int) string {
	stamp := "--:--"
	if !m.CreatedAt.IsZero() {
		stamp = m.CreatedAt.Local().Format("15:04")
	}
	text := util.SingleLine(m.Text())
	if m.Kind == model.KindRecommendation && m.Data != nil {
		text += fmt.Sprintf(" (%d store(s))", len(m.Data.AvailableStores))
	}
	return util.TruncateWidth(fmt.Sprintf("%s %s: %s", stamp, m.Sender.DisplayName(), text), width)
}

func tail(msgs []model.Message, n int) []model.Message {
	if n <= 0 || n >= len(msgs) {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

func exportHistory(c *ucli.Context, msgs []model.Message, format string) error {
	opts := export.DefaultOptions()
	opts.OutputDir = c.String("out")
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}
	path, err := export.ToFile(msgs, exporter, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, styles.RenderSuccess("Exported to "+path))
	return nil
}

func (r *runner) reset(c *ucli.Context) error {
	kv, err := r.openKV()
	if err != nil {
		return err
	}
	defer storage.Close(kv)

	store, err := r.openSession(kv)
	if err != nil {
		return err
	}
	if err := store.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, styles.RenderSuccess("Conversation reset."))
	return nil
}
