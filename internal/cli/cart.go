// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strconv"

	ucli "github.com/urfave/cli/v2"

	"github.com/nothing0113/database5team/internal/cart"
	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/storage"
	"github.com/nothing0113/database5team/internal/ui/styles"
	"github.com/nothing0113/database5team/internal/util"
)

// withCart opens storage and hands fn a cart service on it.
func (r *runner) withCart(fn func(kv storage.KV, svc *cart.Service) error) error {
	kv, err := r.openKV()
	if err != nil {
		return err
	}
	defer storage.Close(kv)
	return fn(kv, cart.NewService(kv, r.logger))
}

// indexArg parses the 1-based position argument.
func indexArg(c *ucli.Context) (int, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected one number, got %d argument(s)", c.NArg())
	}
	n, err := strconv.Atoi(c.Args().First())
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a position (1, 2, ...)", c.Args().First())
	}
	return n, nil
}

func (r *runner) cartAdd(c *ucli.Context) error {
	n, err := indexArg(c)
	if err != nil {
		return err
	}
	return r.withCart(func(kv storage.KV, svc *cart.Service) error {
		store, err := r.openSession(kv)
		if err != nil {
			return err
		}
		card, ok := store.LatestRecommendation()
		if !ok {
			return errors.New("no recommendation yet; run 'flome ask' first")
		}
		if n > len(card.AvailableStores) {
			return fmt.Errorf("the latest recommendation has %d store(s)", len(card.AvailableStores))
		}

		order, err := svc.AddToCart(card.AvailableStores[n-1], *card)
		var notice *cart.Notice
		if errors.As(err, &notice) {
			fmt.Fprintln(c.App.ErrWriter, styles.RenderWarning(notice.Message))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, styles.RenderSuccess(fmt.Sprintf("Added %q from %s (%s).",
			order.Item.Name, order.Item.StoreName, model.FormatPrice(order.Item.Price))))
		return nil
	})
}

func (r *runner) cartList(c *ucli.Context) error {
	return r.withCart(func(_ storage.KV, svc *cart.Service) error {
		items, err := svc.Items()
		if err != nil {
			return err
		}
		out := c.App.Writer
		if len(items) == 0 {
			fmt.Fprintln(out, "The cart is empty.")
			return nil
		}

		width := GetTerminalWidth()
		for i, it := range items {
			line := fmt.Sprintf("%d. %s, %s x%d  %s", i+1, it.Name, it.StoreName, it.Quantity, model.FormatPrice(it.Price))
			fmt.Fprintln(out, util.TruncateWidth(line, width))
		}
		total, err := svc.Total()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Total: %s\n", model.FormatPrice(total))

		pending, err := svc.PendingContext()
		if err != nil {
			return err
		}
		if pending != nil && pending.Prompt != "" {
			fmt.Fprintln(out, util.TruncateWidth("For: "+util.SingleLine(pending.Prompt), width))
		}
		return nil
	})
}

func (r *runner) cartRemove(c *ucli.Context) error {
	n, err := indexArg(c)
	if err != nil {
		return err
	}
	return r.withCart(func(_ storage.KV, svc *cart.Service) error {
		if err := svc.Remove(n - 1); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, styles.RenderSuccess(fmt.Sprintf("Removed item %d.", n)))
		return nil
	})
}

func (r *runner) cartClear(c *ucli.Context) error {
	return r.withCart(func(_ storage.KV, svc *cart.Service) error {
		if err := svc.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, styles.RenderSuccess("Cart cleared."))
		return nil
	})
}
