// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ucli "github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/nothing0113/database5team/internal/config"
	"github.com/nothing0113/database5team/internal/server"
	"github.com/nothing0113/database5team/internal/ui/styles"
)

// serve runs the recommendation API until interrupted.
func (r *runner) serve(c *ucli.Context) error {
	cfg := r.cfg.Server
	override := func(flag string, dst *string) {
		if v := c.String(flag); v != "" {
			*dst = v
		}
	}
	override("addr", &cfg.Addr)
	override("catalog", &cfg.CatalogPath)
	override("llm-url", &cfg.LLMBaseURL)
	override("llm-model", &cfg.LLMModel)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := server.OpenCatalog(config.ExpandPath(cfg.CatalogPath))
	if err != nil {
		return err
	}
	defer catalog.Close()
	if err := catalog.Seed(ctx); err != nil {
		return err
	}

	designer, err := server.NewRecommender(cfg, r.logger)
	if err != nil {
		return err
	}
	designerName := "catalog"
	if cfg.LLMBaseURL != "" {
		designerName = cfg.LLMModel + " at " + cfg.LLMBaseURL
	}

	srv := server.New(server.FromConfig(cfg), catalog, designer, r.logger)
	fmt.Fprintln(c.App.Writer, styles.RenderInfo(fmt.Sprintf("FloMe API on http://%s (designer: %s)", cfg.Addr, designerName)))
	r.logger.Info("serving",
		zap.String("addr", cfg.Addr),
		zap.String("catalog", cfg.CatalogPath),
		zap.String("designer", designerName),
	)
	return srv.ListenAndServe(ctx)
}
