// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	ucli "github.com/urfave/cli/v2"
	"go.uber.org/zap"

	pipeline "github.com/nothing0113/database5team/internal/chat"
	"github.com/nothing0113/database5team/internal/config"
	"github.com/nothing0113/database5team/internal/logging"
	"github.com/nothing0113/database5team/internal/recommend"
	"github.com/nothing0113/database5team/internal/session"
	"github.com/nothing0113/database5team/internal/storage"
	"github.com/nothing0113/database5team/internal/ui/render"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APP
// =============================================================================

// runner carries what every command needs once the global flags have been
// applied.
type runner struct {
	cfg     *config.Config
	logger  *zap.Logger
	profile termenv.Profile
}

// NewApp builds the flome command line. Output goes to app.Writer and
// app.ErrWriter, which tests replace.
func NewApp() *ucli.App {
	r := &runner{}
	return &ucli.App{
		Name:     "flome",
		Usage:    "tell the AI florist how you feel and get a bouquet, a letter and a store",
		Version:  fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		Flags:    globalFlags(),
		Before:   r.before,
		After:    r.after,
		Action:   r.chat,
		Commands: r.commands(),
		// Errors are printed by main.
		ExitErrHandler: func(*ucli.Context, error) {},
	}
}

func globalFlags() []ucli.Flag {
	return []ucli.Flag{
		&ucli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (TOML or JSON)"},
		&ucli.StringFlag{Name: "api-url", Usage: "recommendation API base URL"},
		&ucli.StringFlag{Name: "storage", Usage: "storage backend: file, sqlite or memory"},
		&ucli.StringFlag{Name: "data-dir", Usage: "directory for history and cart"},
		&ucli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&ucli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
	}
}

func (r *runner) commands() []*ucli.Command {
	return []*ucli.Command{
		{
			Name:   "chat",
			Usage:  "open the chat screen",
			Action: r.chat,
		},
		{
			Name:      "ask",
			Usage:     "get one recommendation and print it",
			ArgsUsage: "[situation]",
			Flags: []ucli.Flag{
				&ucli.BoolFlag{Name: "no-save", Usage: "do not add the exchange to the saved conversation"},
			},
			Action: r.ask,
		},
		{
			Name:  "history",
			Usage: "print the saved conversation",
			Flags: []ucli.Flag{
				&ucli.BoolFlag{Name: "follow", Aliases: []string{"f"}, Usage: "keep printing new messages (file storage only)"},
				&ucli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "print only the last N messages"},
				&ucli.StringFlag{Name: "export", Usage: "write the conversation to a file: md or json"},
				&ucli.StringFlag{Name: "out", Value: ".", Usage: "directory for --export"},
			},
			Action: r.history,
		},
		{
			Name:   "reset",
			Usage:  "start the conversation over",
			Action: r.reset,
		},
		{
			Name:  "cart",
			Usage: "manage the cart",
			Subcommands: []*ucli.Command{
				{Name: "add", Usage: "order the N-th store of the latest recommendation", ArgsUsage: "N", Action: r.cartAdd},
				{Name: "list", Usage: "show the cart", Action: r.cartList},
				{Name: "remove", Usage: "remove the N-th cart item", ArgsUsage: "N", Action: r.cartRemove},
				{Name: "clear", Usage: "empty the cart", Action: r.cartClear},
			},
		},
		{
			Name:  "serve",
			Usage: "run the development recommendation API",
			Flags: []ucli.Flag{
				&ucli.StringFlag{Name: "addr", Usage: "listen address"},
				&ucli.StringFlag{Name: "catalog", Usage: "SQLite catalog path"},
				&ucli.StringFlag{Name: "llm-url", Usage: "OpenAI-compatible endpoint for bouquet design"},
				&ucli.StringFlag{Name: "llm-model", Usage: "model name at llm-url"},
			},
			Action: r.serve,
		},
		{
			Name:  "config",
			Usage: "inspect the configuration",
			Subcommands: []*ucli.Command{
				{Name: "show", Usage: "print the effective configuration", Action: r.configShow},
				{Name: "path", Usage: "print the config file location", Action: r.configPath},
				{Name: "init", Usage: "write the default config file", Action: r.configInit},
			},
		},
	}
}

// before loads the config and applies the global flags.
func (r *runner) before(c *ucli.Context) error {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFromPath(config.ExpandPath(path))
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	override := func(flag string, dst *string) {
		if v := c.String(flag); v != "" {
			*dst = v
		}
	}
	override("api-url", &cfg.API.BaseURL)
	override("storage", &cfg.Storage.Backend)
	override("data-dir", &cfg.Storage.Dir)
	override("log-level", &cfg.Log.Level)
	if c.Bool("no-color") {
		cfg.UI.NoColor = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.cfg = cfg
	r.logger = logging.Must(cfg.Log)
	r.profile = colorProfile(cfg.UI.NoColor)
	lipgloss.SetColorProfile(r.profile)
	return nil
}

func (r *runner) after(*ucli.Context) error {
	if r.logger != nil {
		_ = r.logger.Sync()
	}
	return nil
}

// =============================================================================
// SHARED WIRING
// =============================================================================

// openKV opens the configured storage backend. The caller closes it with
// storage.Close.
func (r *runner) openKV() (storage.KV, error) {
	kv, err := storage.Open(r.cfg.Storage.Backend, r.cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", r.cfg.Storage.Backend, err)
	}
	return kv, nil
}

func (r *runner) openSession(kv storage.KV) (*session.Store, error) {
	return session.Open(kv, session.WithLogger(r.logger))
}

func (r *runner) client() *recommend.Client {
	return recommend.NewClient(&recommend.Config{
		BaseURL:        r.cfg.API.BaseURL,
		ConnectTimeout: time.Duration(r.cfg.API.ConnectTimeoutSecs) * time.Second,
		UserAgent:      "flome-cli/" + Version,
		Logger:         r.logger,
	})
}

func (r *runner) pipeline(conv pipeline.Conversation, hooks pipeline.Hooks) *pipeline.Pipeline {
	return pipeline.New(conv, r.client(),
		pipeline.WithLogger(r.logger),
		pipeline.WithHooks(hooks),
	)
}

func (r *runner) renderer(width int) *render.Renderer {
	rend, err := render.New(render.Options{
		Style: glamourStyle(r.profile, r.cfg.UI.Theme),
		Width: width,
	})
	if err != nil {
		r.logger.Warn("markdown rendering disabled", zap.Error(err))
	}
	return rend
}
