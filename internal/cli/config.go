// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	ucli "github.com/urfave/cli/v2"

	"github.com/nothing0113/database5team/internal/config"
	"github.com/nothing0113/database5team/internal/ui/styles"
)

// configShow prints the effective configuration with secrets redacted.
func (r *runner) configShow(c *ucli.Context) error {
	fmt.Fprint(c.App.Writer, r.cfg.String())
	return nil
}

func (r *runner) configPath(c *ucli.Context) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, path)
	return nil
}

// configInit writes the defaults unless a config file already exists.
func (r *runner) configInit(c *ucli.Context) error {
	if config.Exists() {
		path, _ := config.ConfigPathTOML()
		fmt.Fprintln(c.App.ErrWriter, styles.RenderWarning("A config file already exists near "+path))
		return nil
	}
	if err := config.Save(config.Default()); err != nil {
		return err
	}
	path, _ := config.ConfigPathTOML()
	fmt.Fprintln(c.App.Writer, styles.RenderSuccess("Wrote "+path))
	return nil
}
