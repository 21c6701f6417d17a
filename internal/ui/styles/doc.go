// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors, lip gloss styles and spinner frames used
by the flome terminal UI.

All colors are lip gloss AdaptiveColors, so they follow the terminal's light
or dark background. NewTheme can pin the background or drop color entirely:

	theme := styles.NewTheme(styles.Options{Mode: "dark"})
	fmt.Println(theme.UserBubble.Render("hello"))

# Palette

  - Petal: brand color, bot messages and recommendation titles
  - Leaf: success, orderable stores
  - Sky: user messages and key hints
  - Amber: notices and warnings
  - Rose: errors
*/
package styles
