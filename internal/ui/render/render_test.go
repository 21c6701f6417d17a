// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nothing0113/database5team/internal/model"
)

func testCard() model.RecommendationCard {
	price := 45000.0
	return model.RecommendationCard{
		Recommendation: model.Recommendation{
			Title:      "Tulips of Reconciliation",
			ColorTheme: "White and green",
			Flowers: []model.Flower{
				{Name: "White tulip", Role: "main", Reason: "forgiveness"},
				{Name: "Baby's breath"},
			},
			Letter:    "I am sorry.\nLet us begin again.",
			CareGuide: []string{"Keep it cool", "Use a tall vase"},
			AvailableStores: []model.AvailableStore{
				{StoreID: "1", Name: "Happy Florist", Address: "123 Teheran-ro", ProductID: "7", ProductPrice: &price},
				{StoreID: "2", Name: "Corner Shop", Address: "5 Main St"},
			},
		},
		OriginalPrompt: "I fought with my girlfriend",
	}
}

func TestCardMarkdown(t *testing.T) {
	md := CardMarkdown(testCard())

	for _, want := range []string{
		"## 💐 Tulips of Reconciliation\n",
		"*Color theme:* White and green\n",
		"- **White tulip** (main): forgiveness\n",
		"- **Baby's breath**\n",
		"> I am sorry.\n> Let us begin again.\n",
		"1. Keep it cool\n2. Use a tall vase\n",
		"1. **Happy Florist**, 123 Teheran-ro (45,000원)\n",
		"2. **Corner Shop**, 5 Main St (visit the store to order)\n",
		"*For:* I fought with my girlfriend\n",
	} {
		assert.Contains(t, md, want)
	}
}

func TestCardMarkdown_Sparse(t *testing.T) {
	md := CardMarkdown(model.RecommendationCard{})

	assert.Contains(t, md, "## 💐 Your bouquet")
	assert.Contains(t, md, "No store has these flowers in stock right now.")
	assert.NotContains(t, md, "Letter")
	assert.NotContains(t, md, "Care guide")
	assert.NotContains(t, md, "*For:*")
}

func TestRenderer_Card(t *testing.T) {
	r, err := New(Options{Style: "notty", Width: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, r.Width())

	out := r.Card(testCard())
	assert.Contains(t, out, "Tulips of Reconciliation")
	assert.Contains(t, out, "45,000원")
	assert.Contains(t, out, "Happy Florist")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestRenderer_Message(t *testing.T) {
	r, err := New(Options{Style: "notty"})
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, r.Width())

	text := model.NewUserMessage("**not bold** _please_")
	assert.Equal(t, "**not bold** _please_", r.Message(text))

	card := testCard()
	out := r.Message(model.NewRecommendationMessage(card))
	assert.Contains(t, out, "Tulips of Reconciliation")
}

func TestRenderer_NilFallsBack(t *testing.T) {
	var r *Renderer
	assert.Equal(t, "# hi", r.Markdown("# hi"))
}
