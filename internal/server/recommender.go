// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"

	"github.com/nothing0113/database5team/internal/config"
	"github.com/nothing0113/database5team/internal/model"
)

// Recommender designs a bouquet for a situation from the flower inventory.
// AvailableStores is filled in by the server afterwards.
type Recommender interface {
	Design(ctx context.Context, situation string, inventory []CatalogFlower) (model.Recommendation, error)
}

// NewRecommender returns an LLM recommender when cfg names an endpoint and a
// catalog recommender otherwise.
func NewRecommender(cfg config.ServerConfig, logger *zap.Logger) (Recommender, error) {
	if strings.TrimSpace(cfg.LLMBaseURL) == "" {
		return CatalogRecommender{}, nil
	}

	token := cfg.LLMToken
	if token == "" {
		// Local OpenAI-compatible servers accept any token.
		token = "none"
	}
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(cfg.LLMBaseURL),
		openai.WithModel(cfg.LLMModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return NewLLMRecommender(llm, logger), nil
}

// ============================================================================
// LLM Recommender
// ============================================================================

const designTemplate = `You are FloMe's head florist AI.
Analyse the customer's situation, design a bouquet from the flowers in stock
and write the letter the customer will hand over with it.

[Flowers in stock]
{{.inventory}}
[Customer situation]
{{.situation}}

Instructions:
1. Composition: use a main, sub and filler flower. When nothing fits exactly,
   choose the flowers whose meanings are closest.
2. Colour: pick a colour theme that matches the situation and emotion.
3. Care: summarise the three most important care tips for the chosen flowers.
4. Letter (most important):
   - Weave the meanings of the chosen flowers naturally into the sentences.
   - Never mention a flower name in the letter.
   - Never explain the meanings ("like this flower's meaning...").
   - Write only the heartfelt message to the recipient, at most 150 characters.

Answer with pure JSON in exactly this shape, no markdown:
{
  "title": "bouquet name",
  "color_theme": "colour theme description",
  "flowers": [
    {"role": "main", "name": "flower name", "reason": "why"},
    {"role": "sub", "name": "flower name", "reason": "why"},
    {"role": "filler", "name": "flower name", "reason": "why"}
  ],
  "letter": "letter without flower names",
  "care_guide": ["tip 1", "tip 2", "tip 3"]
}
`

// LLMRecommender asks a language model to design the bouquet.
type LLMRecommender struct {
	llm    llms.Model
	tmpl   prompts.PromptTemplate
	logger *zap.Logger
}

// NewLLMRecommender wraps any langchaingo model.
func NewLLMRecommender(llm llms.Model, logger *zap.Logger) *LLMRecommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMRecommender{
		llm:    llm,
		tmpl:   prompts.NewPromptTemplate(designTemplate, []string{"inventory", "situation"}),
		logger: logger.Named("llm"),
	}
}

// Design renders the prompt and parses the model's JSON answer. Model
// failures and unparsable answers yield FallbackDesign; only cancellation
// is returned as an error.
func (r *LLMRecommender) Design(ctx context.Context, situation string, inventory []CatalogFlower) (model.Recommendation, error) {
	if len(inventory) == 0 {
		return model.Recommendation{}, ErrEmptyCatalog
	}

	prompt, err := r.tmpl.Format(map[string]any{
		"inventory": inventoryText(inventory),
		"situation": situation,
	})
	if err != nil {
		return model.Recommendation{}, fmt.Errorf("render prompt: %w", err)
	}

	answer, err := llms.GenerateFromSinglePrompt(ctx, r.llm, prompt, llms.WithTemperature(0.7))
	if err != nil {
		if ctx.Err() != nil {
			return model.Recommendation{}, ctx.Err()
		}
		r.logger.Error("llm call failed", zap.Error(err))
		return FallbackDesign(), nil
	}

	rec, err := parseDesign(answer)
	if err != nil {
		r.logger.Warn("unparsable llm answer",
			zap.Error(err),
			zap.Int("answer_len", len(answer)),
		)
		return FallbackDesign(), nil
	}
	return rec, nil
}

func inventoryText(inventory []CatalogFlower) string {
	var b strings.Builder
	for _, f := range inventory {
		fmt.Fprintf(&b, "- %s (colour: %s, meaning: %s, care: %s)\n", f.Name, f.Color, f.Meaning, f.CareGuide)
	}
	return b.String()
}

// parseDesign strips markdown fences around the JSON answer.
func parseDesign(answer string) (model.Recommendation, error) {
	cleaned := strings.ReplaceAll(answer, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var rec model.Recommendation
	if err := json.Unmarshal([]byte(cleaned), &rec); err != nil {
		return model.Recommendation{}, err
	}
	if rec.Title == "" {
		return model.Recommendation{}, fmt.Errorf("answer has no title")
	}
	return rec, nil
}

// FallbackDesign is sent when no design could be produced.
func FallbackDesign() model.Recommendation {
	return model.Recommendation{
		Title:           "Something went wrong",
		Letter:          "Sorry, we could not write your letter this time.",
		Flowers:         []model.Flower{},
		CareGuide:       []string{},
		AvailableStores: []model.AvailableStore{},
	}
}

// ============================================================================
// Catalog Recommender
// ============================================================================

var bouquetRoles = []string{"main", "sub", "filler"}

// CatalogRecommender picks flowers by matching the situation against each
// flower's keywords. It is deterministic and needs no model.
type CatalogRecommender struct{}

func (CatalogRecommender) Design(ctx context.Context, situation string, inventory []CatalogFlower) (model.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return model.Recommendation{}, err
	}
	if len(inventory) == 0 {
		return model.Recommendation{}, ErrEmptyCatalog
	}

	text := strings.ToLower(situation)
	type scored struct {
		flower CatalogFlower
		score  int
	}
	ranked := make([]scored, len(inventory))
	for i, f := range inventory {
		ranked[i] = scored{flower: f}
		for _, kw := range f.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				ranked[i].score++
			}
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := min(len(bouquetRoles), len(ranked))
	rec := model.Recommendation{
		Flowers:         make([]model.Flower, 0, n),
		CareGuide:       make([]string, 0, n),
		AvailableStores: []model.AvailableStore{},
	}
	var colors, letter []string
	for i := 0; i < n; i++ {
		f := ranked[i].flower
		reason := "Its meaning, " + f.Meaning + ", suits the moment."
		if ranked[i].score > 0 {
			reason = "Its meaning, " + f.Meaning + ", matches what you want to say."
		}
		rec.Flowers = append(rec.Flowers, model.Flower{Name: f.Name, Role: bouquetRoles[i], Reason: reason})
		rec.CareGuide = append(rec.CareGuide, f.CareGuide)
		if !slices.Contains(colors, f.Color) {
			colors = append(colors, f.Color)
		}
		if f.Message != "" {
			letter = append(letter, f.Message)
		}
	}

	rec.Title = rec.Flowers[0].Name + " bouquet"
	rec.ColorTheme = strings.Join(colors, " & ") + " tones"
	rec.Letter = strings.Join(letter, " ")
	return rec, nil
}
