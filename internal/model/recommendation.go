// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strconv"
	"strings"
)

// Flower is one flower of a recommended bouquet.
type Flower struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Reason string `json:"reason"`
}

// AvailableStore is a store that stocks the recommended flowers. ProductID
// and ProductPrice are set only when the store sells a ready-made bouquet.
type AvailableStore struct {
	StoreID      string   `json:"store_id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	ProductID    string   `json:"product_id,omitempty"`
	ProductPrice *float64 `json:"product_price,omitempty"`
}

// Orderable reports whether the store has a product that can be put in the
// cart. A missing price is treated as 0.
func (s AvailableStore) Orderable() bool {
	return s.ProductID != ""
}

// PriceLabel formats the product price, or returns "" when there is none.
func (s AvailableStore) PriceLabel() string {
	if s.ProductPrice == nil {
		return ""
	}
	return FormatPrice(*s.ProductPrice)
}

// Recommendation is the payload of a "result" envelope.
type Recommendation struct {
	Title           string           `json:"title"`
	ColorTheme      string           `json:"color_theme"`
	Flowers         []Flower         `json:"flowers"`
	Letter          string           `json:"letter"`
	CareGuide       []string         `json:"care_guide"`
	AvailableStores []AvailableStore `json:"available_stores"`
}

// FlowerNames returns the flower names in bouquet order.
func (r Recommendation) FlowerNames() []string {
	names := make([]string, 0, len(r.Flowers))
	for _, f := range r.Flowers {
		names = append(names, f.Name)
	}
	return names
}

// RecommendationCard is the persisted form of a recommendation: the payload
// plus the user prompt that produced it.
type RecommendationCard struct {
	Recommendation
	OriginalPrompt string `json:"original_prompt"`
}

// FormatPrice renders a price in won with thousands separators, e.g.
// 45000 -> "45,000원".
func FormatPrice(price float64) string {
	neg := price < 0
	if neg {
		price = -price
	}
	digits := strconv.FormatFloat(price, 'f', 0, 64)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString("원")
	return b.String()
}
