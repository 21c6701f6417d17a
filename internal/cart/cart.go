// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cart turns a recommended store into a cart item and keeps the AI
// context (prompt, letter, flower recipe, care guide) that goes with the
// order.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nothing0113/database5team/internal/model"
	"github.com/nothing0113/database5team/internal/storage"
	"go.uber.org/zap"
)

// Storage keys.
const (
	CartKey    = "cart"
	PendingKey = "pending_ai_data"
)

// DefaultTitle names a bouquet whose recommendation had no title.
const DefaultTitle = "My own bouquet"

// Notice is an error whose Message is meant to be shown to the user as is.
type Notice struct {
	Message string
}

func (n *Notice) Error() string {
	return n.Message
}

var (
	ErrNoOrderableProduct = &Notice{Message: "This store has no product available for online orders. Please contact the store directly."}
	ErrNoSuchItem         = errors.New("cart: no such item")
)

// =============================================================================
// TYPES
// =============================================================================

// Item is one cart line.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	StoreID   string  `json:"storeId"`
	StoreName string  `json:"storeName"`
	Quantity  int     `json:"quantity"`
}

// AIContext travels with the order so the florist sees what was asked for.
type AIContext struct {
	Prompt    string   `json:"user_prompt"`
	Letter    string   `json:"letter_content"`
	Recipe    string   `json:"recipe"` // JSON-encoded flower list
	CareGuide []string `json:"care_guide"`
}

// PendingOrder is what AddToCart hands to the cart.
type PendingOrder struct {
	Item    Item
	Context AIContext
}

// =============================================================================
// SERVICE
// =============================================================================

// Service stores cart items and the pending AI context in a KV store.
type Service struct {
	kv     storage.KV
	logger *zap.Logger
	mu     sync.Mutex
}

// NewService creates a cart service over kv.
func NewService(kv storage.KV, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{kv: kv, logger: logger}
}

// BuildOrder builds the pending order for store from card without storing
// anything. It returns ErrNoOrderableProduct when the store sells no
// matching product.
func BuildOrder(store model.AvailableStore, card model.RecommendationCard) (PendingOrder, error) {
	if !store.Orderable() {
		return PendingOrder{}, ErrNoOrderableProduct
	}

	title := card.Title
	if title == "" {
		title = DefaultTitle
	}
	var price float64
	if store.ProductPrice != nil {
		price = *store.ProductPrice
	}

	flowers := card.Flowers
	if flowers == nil {
		flowers = []model.Flower{}
	}
	recipe, err := json.Marshal(flowers)
	if err != nil {
		return PendingOrder{}, fmt.Errorf("encode recipe: %w", err)
	}

	return PendingOrder{
		Item: Item{
			ID:        store.ProductID,
			Name:      "[AI] " + title,
			Price:     price,
			StoreID:   store.StoreID,
			StoreName: store.Name,
			Quantity:  1,
		},
		Context: AIContext{
			Prompt:    card.OriginalPrompt,
			Letter:    card.Letter,
			Recipe:    string(recipe),
			CareGuide: card.CareGuide,
		},
	}, nil
}

// AddToCart appends the store's product to the cart and replaces the pending
// AI context with the one from card.
func (s *Service) AddToCart(store model.AvailableStore, card model.RecommendationCard) (PendingOrder, error) {
	order, err := BuildOrder(store, card)
	if err != nil {
		return PendingOrder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.items()
	if err != nil {
		return PendingOrder{}, err
	}
	items = append(items, order.Item)
	if err := s.put(CartKey, items); err != nil {
		return PendingOrder{}, err
	}
	if err := s.put(PendingKey, order.Context); err != nil {
		return PendingOrder{}, err
	}

	s.logger.Info("added recommendation to cart",
		zap.String("product_id", order.Item.ID),
		zap.String("store", order.Item.StoreName),
		zap.Float64("price", order.Item.Price),
	)
	return order, nil
}

// Items returns the cart contents.
func (s *Service) Items() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items()
}

// Total returns the summed price of all items times their quantity.
func (s *Service) Total() (float64, error) {
	items, err := s.Items()
	if err != nil {
		return 0, err
	}
	var total float64
	for _, it := range items {
		q := it.Quantity
		if q <= 0 {
			q = 1
		}
		total += it.Price * float64(q)
	}
	return total, nil
}

// Remove deletes the item at index i.
func (s *Service) Remove(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.items()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(items) {
		return fmt.Errorf("%w: index %d", ErrNoSuchItem, i)
	}
	items = append(items[:i], items[i+1:]...)
	return s.put(CartKey, items)
}

// Clear empties the cart and drops the pending AI context.
func (s *Service) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Remove(CartKey); err != nil {
		return err
	}
	return s.kv.Remove(PendingKey)
}

// PendingContext returns the AI context of the latest AddToCart, if any.
func (s *Service) PendingContext() (*AIContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(PendingKey)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ctx AIContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("decode pending context: %w", err)
	}
	return &ctx, nil
}

func (s *Service) items() ([]Item, error) {
	data, err := s.kv.Get(CartKey)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("cart data is corrupt, starting empty", zap.Error(err))
		return nil, nil
	}
	return items, nil
}

func (s *Service) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.Set(key, data)
}
