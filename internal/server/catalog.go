// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nothing0113/database5team/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS flowers (
	flower_id  INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	meaning    TEXT NOT NULL,
	color      TEXT NOT NULL,
	care_guide TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	keywords   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS stores (
	store_id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT NOT NULL UNIQUE,
	address        TEXT NOT NULL,
	business_hours TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS products (
	product_id INTEGER PRIMARY KEY AUTOINCREMENT,
	store_id   INTEGER NOT NULL REFERENCES stores(store_id),
	name       TEXT NOT NULL,
	price      REAL NOT NULL,
	UNIQUE (store_id, name)
);
CREATE TABLE IF NOT EXISTS stock (
	stock_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	store_id   INTEGER NOT NULL REFERENCES stores(store_id),
	flower_id  INTEGER REFERENCES flowers(flower_id),
	product_id INTEGER REFERENCES products(product_id),
	quantity   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_stock_store ON stock(store_id);
`

// ErrEmptyCatalog is returned when a design is requested with no flowers.
var ErrEmptyCatalog = errors.New("catalog has no flowers")

// CatalogFlower is a flower the shops can work with.
type CatalogFlower struct {
	ID        int64
	Name      string
	Meaning   string
	Color     string
	CareGuide string
	// Message is a letter sentence carrying the flower's meaning without
	// naming it.
	Message  string
	Keywords []string
}

// Catalog is the SQLite-backed flower, store, stock and product catalog.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog at path. Use ":memory:" for a
// throwaway catalog.
func OpenCatalog(path string) (*Catalog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000", catalogSchema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init catalog: %w", err)
		}
	}
	return &Catalog{db: db}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

type seedFlower struct {
	CatalogFlower
	quantity int
}

// Demo data: one shop, six flowers and one ready-made bouquet.
var (
	seedStore = struct{ name, address, hours string }{"행복한 꽃집", "서울 강남구 테헤란로 123", "09:00 - 20:00"}

	seedFlowers = []seedFlower{
		{CatalogFlower{
			Name: "빨간 장미", Meaning: "불타는 사랑, 열정, 아름다움", Color: "Red",
			CareGuide: "줄기 끝을 사선으로 자르고 물을 매일 갈아주세요. 직사광선은 피하는 것이 좋습니다.",
			Message:   "My heart still burns for you as brightly as on the first day.",
			Keywords:  []string{"love", "anniversary", "passion", "valentine", "사랑", "기념일", "열정"},
		}, 30},
		{CatalogFlower{
			Name: "하얀 튤립", Meaning: "새로운 시작, 용서, 순결", Color: "White",
			CareGuide: "온도에 민감하므로 서늘한 곳에 두세요. 줄기가 휘어질 수 있으니 높은 화병이 좋습니다.",
			Message:   "I am truly sorry, and I would love for us to begin again.",
			Keywords:  []string{"sorry", "apolog", "forgive", "fight", "사과", "용서", "화해", "미안"},
		}, 25},
		{CatalogFlower{
			Name: "노란 프리지아", Meaning: "당신의 시작을 응원합니다, 천진난만", Color: "Yellow",
			CareGuide: "향기가 강하며 에틸렌 가스에 민감합니다. 시든 꽃은 바로 제거해주세요.",
			Message:   "I am cheering for every step of your new beginning.",
			Keywords:  []string{"congrat", "new job", "graduat", "start", "promotion", "축하", "졸업", "입학", "취업", "시작"},
		}, 40},
		{CatalogFlower{
			Name: "리시안셔스", Meaning: "변치 않는 사랑, 우아함", Color: "Purple",
			CareGuide: "줄기가 약해 꺾이기 쉬우니 조심스럽게 다뤄주세요. 물올림이 중요합니다.",
			Message:   "What I feel for you has never changed and never will.",
			Keywords:  []string{"parents", "mother", "father", "wedding", "forever", "부모", "어머니", "아버지", "결혼"},
		}, 15},
		{CatalogFlower{
			Name: "안개꽃", Meaning: "맑은 마음, 사랑의 성공", Color: "White",
			CareGuide: "드라이플라워로 만들기 좋습니다. 통풍이 잘 되는 곳에 두면 예쁘게 마릅니다.",
			Message:   "My heart is clear, and all of it is yours.",
			Keywords:  []string{"confess", "propos", "crush", "고백", "프러포즈", "청혼"},
		}, 50},
		{CatalogFlower{
			Name: "메리골드", Meaning: "반드시 오고야 말 행복", Color: "Orange",
			CareGuide: "잎에서 특유의 향이 납니다. 물에 닿은 잎은 썩기 쉬우니 제거하고 꽂아주세요.",
			Message:   "Happiness is on its way to you, I promise.",
			Keywords:  []string{"cheer", "sick", "hospital", "recover", "sad", "위로", "응원", "병문안", "힘내"},
		}, 20},
	}

	seedProduct = struct {
		name     string
		price    float64
		quantity int
	}{"화해의 튤립 꽃다발", 45000, 3}
)

// Seed inserts the demo data. Running it again is a no-op.
func (c *Catalog) Seed(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO stores (name, address, business_hours) VALUES (?, ?, ?)`,
		seedStore.name, seedStore.address, seedStore.hours); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	var storeID int64
	if err := tx.QueryRowContext(ctx, `SELECT store_id FROM stores WHERE name = ?`, seedStore.name).Scan(&storeID); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	for _, f := range seedFlowers {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO flowers (name, meaning, color, care_guide, message, keywords) VALUES (?, ?, ?, ?, ?, ?)`,
			f.Name, f.Meaning, f.Color, f.CareGuide, f.Message, strings.Join(f.Keywords, ",")); err != nil {
			return fmt.Errorf("seed flower %s: %w", f.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stock (store_id, flower_id, quantity)
			SELECT ?, flower_id, ? FROM flowers f WHERE f.name = ?
			AND NOT EXISTS (SELECT 1 FROM stock k WHERE k.store_id = ? AND k.flower_id = f.flower_id)`,
			storeID, f.quantity, f.Name, storeID); err != nil {
			return fmt.Errorf("seed stock %s: %w", f.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO products (store_id, name, price) VALUES (?, ?, ?)`,
		storeID, seedProduct.name, seedProduct.price); err != nil {
		return fmt.Errorf("seed product: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stock (store_id, product_id, quantity)
		SELECT ?, product_id, ? FROM products p WHERE p.store_id = ? AND p.name = ?
		AND NOT EXISTS (SELECT 1 FROM stock k WHERE k.store_id = ? AND k.product_id = p.product_id)`,
		storeID, seedProduct.quantity, storeID, seedProduct.name, storeID); err != nil {
		return fmt.Errorf("seed product stock: %w", err)
	}

	return tx.Commit()
}

// Flowers returns the whole flower inventory in insertion order.
func (c *Catalog) Flowers(ctx context.Context) ([]CatalogFlower, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT flower_id, name, meaning, color, care_guide, message, keywords FROM flowers ORDER BY flower_id`)
	if err != nil {
		return nil, fmt.Errorf("query flowers: %w", err)
	}
	defer rows.Close()

	var flowers []CatalogFlower
	for rows.Next() {
		var f CatalogFlower
		var keywords string
		if err := rows.Scan(&f.ID, &f.Name, &f.Meaning, &f.Color, &f.CareGuide, &f.Message, &keywords); err != nil {
			return nil, fmt.Errorf("scan flower: %w", err)
		}
		if keywords != "" {
			f.Keywords = strings.Split(keywords, ",")
		}
		flowers = append(flowers, f)
	}
	return flowers, rows.Err()
}

// FlowerCount returns the number of flowers in the catalog.
func (c *Catalog) FlowerCount(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flowers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count flowers: %w", err)
	}
	return n, nil
}

// StoresFor returns the stores that have every named flower in stock, each
// with its first ready-made product when one is in stock. The result is
// never nil.
func (c *Catalog) StoresFor(ctx context.Context, names []string) ([]model.AvailableStore, error) {
	stores := []model.AvailableStore{}
	names = uniqueNames(names)
	if len(names) == 0 {
		return stores, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	query := `
		SELECT s.store_id, s.name, s.address FROM stores s
		WHERE (
			SELECT COUNT(DISTINCT f.flower_id) FROM stock k
			JOIN flowers f ON f.flower_id = k.flower_id
			WHERE k.store_id = s.store_id AND k.quantity > 0 AND f.name IN (` + placeholders + `)
		) = ?
		ORDER BY s.store_id`
	args := make([]any, 0, len(names)+1)
	for _, n := range names {
		args = append(args, n)
	}
	args = append(args, len(names))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		var s model.AvailableStore
		if err := rows.Scan(&id, &s.Name, &s.Address); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan store: %w", err)
		}
		s.StoreID = strconv.FormatInt(id, 10)
		ids = append(ids, id)
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// The pool has a single connection, so product lookups run after the
	// store rows are closed.
	for i, id := range ids {
		var productID int64
		var price float64
		err := c.db.QueryRowContext(ctx, `
			SELECT p.product_id, p.price FROM products p
			JOIN stock k ON k.product_id = p.product_id AND k.store_id = p.store_id
			WHERE p.store_id = ? AND k.quantity > 0
			ORDER BY p.product_id LIMIT 1`, id).Scan(&productID, &price)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query product: %w", err)
		}
		stores[i].ProductID = strconv.FormatInt(productID, 10)
		stores[i].ProductPrice = &price
	}
	return stores, nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
