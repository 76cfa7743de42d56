// Package sqlstore persists the price cache in PostgreSQL.
//
// Expected table:
//
//	CREATE TABLE IF NOT EXISTS price_cache (
//	    asset_type TEXT NOT NULL,
//	    symbol     TEXT NOT NULL,
//	    currency   TEXT NOT NULL,
//	    price      NUMERIC NOT NULL,
//	    source     TEXT NOT NULL,
//	    cached_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (asset_type, symbol, currency)
//	);
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/store"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type Store struct {
	db *sql.DB
}

// New opens the database and verifies connectivity.
func New(cfg Config) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewFromDB wraps an existing connection (tests).
func NewFromDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, key asset.Key) (store.CachedPrice, error) {
	const q = `SELECT price, source, cached_at FROM price_cache
		WHERE asset_type = $1 AND symbol = $2 AND currency = $3`

	var priceStr string
	c := store.CachedPrice{Key: key}
	err := s.db.QueryRowContext(ctx, q, key.Type, key.Symbol, key.Currency).
		Scan(&priceStr, &c.Source, &c.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.CachedPrice{}, store.ErrNotFound
	}
	if err != nil {
		return store.CachedPrice{}, err
	}
	c.Price, err = decimal.NewFromString(priceStr)
	if err != nil {
		return store.CachedPrice{}, fmt.Errorf("corrupt cached price %q: %w", priceStr, err)
	}
	return c, nil
}

func (s *Store) Put(ctx context.Context, key asset.Key, price decimal.Decimal, source string) error {
	const q = `INSERT INTO price_cache (asset_type, symbol, currency, price, source, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (asset_type, symbol, currency)
		DO UPDATE SET price = EXCLUDED.price, source = EXCLUDED.source, cached_at = EXCLUDED.cached_at`

	_, err := s.db.ExecContext(ctx, q, key.Type, key.Symbol, key.Currency,
		price.String(), source, time.Now().UTC())
	return err
}

func (s *Store) GetMany(ctx context.Context, keys []asset.Key) (map[asset.Key]store.CachedPrice, error) {
	if len(keys) == 0 {
		return map[asset.Key]store.CachedPrice{}, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT asset_type, symbol, currency, price, source, cached_at
		FROM price_cache WHERE (asset_type, symbol, currency) IN (`)
	args := make([]any, 0, len(keys)*3)
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
		args = append(args, k.Type, k.Symbol, k.Currency)
	}
	sb.WriteString(")")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[asset.Key]store.CachedPrice, len(keys))
	for rows.Next() {
		var (
			typ      string
			c        store.CachedPrice
			priceStr string
		)
		if err := rows.Scan(&typ, &c.Key.Symbol, &c.Key.Currency, &priceStr, &c.Source, &c.CachedAt); err != nil {
			return nil, err
		}
		c.Key.Type = asset.Type(typ)
		if c.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("corrupt cached price %q: %w", priceStr, err)
		}
		out[c.Key] = c
	}
	return out, rows.Err()
}
