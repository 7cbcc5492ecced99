package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kenbot/inventory-sync/internal/types"
)

// GetPostMap loads the full stock id -> post mapping.
func (db *DB) GetPostMap(ctx context.Context) (map[string]types.PostMapEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT stock_id, post_id, base_text, state, last_price, updated_at FROM posts`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load post map: %w", err)
	}
	defer rows.Close()

	out := make(map[string]types.PostMapEntry)
	for rows.Next() {
		var entry types.PostMapEntry
		if err := rows.Scan(&entry.StockID, &entry.PostID, &entry.BaseText, &entry.State, &entry.LastPrice, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		out[entry.StockID] = entry
	}
	return out, rows.Err()
}

// GetPost returns the entry for one stock id, or nil when none exists.
func (db *DB) GetPost(ctx context.Context, stockID string) (*types.PostMapEntry, error) {
	var entry types.PostMapEntry
	err := db.pool.QueryRow(ctx,
		`SELECT stock_id, post_id, base_text, state, last_price, updated_at FROM posts WHERE stock_id = $1`,
		stockID,
	).Scan(&entry.StockID, &entry.PostID, &entry.BaseText, &entry.State, &entry.LastPrice, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post entry %s: %w", stockID, err)
	}
	return &entry, nil
}

// UpsertPost writes one entry atomically; exactly one row per stock id.
func (db *DB) UpsertPost(ctx context.Context, entry types.PostMapEntry) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO posts (stock_id, post_id, base_text, state, last_price, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (stock_id) DO UPDATE SET post_id = $2, base_text = $3, state = $4, last_price = $5, updated_at = $6`,
		entry.StockID, entry.PostID, entry.BaseText, entry.State, entry.LastPrice, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert post entry %s: %w", entry.StockID, err)
	}
	return nil
}

// ReplacePostMap overwrites the whole mapping in one transaction. Used by the
// rebuild tool only.
func (db *DB) ReplacePostMap(ctx context.Context, entries []types.PostMapEntry) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin post map transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("failed to clear post map: %w", err)
	}
	for _, entry := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO posts (stock_id, post_id, base_text, state, last_price, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			entry.StockID, entry.PostID, entry.BaseText, entry.State, entry.LastPrice, entry.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert post entry %s: %w", entry.StockID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit post map: %w", err)
	}
	return nil
}
