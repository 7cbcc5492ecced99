package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kenbot/inventory-sync/internal/types"
)

// GetSticker returns the cached sticker entry for a VIN, or nil on miss.
func (db *DB) GetSticker(ctx context.Context, vin string) (*types.StickerEntry, error) {
	var entry types.StickerEntry
	err := db.pool.QueryRow(ctx,
		`SELECT vin, storage_path, fetched_at FROM stickers WHERE vin = $1`,
		vin,
	).Scan(&entry.VIN, &entry.StoragePath, &entry.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sticker %s: %w", vin, err)
	}
	return &entry, nil
}

// PutSticker stores a sticker document. The cache is write-once: when a row
// for the VIN already exists it is kept unchanged and returned, so a racing
// writer's redundant copy is discarded.
func (db *DB) PutSticker(ctx context.Context, vin, storagePath string, doc []byte) (*types.StickerEntry, error) {
	var entry types.StickerEntry
	err := db.pool.QueryRow(ctx,
		`INSERT INTO stickers (vin, storage_path, content, fetched_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (vin) DO UPDATE SET vin = stickers.vin
		 RETURNING vin, storage_path, fetched_at`,
		vin, storagePath, doc,
	).Scan(&entry.VIN, &entry.StoragePath, &entry.FetchedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to store sticker %s: %w", vin, err)
	}
	return &entry, nil
}

// GetStickerDocument returns the cached document bytes for a VIN.
func (db *DB) GetStickerDocument(ctx context.Context, vin string) ([]byte, error) {
	var doc []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM stickers WHERE vin = $1`,
		vin,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sticker document %s: %w", vin, err)
	}
	return doc, nil
}
