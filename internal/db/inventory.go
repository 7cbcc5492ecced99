package db

import (
	"context"
	"fmt"

	"github.com/kenbot/inventory-sync/internal/types"
)

// GetInventoryMap loads the last-known inventory keyed by stock id.
func (db *DB) GetInventoryMap(ctx context.Context) (map[string]types.VehicleRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT stock_id, vin, price, COALESCE(year, 0), COALESCE(make, ''),
		        COALESCE(model, ''), COALESCE(trim, ''), COALESCE(mileage, 0),
		        COALESCE(url, ''), COALESCE(photo_urls, '{}')
		 FROM inventory`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory map: %w", err)
	}
	defer rows.Close()

	out := make(map[string]types.VehicleRecord)
	for rows.Next() {
		var rec types.VehicleRecord
		if err := rows.Scan(&rec.StockID, &rec.VIN, &rec.Price, &rec.Year, &rec.Make,
			&rec.Model, &rec.Trim, &rec.Mileage, &rec.URL, &rec.PhotoURLs); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		out[rec.StockID] = rec
	}
	return out, rows.Err()
}

// ReplaceInventory overwrites the inventory baseline with the given snapshot
// records in one transaction, so a half-written baseline can never become the
// "previous" side of a later diff.
func (db *DB) ReplaceInventory(ctx context.Context, records []types.VehicleRecord) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin inventory transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM inventory`); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}
	for _, rec := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO inventory (stock_id, vin, price, year, make, model, trim, mileage, url, photo_urls, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
			rec.StockID, rec.VIN, rec.Price, rec.Year, rec.Make, rec.Model, rec.Trim, rec.Mileage, rec.URL, rec.PhotoURLs,
		)
		if err != nil {
			return fmt.Errorf("failed to insert inventory row %s: %w", rec.StockID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit inventory: %w", err)
	}
	return nil
}
