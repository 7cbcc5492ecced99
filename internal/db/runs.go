package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kenbot/inventory-sync/internal/types"
)

// RecordRun appends one run report to the audit log.
func (db *DB) RecordRun(ctx context.Context, report types.RunReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO run_events (run_id, started_at, finished_at, dry_run, report)
		 VALUES ($1, $2, $3, $4, $5)`,
		report.RunID, report.StartedAt, report.FinishedAt, report.DryRun, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", report.RunID, err)
	}
	return nil
}

// ListRuns retrieves the most recent run reports, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]types.RunReport, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT report FROM run_events ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var reports []types.RunReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		var report types.RunReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, fmt.Errorf("failed to decode run report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
