package db

import (
	"context"
	"fmt"
	"time"

	"github.com/kenbot/inventory-sync/internal/types"
)

// leaseID is the single row guarding "one run at a time".
const leaseID = 1

const acquireLeaseSQL = `INSERT INTO run_lease (id, holder, expires_at)
	 VALUES ($1, $2, NOW() + make_interval(secs => $3))
	 ON CONFLICT (id) DO UPDATE SET holder = $2, expires_at = NOW() + make_interval(secs => $3)
	 WHERE run_lease.expires_at < NOW() OR run_lease.holder = $2`

const releaseLeaseSQL = `DELETE FROM run_lease WHERE id = $1 AND holder = $2`

// AcquireRunLease claims the run lease for holder. At most one reconciliation
// run may be in flight against the same store: when a live lease is held by
// someone else this returns a ConsistencyError and the run must abort.
// Expired leases (a crashed run) are taken over.
func (db *DB) AcquireRunLease(ctx context.Context, holder string, ttl time.Duration) error {
	tag, err := db.pool.Exec(ctx, acquireLeaseSQL, leaseID, holder, ttl.Seconds())
	if err != nil {
		return fmt.Errorf("failed to acquire run lease: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &types.ConsistencyError{
			Message: "another reconciliation run is already in flight",
		}
	}
	return nil
}

// ReleaseRunLease drops the lease if this holder still owns it.
func (db *DB) ReleaseRunLease(ctx context.Context, holder string) error {
	_, err := db.pool.Exec(ctx, releaseLeaseSQL, leaseID, holder)
	if err != nil {
		return fmt.Errorf("failed to release run lease: %w", err)
	}
	return nil
}
