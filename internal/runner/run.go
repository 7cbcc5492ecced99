// Package runner orchestrates one reconciliation pass end-to-end: lease,
// optional rebuild, snapshot, classification, event dispatch, and audit.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kenbot/inventory-sync/internal/observability"
	"github.com/kenbot/inventory-sync/internal/postsync"
	"github.com/kenbot/inventory-sync/internal/reconcile"
	"github.com/kenbot/inventory-sync/internal/scrape"
	"github.com/kenbot/inventory-sync/internal/types"
)

// DefaultWorkers bounds concurrent post-sync work across distinct stock ids.
const DefaultWorkers = 4

// DefaultLeaseTTL is how long a run lease lives before a crashed run's lease
// can be taken over.
const DefaultLeaseTTL = 15 * time.Minute

// StateStore is the durable state the runner needs around a pass.
type StateStore interface {
	AcquireRunLease(ctx context.Context, holder string, ttl time.Duration) error
	ReleaseRunLease(ctx context.Context, holder string) error
	GetInventoryMap(ctx context.Context) (map[string]types.VehicleRecord, error)
	ReplaceInventory(ctx context.Context, records []types.VehicleRecord) error
	GetPostMap(ctx context.Context) (map[string]types.PostMapEntry, error)
	RecordRun(ctx context.Context, report types.RunReport) error
}

// Deps bundles the external collaborators for one run.
type Deps struct {
	State    StateStore
	Posts    postsync.PostStore
	Provider scrape.Provider
	Gateway  postsync.Gateway
	Stickers postsync.StickerCache
	Workers  int
	LeaseTTL time.Duration
	Out      io.Writer
}

// Run executes one reconciliation pass. Per-vehicle failures never abort the
// run; run-level faults (lease conflict, unreachable snapshot provider) do,
// returning a non-nil error alongside a report of what partially completed.
func Run(ctx context.Context, deps Deps, opts types.Options) (*types.RunReport, error) {
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run options: %w", err)
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Workers <= 0 {
		deps.Workers = DefaultWorkers
	}
	if deps.LeaseTTL <= 0 {
		deps.LeaseTTL = DefaultLeaseTTL
	}

	printer := observability.NewPrinter(deps.Out)
	report := &types.RunReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		DryRun:    opts.DryRun,
	}
	holder := report.RunID.String()

	fmt.Fprintf(deps.Out, "Step 1/6: Acquiring run lease...\n")
	if err := deps.State.AcquireRunLease(ctx, holder, deps.LeaseTTL); err != nil {
		return report, fmt.Errorf("run rejected: %w", err)
	}
	defer func() {
		if err := deps.State.ReleaseRunLease(context.WithoutCancel(ctx), holder); err != nil {
			fmt.Fprintf(deps.Out, "Warning: failed to release run lease: %v\n", err)
		}
	}()

	syncer := postsync.New(deps.Gateway, deps.Posts, deps.Stickers, opts.DryRun)
	syncer.SetOutput(deps.Out)
	if p, ok := deps.Provider.(interface{ SetOutput(io.Writer) }); ok {
		p.SetOutput(deps.Out)
	}

	if opts.Rebuild {
		fmt.Fprintf(deps.Out, "Step 2/6: Rebuilding post map from post history (limit %d)...\n", opts.RebuildLimit)
		rebuilt, err := syncer.Rebuild(ctx, opts.RebuildLimit)
		if err != nil {
			return report, fmt.Errorf("rebuild failed: %w", err)
		}
		report.Rebuilt = rebuilt
		fmt.Fprintf(deps.Out, "Rebuilt %d post entries\n", rebuilt)
	} else {
		fmt.Fprintf(deps.Out, "Step 2/6: Rebuild not requested, skipping\n")
	}

	fmt.Fprintf(deps.Out, "Step 3/6: Fetching current listings...\n")
	records, err := deps.Provider.FetchListings(ctx)
	if err != nil {
		return report, fmt.Errorf("snapshot provider unreachable: %w", err)
	}
	snapshot := types.NewSnapshot(records)
	fmt.Fprintf(deps.Out, "Captured %d listings (%d skipped)\n", snapshot.Len(), len(snapshot.Skipped))

	fmt.Fprintf(deps.Out, "Step 4/6: Loading previous state...\n")
	prev, err := deps.State.GetInventoryMap(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load previous inventory: %w", err)
	}
	posts, err := deps.State.GetPostMap(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load post map: %w", err)
	}

	fmt.Fprintf(deps.Out, "Step 5/6: Classifying and applying lifecycle events...\n")
	plan := reconcile.Reconcile(prev, snapshot, posts, opts)
	report.Unchanged = plan.Unchanged
	report.Deferred = len(plan.Deferred)
	report.Skipped = len(plan.Skipped)
	if opts.Verbose {
		printer.PrintPlan(plan)
	}
	for _, skipped := range plan.Skipped {
		report.Errors = append(report.Errors, fmt.Sprintf("skipped %s: %s", skipped.StockID, skipped.Reason))
	}

	applyPlan(ctx, syncer, plan, deps.Workers, report)

	fmt.Fprintf(deps.Out, "Step 6/6: Persisting run state...\n")
	if !opts.DryRun && opts.ForceStock == "" {
		if err := deps.State.ReplaceInventory(ctx, snapshot.Records); err != nil {
			return report, fmt.Errorf("failed to persist inventory baseline: %w", err)
		}
	}
	report.FinishedAt = time.Now()
	if err := deps.State.RecordRun(ctx, *report); err != nil {
		fmt.Fprintf(deps.Out, "Warning: failed to record run event: %v\n", err)
	}

	printer.PrintReport(report)
	return report, nil
}

// applyPlan dispatches lifecycle events to a bounded worker pool. Events are
// grouped by stock id: each stock is an independent unit of work handled by
// at most one worker, so the same PostMapEntry is never mutated concurrently,
// while distinct stock ids fan out in parallel.
func applyPlan(ctx context.Context, syncer *postsync.Synchronizer, plan reconcile.Plan, workers int, report *types.RunReport) {
	perStock := make(map[string][]types.LifecycleEvent)
	var stockOrder []string
	for _, ev := range plan.Events {
		if _, seen := perStock[ev.StockID]; !seen {
			stockOrder = append(stockOrder, ev.StockID)
		}
		perStock[ev.StockID] = append(perStock[ev.StockID], ev)
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, stockID := range stockOrder {
		events := perStock[stockID]
		g.Go(func() error {
			for _, ev := range events {
				outcome, err := syncer.Apply(gCtx, ev)
				mu.Lock()
				record(report, ev, outcome, err)
				mu.Unlock()
				if err != nil {
					// Remaining events for this stock would act on state the
					// failed one should have produced.
					break
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

func record(report *types.RunReport, ev types.LifecycleEvent, outcome postsync.Outcome, err error) {
	if err != nil {
		report.Failed++
		report.Errors = append(report.Errors, fmt.Sprintf("%s %s: %v", ev.Kind, ev.StockID, err))
		return
	}
	if outcome.Action == postsync.ActionNoop {
		report.Unchanged++
		return
	}
	switch ev.Kind {
	case types.EventNew:
		report.Published++
	case types.EventSold:
		report.Sold++
	case types.EventRestored:
		report.Restored++
	case types.EventPriceChanged:
		report.Repriced++
	case types.EventForced:
		report.Forced++
	}
}
