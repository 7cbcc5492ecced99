// Package reconcile computes lifecycle events by diffing the current
// inventory snapshot against the last-known inventory and post maps.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/kenbot/inventory-sync/internal/types"
)

// Plan is the ordered set of lifecycle events for one run, plus the events
// that were deferred by the target cap and the records excluded from
// classification. Ordering invariant: SOLD and RESTORED come before NEW,
// which comes before PRICE_CHANGED, so a vehicle that is both restored and
// repriced in one pass is restored first and repriced against the same entry.
type Plan struct {
	Events    []types.LifecycleEvent
	Deferred  []types.LifecycleEvent
	Skipped   []types.SkippedRecord
	Unchanged int
}

// Reconcile classifies every stock id in the current snapshot exactly once.
//
// Classification is driven by the post map, not the inventory baseline, so no
// outcome can be lost between passes: a record with no PostMapEntry is NEW
// regardless of whether the previous inventory knew it (an entry may be
// missing because an earlier publish was deferred by the target cap); an
// ACTIVE entry whose stock is absent from the snapshot is SOLD even when the
// baseline already forgot the vehicle (an earlier SOLD may have failed at the
// gateway); already-SOLD entries are not re-emitted. A record whose entry is
// SOLD is a RESTORED, not a NEW.
//
// This is a pure function over immutable inputs; it performs no I/O.
func Reconcile(prev map[string]types.VehicleRecord, curr *types.Snapshot, posts map[string]types.PostMapEntry, opts types.Options) Plan {
	opts = opts.Normalize()

	if opts.ForceStock != "" {
		return forcePlan(curr, posts, opts)
	}

	var plan Plan
	plan.Skipped = append(plan.Skipped, curr.Skipped...)

	var sold, restored, fresh, repriced []types.LifecycleEvent

	// Disappeared vehicles: post still ACTIVE, stock absent from the current
	// snapshot. Driven by the post map rather than the previous inventory so
	// a SOLD that failed at the gateway is re-emitted next pass even after the
	// baseline moved on.
	for _, stockID := range sortedKeys(posts) {
		if _, present := curr.Lookup(stockID); present {
			continue
		}
		if posts[stockID].State != types.StateActive {
			continue
		}
		sold = append(sold, types.LifecycleEvent{Kind: types.EventSold, StockID: stockID})
	}

	for _, rec := range curr.Records {
		entry, hasPost := posts[rec.StockID]

		switch {
		case hasPost && entry.State == types.StateSold:
			restored = append(restored, types.LifecycleEvent{
				Kind:    types.EventRestored,
				StockID: rec.StockID,
				Record:  &rec,
			})
			if old, changed := priceChange(rec, prev, entry); changed {
				repriced = append(repriced, types.LifecycleEvent{
					Kind:     types.EventPriceChanged,
					StockID:  rec.StockID,
					Record:   &rec,
					OldPrice: old,
				})
			}

		case hasPost:
			if old, changed := priceChange(rec, prev, entry); changed {
				repriced = append(repriced, types.LifecycleEvent{
					Kind:     types.EventPriceChanged,
					StockID:  rec.StockID,
					Record:   &rec,
					OldPrice: old,
				})
			} else {
				plan.Unchanged++
			}

		default:
			fresh = append(fresh, types.LifecycleEvent{
				Kind:    types.EventNew,
				StockID: rec.StockID,
				Record:  &rec,
			})
		}
	}

	// Sale status is always reflected: SOLD and RESTORED are never capped.
	plan.Events = append(plan.Events, sold...)
	plan.Events = append(plan.Events, restored...)

	// NEW and PRICE_CHANGED share the target budget, NEW first. Overflow is
	// deferred to a later run, never dropped.
	if opts.MaxTargets > 0 {
		budget := opts.MaxTargets
		for _, ev := range fresh {
			if budget > 0 {
				plan.Events = append(plan.Events, ev)
				budget--
			} else {
				plan.Deferred = append(plan.Deferred, ev)
			}
		}
		for _, ev := range repriced {
			if budget > 0 {
				plan.Events = append(plan.Events, ev)
				budget--
			} else {
				plan.Deferred = append(plan.Deferred, ev)
			}
		}
	} else {
		plan.Events = append(plan.Events, fresh...)
		plan.Events = append(plan.Events, repriced...)
	}

	return plan
}

// priceChange reports whether the current price differs from the last price
// actually reflected on the post. The entry's LastPrice is authoritative: the
// inventory baseline advances every pass, so comparing against it would hide
// a reprice that was deferred by the target cap or failed at the gateway.
// Rebuilt entries without a recoverable price fall back to the baseline.
func priceChange(rec types.VehicleRecord, prev map[string]types.VehicleRecord, entry types.PostMapEntry) (old int, changed bool) {
	if entry.LastPrice > 0 {
		return entry.LastPrice, entry.LastPrice != rec.Price
	}
	if prior, ok := prev[rec.StockID]; ok {
		return prior.Price, prior.Price != rec.Price
	}
	return 0, false
}

// forcePlan narrows the run to a single stock id for targeted manual testing,
// overriding normal classification.
func forcePlan(curr *types.Snapshot, posts map[string]types.PostMapEntry, opts types.Options) Plan {
	var plan Plan
	stockID := opts.ForceStock

	rec, inCurrent := curr.Lookup(stockID)
	entry, hasPost := posts[stockID]

	switch {
	case inCurrent && !hasPost:
		plan.Events = append(plan.Events, types.LifecycleEvent{
			Kind:    types.EventNew,
			StockID: stockID,
			Record:  &rec,
		})
	case inCurrent:
		// Synthetic forced republish: re-apply whatever state the entry says,
		// using the latest scraped record.
		plan.Events = append(plan.Events, types.LifecycleEvent{
			Kind:     types.EventForced,
			StockID:  stockID,
			Record:   &rec,
			OldPrice: entry.LastPrice,
		})
	case hasPost && entry.State == types.StateActive:
		plan.Events = append(plan.Events, types.LifecycleEvent{Kind: types.EventSold, StockID: stockID})
	default:
		plan.Skipped = append(plan.Skipped, types.SkippedRecord{
			StockID: stockID,
			Reason:  fmt.Sprintf("forced stock %s not found in snapshot or post map", stockID),
		})
	}

	return plan
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
