package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kenbot/inventory-sync/internal/reconcile"
	"github.com/kenbot/inventory-sync/internal/types"
)

func TestPrintPlan_CountsAndEvents(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	plan := reconcile.Plan{
		Events: []types.LifecycleEvent{
			{Kind: types.EventNew, StockID: "A100"},
			{Kind: types.EventSold, StockID: "B200"},
			{Kind: types.EventPriceChanged, StockID: "C300", OldPrice: 1000000},
		},
		Deferred:  []types.LifecycleEvent{{Kind: types.EventNew, StockID: "D400"}},
		Skipped:   []types.SkippedRecord{{StockID: "E500", Reason: "missing vin"}},
		Unchanged: 7,
	}
	p.PrintPlan(plan)

	out := buf.String()
	assert.Contains(t, out, "Reconciliation Plan")
	assert.Contains(t, out, "NEW: 1  SOLD: 1  RESTORED: 0  PRICE_CHANGED: 1")
	assert.Contains(t, out, "Unchanged: 7  Deferred: 1  Skipped: 1")
	assert.Contains(t, out, "A100")
	assert.Contains(t, out, "B200")
	assert.Contains(t, out, "C300")
	assert.Contains(t, out, "┌")
	assert.Contains(t, out, "└")
}

func TestPrintPlan_TruncatesLongEventLists(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	plan := reconcile.Plan{}
	for i := 0; i < maxItemsToShow+3; i++ {
		plan.Events = append(plan.Events, types.LifecycleEvent{
			Kind:    types.EventNew,
			StockID: fmt.Sprintf("S%03d", i),
		})
	}
	p.PrintPlan(plan)

	out := buf.String()
	assert.Contains(t, out, fmt.Sprintf("S%03d", maxItemsToShow-1))
	assert.NotContains(t, out, fmt.Sprintf("S%03d", maxItemsToShow))
	assert.Contains(t, out, "... and 3 more")
}

func TestPrintPlan_EmptyPlan(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPlan(reconcile.Plan{})

	out := buf.String()
	assert.Contains(t, out, "NEW: 0  SOLD: 0  RESTORED: 0  PRICE_CHANGED: 0")
	assert.Contains(t, out, "Unchanged: 0  Deferred: 0  Skipped: 0")
}

func TestPrintReport_Counters(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	report := &types.RunReport{
		RunID:     uuid.New(),
		Published: 2,
		Sold:      1,
		Restored:  1,
		Repriced:  3,
		Unchanged: 5,
		Deferred:  1,
		Failed:    1,
	}
	p.PrintReport(report)

	out := buf.String()
	assert.Contains(t, out, "Run Summary")
	assert.Contains(t, out, "Run: "+report.RunID.String())
	assert.Contains(t, out, "Published: 2  Sold: 1  Restored: 1  Repriced: 3")
	assert.Contains(t, out, "Unchanged: 5  Deferred: 1  Skipped: 0  Failed: 1")
	assert.NotContains(t, out, "DRY RUN")
	assert.NotContains(t, out, "Rebuilt")
}

func TestPrintReport_DryRunAndRebuilt(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintReport(&types.RunReport{
		RunID:   uuid.New(),
		DryRun:  true,
		Rebuilt: 4,
	})

	out := buf.String()
	assert.Contains(t, out, "Mode: DRY RUN (no external mutations)")
	assert.Contains(t, out, "Rebuilt post entries: 4")
}

func TestPrintReport_TruncatesErrors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	report := &types.RunReport{RunID: uuid.New()}
	for i := 0; i < maxItemsToShow+2; i++ {
		report.Errors = append(report.Errors, fmt.Sprintf("stock %d failed", i))
	}
	p.PrintReport(report)

	out := buf.String()
	assert.Contains(t, out, "error: stock 0 failed")
	assert.Contains(t, out, "... and 2 more errors")
	assert.NotContains(t, out, fmt.Sprintf("stock %d failed", maxItemsToShow))
}

func TestPrintReport_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	long := strings.Repeat("x", boxWidth)
	p.PrintReport(&types.RunReport{
		RunID:  uuid.New(),
		Errors: []string{long},
	})

	out := buf.String()
	assert.NotContains(t, out, long)
	assert.Contains(t, out, "...")
}
