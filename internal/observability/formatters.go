// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/kenbot/inventory-sync/internal/reconcile"
	"github.com/kenbot/inventory-sync/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPlan outputs a human-readable summary of a reconciliation plan.
func (p *Printer) PrintPlan(plan reconcile.Plan) {
	var b strings.Builder

	counts := map[types.EventKind]int{}
	for _, ev := range plan.Events {
		counts[ev.Kind]++
	}
	b.WriteString(fmt.Sprintf("NEW: %d  SOLD: %d  RESTORED: %d  PRICE_CHANGED: %d\n",
		counts[types.EventNew], counts[types.EventSold], counts[types.EventRestored], counts[types.EventPriceChanged]))
	b.WriteString(fmt.Sprintf("Unchanged: %d  Deferred: %d  Skipped: %d\n",
		plan.Unchanged, len(plan.Deferred), len(plan.Skipped)))

	shown := 0
	for _, ev := range plan.Events {
		if shown >= maxItemsToShow {
			b.WriteString(fmt.Sprintf("... and %d more", len(plan.Events)-shown))
			break
		}
		b.WriteString(fmt.Sprintf("%-13s %s\n", ev.Kind, ev.StockID))
		shown++
	}

	p.printBox("Reconciliation Plan", strings.TrimRight(b.String(), "\n"))
}

// PrintReport outputs a human-readable summary of a finished run.
func (p *Printer) PrintReport(report *types.RunReport) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Run: %s\n", report.RunID))
	if report.DryRun {
		b.WriteString("Mode: DRY RUN (no external mutations)\n")
	}
	b.WriteString(fmt.Sprintf("Published: %d  Sold: %d  Restored: %d  Repriced: %d\n",
		report.Published, report.Sold, report.Restored, report.Repriced))
	b.WriteString(fmt.Sprintf("Unchanged: %d  Deferred: %d  Skipped: %d  Failed: %d\n",
		report.Unchanged, report.Deferred, report.Skipped, report.Failed))
	if report.Rebuilt > 0 {
		b.WriteString(fmt.Sprintf("Rebuilt post entries: %d\n", report.Rebuilt))
	}
	for i, msg := range report.Errors {
		if i >= maxItemsToShow {
			b.WriteString(fmt.Sprintf("... and %d more errors", len(report.Errors)-i))
			break
		}
		b.WriteString(fmt.Sprintf("error: %s\n", msg))
	}
	p.printBox("Run Summary", strings.TrimRight(b.String(), "\n"))
}
