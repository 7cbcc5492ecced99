package types

// EventKind classifies one lifecycle transition for a stock id.
type EventKind string

const (
	EventNew          EventKind = "NEW"
	EventSold         EventKind = "SOLD"
	EventRestored     EventKind = "RESTORED"
	EventPriceChanged EventKind = "PRICE_CHANGED"
	// EventForced is the synthetic forced-republish event produced by the
	// force-stock override for manual visual verification.
	EventForced EventKind = "FORCE"
)

// LifecycleEvent is one classified transition emitted by the reconciler.
// Record is nil for SOLD events (the vehicle is gone from the snapshot).
type LifecycleEvent struct {
	Kind    EventKind
	StockID string
	Record  *VehicleRecord
	// OldPrice carries the previously known price for PRICE_CHANGED events.
	OldPrice int
}
