// Package types defines the shared domain types for inventory reconciliation.
package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// VehicleRecord is one scraped listing as produced by the snapshot provider.
// Records are never mutated after capture; a later run supersedes them.
type VehicleRecord struct {
	StockID   string   `json:"stock_id" validate:"required"`
	VIN       string   `json:"vin" validate:"required,len=17"`
	Price     int      `json:"price" validate:"required,gt=0"` // currency minor units (cents)
	Year      int      `json:"year,omitempty"`
	Make      string   `json:"make,omitempty"`
	Model     string   `json:"model,omitempty"`
	Trim      string   `json:"trim,omitempty"`
	Mileage   int      `json:"mileage,omitempty"`
	URL       string   `json:"url,omitempty"`
	PhotoURLs []string `json:"photo_urls,omitempty"`
}

// Validate validates the VehicleRecord using the validator.
func (v *VehicleRecord) Validate() error {
	validate := validator.New()
	return validate.Struct(v)
}

// SkippedRecord describes a scraped record that was excluded from
// classification because a required field was missing or malformed.
type SkippedRecord struct {
	StockID string
	Reason  string
}

// Snapshot is the ordered inventory captured by one run.
// It is immutable once built; invalid records are kept aside as Skipped
// rather than failing the whole capture.
type Snapshot struct {
	Records []VehicleRecord
	Skipped []SkippedRecord

	byStock map[string]int
}

// NewSnapshot builds a snapshot from raw scraped records, validating each one.
// Duplicate stock ids keep the first occurrence.
func NewSnapshot(records []VehicleRecord) *Snapshot {
	snap := &Snapshot{
		byStock: make(map[string]int, len(records)),
	}
	for _, rec := range records {
		rec.StockID = strings.ToUpper(strings.TrimSpace(rec.StockID))
		rec.VIN = strings.ToUpper(strings.TrimSpace(rec.VIN))
		if err := rec.Validate(); err != nil {
			snap.Skipped = append(snap.Skipped, SkippedRecord{
				StockID: rec.StockID,
				Reason:  fmt.Sprintf("invalid record: %v", err),
			})
			continue
		}
		if _, seen := snap.byStock[rec.StockID]; seen {
			snap.Skipped = append(snap.Skipped, SkippedRecord{
				StockID: rec.StockID,
				Reason:  "duplicate stock id in snapshot",
			})
			continue
		}
		snap.byStock[rec.StockID] = len(snap.Records)
		snap.Records = append(snap.Records, rec)
	}
	return snap
}

// Lookup returns the record for a stock id, if present.
func (s *Snapshot) Lookup(stockID string) (VehicleRecord, bool) {
	idx, ok := s.byStock[stockID]
	if !ok {
		return VehicleRecord{}, false
	}
	return s.Records[idx], true
}

// Map returns the snapshot as a stock id keyed map.
func (s *Snapshot) Map() map[string]VehicleRecord {
	out := make(map[string]VehicleRecord, len(s.Records))
	for _, rec := range s.Records {
		out[rec.StockID] = rec
	}
	return out
}

// Len returns the number of valid records in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Records)
}
