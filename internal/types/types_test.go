package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord(stockID string) VehicleRecord {
	return VehicleRecord{
		StockID: stockID,
		VIN:     (stockID + strings.Repeat("0", 17))[:17],
		Price:   1500000,
		Year:    2021,
		Make:    "Honda",
		Model:   "Civic",
	}
}

func TestVehicleRecord_Validate(t *testing.T) {
	rec := validRecord("A1")
	assert.NoError(t, rec.Validate())

	bad := rec
	bad.StockID = ""
	assert.Error(t, bad.Validate())

	bad = rec
	bad.VIN = "TOOSHORT"
	assert.Error(t, bad.Validate())

	bad = rec
	bad.Price = 0
	assert.Error(t, bad.Validate())
}

func TestNewSnapshot_NormalizesAndValidates(t *testing.T) {
	lower := validRecord("A1")
	lower.StockID = "  a1 "
	lower.VIN = strings.ToLower(lower.VIN)

	snap := NewSnapshot([]VehicleRecord{lower})
	require.Equal(t, 1, snap.Len())
	rec, ok := snap.Lookup("A1")
	require.True(t, ok)
	assert.Equal(t, "A1", rec.StockID)
	assert.Equal(t, strings.ToUpper(lower.VIN), rec.VIN)
}

func TestNewSnapshot_InvalidRecordsKeptAside(t *testing.T) {
	bad := validRecord("B2")
	bad.Price = 0

	snap := NewSnapshot([]VehicleRecord{validRecord("A1"), bad})
	assert.Equal(t, 1, snap.Len())
	require.Len(t, snap.Skipped, 1)
	assert.Equal(t, "B2", snap.Skipped[0].StockID)
	assert.Contains(t, snap.Skipped[0].Reason, "invalid record")
}

func TestNewSnapshot_DuplicateStockKeepsFirst(t *testing.T) {
	first := validRecord("A1")
	second := validRecord("A1")
	second.Price = 9900000

	snap := NewSnapshot([]VehicleRecord{first, second})
	assert.Equal(t, 1, snap.Len())
	rec, _ := snap.Lookup("A1")
	assert.Equal(t, first.Price, rec.Price)
	require.Len(t, snap.Skipped, 1)
	assert.Equal(t, "duplicate stock id in snapshot", snap.Skipped[0].Reason)
}

func TestSnapshot_Map(t *testing.T) {
	snap := NewSnapshot([]VehicleRecord{validRecord("A1"), validRecord("B2")})
	m := snap.Map()
	assert.Len(t, m, 2)
	assert.Equal(t, "A1", m["A1"].StockID)
}

func TestOptions_Normalize(t *testing.T) {
	opts := Options{ForceStock: "  k1234 "}.Normalize()
	assert.Equal(t, "K1234", opts.ForceStock)
	assert.Equal(t, DefaultRebuildLimit, opts.RebuildLimit)

	opts = Options{RebuildLimit: 50}.Normalize()
	assert.Equal(t, 50, opts.RebuildLimit)
}

func TestOptions_Validate(t *testing.T) {
	opts := Options{MaxTargets: -1}
	assert.Error(t, opts.Validate())

	opts = Options{MaxTargets: 10, RebuildLimit: 100}
	assert.NoError(t, opts.Validate())
}

func TestErrorClassification(t *testing.T) {
	var verr error = &ValidationError{Field: "vin", Message: "too short"}
	assert.True(t, IsValidation(verr))
	assert.False(t, IsTransient(verr))
	assert.Contains(t, verr.Error(), "vin")

	var terr error = &TransientError{Op: "create post", Cause: errors.New("429")}
	assert.True(t, IsTransient(terr))
	assert.ErrorContains(t, terr, "429")

	var cerr error = &ConsistencyError{Message: "post map out of sync"}
	assert.True(t, IsConsistency(cerr))
	assert.False(t, IsValidation(cerr))
}

func TestErrorClassification_SeesThroughWrapping(t *testing.T) {
	inner := &TransientError{Op: "fetch sticker", Cause: errors.New("timeout")}
	wrapped := fmt.Errorf("failed for VIN %s: %w", "1FTFW1ET5DFC10312", inner)
	assert.True(t, IsTransient(wrapped))

	var target *TransientError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "fetch sticker", target.Op)
}

func TestRunReport_Applied(t *testing.T) {
	report := RunReport{Published: 2, Sold: 1, Repriced: 3}
	assert.Equal(t, 6, report.Applied())

	idle := RunReport{Unchanged: 10, Deferred: 2}
	assert.Zero(t, idle.Applied())
}
