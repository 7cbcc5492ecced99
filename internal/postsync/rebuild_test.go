package postsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenbot/inventory-sync/internal/types"
)

func TestRebuild_ReconstructsEntriesFromHistory(t *testing.T) {
	gw := newFakeGateway()
	store := newFakeStore()
	s := New(gw, store, nil, false)

	active := testRecord()
	soldRec := testRecord()
	soldRec.StockID = "K9999"

	_, err := gw.Create(context.Background(), RenderBaseText(active), nil)
	require.NoError(t, err)
	_, err = gw.Create(context.Background(), ComposeDisplay(RenderBaseText(soldRec), types.StateSold), nil)
	require.NoError(t, err)
	// Not ours: no stock marker, must be ignored.
	_, err = gw.Create(context.Background(), "Garage sale this Saturday!", nil)
	require.NoError(t, err)

	count, err := s.Rebuild(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got := store.entry(t, "K1234")
	assert.Equal(t, types.StateActive, got.State)
	assert.Equal(t, RenderBaseText(active), got.BaseText)
	assert.Equal(t, active.Price, got.LastPrice)

	sold := store.entry(t, "K9999")
	assert.Equal(t, types.StateSold, sold.State)
	assert.Equal(t, RenderBaseText(soldRec), sold.BaseText, "banner must be stripped from the rebuilt base text")
}

func TestRebuild_NewestPostWinsPerStock(t *testing.T) {
	gw := newFakeGateway()
	store := newFakeStore()
	s := New(gw, store, nil, false)

	rec := testRecord()
	oldID, err := gw.Create(context.Background(), RenderBaseText(rec), nil)
	require.NoError(t, err)
	rec.Price = 3100000
	newID, err := gw.Create(context.Background(), RenderBaseText(rec), nil)
	require.NoError(t, err)

	count, err := s.Rebuild(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got := store.entry(t, rec.StockID)
	assert.Equal(t, newID, got.PostID)
	assert.NotEqual(t, oldID, got.PostID)
	assert.Equal(t, 3100000, got.LastPrice)
}

func TestRebuild_OverwritesStaleEntries(t *testing.T) {
	gw := newFakeGateway()
	store := newFakeStore(types.PostMapEntry{StockID: "STALE", PostID: "post-missing", State: types.StateActive})
	s := New(gw, store, nil, false)

	rec := testRecord()
	_, err := gw.Create(context.Background(), RenderBaseText(rec), nil)
	require.NoError(t, err)

	_, err = s.Rebuild(context.Background(), 50)
	require.NoError(t, err)

	_, ok := store.entries["STALE"]
	assert.False(t, ok, "rebuild replaces the mapping wholesale")
	store.entry(t, rec.StockID)
}

func TestRebuild_DryRunCountsWithoutWriting(t *testing.T) {
	gw := newFakeGateway()
	store := newFakeStore()
	s := New(gw, store, nil, true)

	_, err := gw.Create(context.Background(), RenderBaseText(testRecord()), nil)
	require.NoError(t, err)

	count, err := s.Rebuild(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, store.entries)
}

func TestRebuild_RejectsNonPositiveLimit(t *testing.T) {
	s := New(newFakeGateway(), newFakeStore(), nil, false)
	_, err := s.Rebuild(context.Background(), 0)
	assert.Error(t, err)
}
