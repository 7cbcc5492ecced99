package scrape

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenbot/inventory-sync/internal/types"
)

func listingServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchListings_Success(t *testing.T) {
	server := listingServer(t, `{"listings": [
		{"stock_id": "K1234", "vin": "1FTFW1ET5DFC10312", "price": 3299900, "year": 2020, "make": "Ford", "model": "F-150", "mileage": 45210},
		{"stock_id": "K5678", "vin": "2HGFC2F59KH512345", "price": 1899900}
	]}`, http.StatusOK)

	provider, err := NewHTTPProvider(server.URL, time.Second)
	require.NoError(t, err)

	records, err := provider.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "K1234", records[0].StockID)
	assert.Equal(t, 3299900, records[0].Price)
	assert.Equal(t, "Ford", records[0].Make)
	assert.Equal(t, "K5678", records[1].StockID)
}

func TestFetchListings_InvalidItemsSkipped(t *testing.T) {
	// Missing vin, short vin, and non-integer price: each item is dropped on
	// its own, the valid one survives.
	server := listingServer(t, `{"listings": [
		{"stock_id": "BAD1", "price": 100},
		{"stock_id": "BAD2", "vin": "SHORT", "price": 100},
		{"stock_id": "BAD3", "vin": "2HGFC2F59KH512345", "price": "cheap"},
		{"stock_id": "GOOD", "vin": "1FTFW1ET5DFC10312", "price": 500000}
	]}`, http.StatusOK)

	provider, err := NewHTTPProvider(server.URL, time.Second)
	require.NoError(t, err)

	records, err := provider.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "GOOD", records[0].StockID)
}

func TestFetchListings_SkipWarningsGoToConfiguredWriter(t *testing.T) {
	server := listingServer(t, `{"listings": [
		{"stock_id": "BAD1", "price": 100},
		{"stock_id": "GOOD", "vin": "1FTFW1ET5DFC10312", "price": 500000}
	]}`, http.StatusOK)

	provider, err := NewHTTPProvider(server.URL, time.Second)
	require.NoError(t, err)

	var buf bytes.Buffer
	provider.SetOutput(&buf)

	records, err := provider.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, buf.String(), "Warning: listing 0 failed schema validation")
	assert.Contains(t, buf.String(), "vin")
}

func TestFetchListings_EmptyFeed(t *testing.T) {
	server := listingServer(t, `{"listings": []}`, http.StatusOK)

	provider, err := NewHTTPProvider(server.URL, time.Second)
	require.NoError(t, err)

	records, err := provider.FetchListings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchListings_ServerErrorIsTransient(t *testing.T) {
	server := listingServer(t, `{"error": "overloaded"}`, http.StatusServiceUnavailable)

	provider, err := NewHTTPProvider(server.URL, time.Second)
	require.NoError(t, err)

	_, err = provider.FetchListings(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsTransient(err))
}

func TestFetchListings_UnreachableFeedIsTransient(t *testing.T) {
	server := listingServer(t, "", http.StatusOK)
	url := server.URL
	server.Close()

	provider, err := NewHTTPProvider(url, time.Second)
	require.NoError(t, err)

	_, err = provider.FetchListings(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsTransient(err))
}

func TestFetchListings_NotFoundIsNotTransient(t *testing.T) {
	server := listingServer(t, `{"error": "no such dealer"}`, http.StatusNotFound)

	provider, err := NewHTTPProvider(server.URL, time.Second)
	require.NoError(t, err)

	_, err = provider.FetchListings(context.Background())
	require.Error(t, err)
	assert.False(t, types.IsTransient(err))
}
