// Package scrape defines the listing snapshot provider interface and its
// HTTP-JSON adapter. The provider is an external collaborator: the engine
// consumes its output and never implements page scraping itself.
package scrape

import (
	"context"

	"github.com/kenbot/inventory-sync/internal/types"
)

// Provider produces the current set of vehicle records for one run.
type Provider interface {
	FetchListings(ctx context.Context) ([]types.VehicleRecord, error)
}
