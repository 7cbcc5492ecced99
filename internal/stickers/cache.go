// Package stickers provides get-or-create caching of per-vehicle window
// sticker documents, keyed by VIN.
package stickers

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/kenbot/inventory-sync/internal/types"
)

const vinLength = 17

// DocumentCache is the content-addressed storage behind the manager.
// Get returns nil when no entry exists for the VIN.
type DocumentCache interface {
	GetSticker(ctx context.Context, vin string) (*types.StickerEntry, error)
	PutSticker(ctx context.Context, vin, storagePath string, doc []byte) (*types.StickerEntry, error)
}

// Source fetches the sticker document from the external provider.
// It is consulted only on cache miss.
type Source interface {
	Fetch(ctx context.Context, vin string) ([]byte, error)
}

// Manager implements write-once-read-many sticker caching: the first call for
// a VIN fetches and stores the document, every later call returns the cached
// entry without network access.
type Manager struct {
	cache  DocumentCache
	source Source
	group  singleflight.Group
}

// NewManager creates a Manager over the given cache and source.
func NewManager(cache DocumentCache, source Source) *Manager {
	return &Manager{cache: cache, source: source}
}

// StoragePath derives the deterministic cache path for a VIN.
func StoragePath(vin string) string {
	return fmt.Sprintf("stickers/%s.pdf", vin)
}

// EnsureCached returns the cache entry for vin, fetching and storing the
// document on first use. Concurrent calls for the same VIN are collapsed into
// a single fetch; a racing caller that finds an entry written first discards
// its own copy, which is safe because content for a given VIN is invariant.
func (m *Manager) EnsureCached(ctx context.Context, vin string) (*types.StickerEntry, error) {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	if len(vin) != vinLength {
		return nil, &types.ValidationError{
			Field:   "vin",
			Message: fmt.Sprintf("VIN must be %d characters, got %q", vinLength, vin),
		}
	}

	v, err, _ := m.group.Do(vin, func() (any, error) {
		return m.ensure(ctx, vin)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.StickerEntry), nil
}

func (m *Manager) ensure(ctx context.Context, vin string) (*types.StickerEntry, error) {
	entry, err := m.cache.GetSticker(ctx, vin)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sticker for %s: %w", vin, err)
	}
	if entry != nil {
		return entry, nil
	}

	doc, err := m.source.Fetch(ctx, vin)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sticker for %s: %w", vin, err)
	}

	// Another writer may have beaten our fetch; their copy wins and ours is
	// discarded.
	entry, err = m.cache.GetSticker(ctx, vin)
	if err != nil {
		return nil, fmt.Errorf("failed to re-check sticker for %s: %w", vin, err)
	}
	if entry != nil {
		return entry, nil
	}

	entry, err = m.cache.PutSticker(ctx, vin, StoragePath(vin), doc)
	if err != nil {
		return nil, fmt.Errorf("failed to store sticker for %s: %w", vin, err)
	}
	return entry, nil
}
