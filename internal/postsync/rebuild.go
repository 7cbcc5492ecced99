package postsync

import (
	"context"
	"fmt"

	"github.com/kenbot/inventory-sync/internal/types"
)

// Rebuild reconstructs the post map from the gateway's most recent posts,
// overwriting the local mapping. It is a recovery path for when the stored
// mapping is lost or suspect, and must run before a normal reconciliation
// pass so reappearing posts are not classified NEW again.
//
// Posts are walked newest first; when several posts carry the same stock
// marker only the newest wins. Posts without the marker are ignored.
func (s *Synchronizer) Rebuild(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("rebuild limit must be positive, got %d", limit)
	}

	posts, err := s.gateway.ListRecent(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list recent posts: %w", err)
	}

	seen := make(map[string]bool, len(posts))
	var entries []types.PostMapEntry
	for _, post := range posts {
		parsed, ok := ParsePostText(post.Text)
		if !ok {
			continue
		}
		if seen[parsed.StockID] {
			continue
		}
		seen[parsed.StockID] = true

		state := types.StateActive
		if parsed.Sold {
			state = types.StateSold
		}
		entries = append(entries, types.PostMapEntry{
			StockID:   parsed.StockID,
			PostID:    post.ID,
			BaseText:  parsed.BaseText,
			State:     state,
			LastPrice: parsed.Price,
			UpdatedAt: s.now(),
		})
	}

	if s.dryRun {
		return len(entries), nil
	}

	if err := s.posts.ReplacePostMap(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to overwrite post map: %w", err)
	}
	return len(entries), nil
}
