// Package postsync applies lifecycle events to social posts while preserving
// the base text invariants, and rebuilds the post map from post history.
package postsync

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kenbot/inventory-sync/internal/types"
)

// Post is one social post as seen through the gateway.
type Post struct {
	ID   string
	Text string
}

// Gateway is the narrow interface to the external social post service.
type Gateway interface {
	Create(ctx context.Context, text string, photos []string) (string, error)
	Update(ctx context.Context, postID, text string) error
	ListRecent(ctx context.Context, limit int) ([]Post, error)
}

// PostStore is the durable stock id -> post mapping. Get returns nil when no
// entry exists. Implementations must support atomic per-entry upserts.
type PostStore interface {
	GetPost(ctx context.Context, stockID string) (*types.PostMapEntry, error)
	UpsertPost(ctx context.Context, entry types.PostMapEntry) error
	ReplacePostMap(ctx context.Context, entries []types.PostMapEntry) error
}

// StickerCache is the get-or-create sticker document cache.
type StickerCache interface {
	EnsureCached(ctx context.Context, vin string) (*types.StickerEntry, error)
}

// Action describes what Apply did for an event.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionNoop    Action = "noop"
	ActionPlanned Action = "planned" // dry run: would have mutated
)

// Outcome reports the result of applying one lifecycle event.
type Outcome struct {
	StockID string
	Kind    types.EventKind
	Action  Action
	PostID  string
}

// Synchronizer applies lifecycle events against the gateway and post store.
// All operations are idempotent: re-applying an event against unchanged state
// is a no-op, and updates whose computed display text matches the recorded
// state are suppressed to reduce external API load.
type Synchronizer struct {
	gateway  Gateway
	posts    PostStore
	stickers StickerCache
	dryRun   bool
	now      func() time.Time
	out      io.Writer
}

// New creates a Synchronizer. stickers may be nil when publishing is not
// expected (rebuild-only use).
func New(gateway Gateway, posts PostStore, stickers StickerCache, dryRun bool) *Synchronizer {
	return &Synchronizer{
		gateway:  gateway,
		posts:    posts,
		stickers: stickers,
		dryRun:   dryRun,
		now:      time.Now,
		out:      os.Stdout,
	}
}

// SetOutput redirects non-fatal warnings to w. The runner points this at the
// same writer its step log uses.
func (s *Synchronizer) SetOutput(w io.Writer) {
	if w != nil {
		s.out = w
	}
}

// Apply performs the post mutation for one lifecycle event.
func (s *Synchronizer) Apply(ctx context.Context, ev types.LifecycleEvent) (Outcome, error) {
	switch ev.Kind {
	case types.EventNew:
		return s.applyNew(ctx, ev)
	case types.EventSold:
		return s.applySold(ctx, ev)
	case types.EventRestored:
		return s.applyRestored(ctx, ev)
	case types.EventPriceChanged:
		return s.applyPriceChanged(ctx, ev)
	case types.EventForced:
		return s.applyForced(ctx, ev)
	default:
		return Outcome{}, fmt.Errorf("unknown event kind %q for stock %s", ev.Kind, ev.StockID)
	}
}

func (s *Synchronizer) applyNew(ctx context.Context, ev types.LifecycleEvent) (Outcome, error) {
	out := Outcome{StockID: ev.StockID, Kind: ev.Kind}
	if ev.Record == nil {
		return out, &types.ValidationError{Field: "record", Message: "NEW event without a vehicle record"}
	}

	existing, err := s.posts.GetPost(ctx, ev.StockID)
	if err != nil {
		return out, fmt.Errorf("failed to load post entry for %s: %w", ev.StockID, err)
	}
	if existing != nil {
		return out, &types.ConsistencyError{
			Message: fmt.Sprintf("NEW event for %s but a post entry already exists (post %s)", ev.StockID, existing.PostID),
		}
	}

	if s.dryRun {
		out.Action = ActionPlanned
		return out, nil
	}

	photos := append([]string(nil), ev.Record.PhotoURLs...)
	if s.stickers != nil {
		sticker, err := s.stickers.EnsureCached(ctx, ev.Record.VIN)
		if err != nil {
			if len(photos) == 0 {
				return out, fmt.Errorf("no photos available for %s: %w", ev.StockID, err)
			}
			fmt.Fprintf(s.out, "Warning: sticker unavailable for %s: %v\n", ev.Record.VIN, err)
		} else {
			photos = append(photos, sticker.StoragePath)
		}
	}
	if len(photos) == 0 {
		return out, &types.ValidationError{Field: "photos", Message: fmt.Sprintf("no photos for stock %s", ev.StockID)}
	}

	baseText := RenderBaseText(*ev.Record)
	postID, err := s.gateway.Create(ctx, baseText, photos)
	if err != nil {
		return out, fmt.Errorf("failed to create post for %s: %w", ev.StockID, err)
	}

	entry := types.PostMapEntry{
		StockID:   ev.StockID,
		PostID:    postID,
		BaseText:  baseText,
		State:     types.StateActive,
		LastPrice: ev.Record.Price,
		UpdatedAt: s.now(),
	}
	if err := s.posts.UpsertPost(ctx, entry); err != nil {
		return out, fmt.Errorf("post %s created but entry not saved for %s: %w", postID, ev.StockID, err)
	}

	out.Action = ActionCreated
	out.PostID = postID
	return out, nil
}

func (s *Synchronizer) applySold(ctx context.Context, ev types.LifecycleEvent) (Outcome, error) {
	out := Outcome{StockID: ev.StockID, Kind: ev.Kind}

	entry, err := s.posts.GetPost(ctx, ev.StockID)
	if err != nil {
		return out, fmt.Errorf("failed to load post entry for %s: %w", ev.StockID, err)
	}
	if entry == nil {
		// A sold vehicle with no prior post is a data fault, not something to
		// guess around.
		return out, &types.ConsistencyError{
			Message: fmt.Sprintf("SOLD event for %s but no post entry exists", ev.StockID),
		}
	}
	if entry.State == types.StateSold {
		out.Action = ActionNoop
		out.PostID = entry.PostID
		return out, nil
	}

	if s.dryRun {
		out.Action = ActionPlanned
		out.PostID = entry.PostID
		return out, nil
	}

	display := ComposeDisplay(entry.BaseText, types.StateSold)
	if err := s.gateway.Update(ctx, entry.PostID, display); err != nil {
		return out, fmt.Errorf("failed to mark %s sold: %w", ev.StockID, err)
	}

	entry.State = types.StateSold
	entry.UpdatedAt = s.now()
	if err := s.posts.UpsertPost(ctx, *entry); err != nil {
		return out, fmt.Errorf("failed to save sold state for %s: %w", ev.StockID, err)
	}

	out.Action = ActionUpdated
	out.PostID = entry.PostID
	return out, nil
}

func (s *Synchronizer) applyRestored(ctx context.Context, ev types.LifecycleEvent) (Outcome, error) {
	out := Outcome{StockID: ev.StockID, Kind: ev.Kind}

	entry, err := s.posts.GetPost(ctx, ev.StockID)
	if err != nil {
		return out, fmt.Errorf("failed to load post entry for %s: %w", ev.StockID, err)
	}
	if entry == nil {
		return out, &types.ConsistencyError{
			Message: fmt.Sprintf("RESTORED event for %s but no post entry exists", ev.StockID),
		}
	}
	if entry.State == types.StateActive {
		out.Action = ActionNoop
		out.PostID = entry.PostID
		return out, nil
	}

	if s.dryRun {
		out.Action = ActionPlanned
		out.PostID = entry.PostID
		return out, nil
	}

	// Banner off, base text back as-is. BaseText itself is never touched here.
	if err := s.gateway.Update(ctx, entry.PostID, entry.BaseText); err != nil {
		return out, fmt.Errorf("failed to restore %s: %w", ev.StockID, err)
	}

	entry.State = types.StateActive
	entry.UpdatedAt = s.now()
	if err := s.posts.UpsertPost(ctx, *entry); err != nil {
		return out, fmt.Errorf("failed to save restored state for %s: %w", ev.StockID, err)
	}

	out.Action = ActionUpdated
	out.PostID = entry.PostID
	return out, nil
}

func (s *Synchronizer) applyPriceChanged(ctx context.Context, ev types.LifecycleEvent) (Outcome, error) {
	out := Outcome{StockID: ev.StockID, Kind: ev.Kind}
	if ev.Record == nil {
		return out, &types.ValidationError{Field: "record", Message: "PRICE_CHANGED event without a vehicle record"}
	}

	entry, err := s.posts.GetPost(ctx, ev.StockID)
	if err != nil {
		return out, fmt.Errorf("failed to load post entry for %s: %w", ev.StockID, err)
	}
	if entry == nil {
		return out, &types.ConsistencyError{
			Message: fmt.Sprintf("PRICE_CHANGED event for %s but no post entry exists", ev.StockID),
		}
	}

	baseText := RenderBaseText(*ev.Record)
	if baseText == entry.BaseText && entry.LastPrice == ev.Record.Price {
		out.Action = ActionNoop
		out.PostID = entry.PostID
		return out, nil
	}

	if s.dryRun {
		out.Action = ActionPlanned
		out.PostID = entry.PostID
		return out, nil
	}

	// A price change on a sold vehicle must not silently drop the SOLD marker.
	display := ComposeDisplay(baseText, entry.State)
	if err := s.gateway.Update(ctx, entry.PostID, display); err != nil {
		return out, fmt.Errorf("failed to update price for %s: %w", ev.StockID, err)
	}

	entry.BaseText = baseText
	entry.LastPrice = ev.Record.Price
	entry.UpdatedAt = s.now()
	if err := s.posts.UpsertPost(ctx, *entry); err != nil {
		return out, fmt.Errorf("failed to save repriced entry for %s: %w", ev.StockID, err)
	}

	out.Action = ActionUpdated
	out.PostID = entry.PostID
	return out, nil
}

// applyForced bypasses classification and re-applies whatever state the
// forced vehicle's current entry says, using the latest scraped record.
func (s *Synchronizer) applyForced(ctx context.Context, ev types.LifecycleEvent) (Outcome, error) {
	out := Outcome{StockID: ev.StockID, Kind: ev.Kind}
	if ev.Record == nil {
		return out, &types.ValidationError{Field: "record", Message: "FORCE event without a vehicle record"}
	}

	entry, err := s.posts.GetPost(ctx, ev.StockID)
	if err != nil {
		return out, fmt.Errorf("failed to load post entry for %s: %w", ev.StockID, err)
	}
	if entry == nil {
		return s.applyNew(ctx, types.LifecycleEvent{Kind: types.EventNew, StockID: ev.StockID, Record: ev.Record})
	}

	if s.dryRun {
		out.Action = ActionPlanned
		out.PostID = entry.PostID
		return out, nil
	}

	baseText := RenderBaseText(*ev.Record)
	display := ComposeDisplay(baseText, entry.State)
	if err := s.gateway.Update(ctx, entry.PostID, display); err != nil {
		return out, fmt.Errorf("failed to force-republish %s: %w", ev.StockID, err)
	}

	entry.BaseText = baseText
	entry.LastPrice = ev.Record.Price
	entry.UpdatedAt = s.now()
	if err := s.posts.UpsertPost(ctx, *entry); err != nil {
		return out, fmt.Errorf("failed to save forced entry for %s: %w", ev.StockID, err)
	}

	out.Action = ActionUpdated
	out.PostID = entry.PostID
	return out, nil
}
