package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/kenbot/inventory-sync/internal/postsync"
)

// InMemory is a Gateway kept entirely in memory. It backs tests and local
// experiments where no real posting endpoint is configured.
type InMemory struct {
	mu     sync.Mutex
	nextID int
	order  []string // newest last
	posts  map[string]string
}

// NewInMemory creates an empty in-memory gateway.
func NewInMemory() *InMemory {
	return &InMemory{posts: make(map[string]string)}
}

// Create stores a new post and returns a generated id.
func (g *InMemory) Create(_ context.Context, text string, _ []string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := fmt.Sprintf("post-%d", g.nextID)
	g.posts[id] = text
	g.order = append(g.order, id)
	return id, nil
}

// Update rewrites a stored post's text.
func (g *InMemory) Update(_ context.Context, postID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.posts[postID]; !ok {
		return fmt.Errorf("post %s not found", postID)
	}
	g.posts[postID] = text
	return nil
}

// ListRecent returns up to limit posts, newest first.
func (g *InMemory) ListRecent(_ context.Context, limit int) ([]postsync.Post, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []postsync.Post
	for i := len(g.order) - 1; i >= 0 && len(out) < limit; i-- {
		id := g.order[i]
		out = append(out, postsync.Post{ID: id, Text: g.posts[id]})
	}
	return out, nil
}

// Text returns the current text of a post, for assertions in tests.
func (g *InMemory) Text(postID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	text, ok := g.posts[postID]
	return text, ok
}
