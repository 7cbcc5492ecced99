package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kenbot/inventory-sync/internal/fetch"
	"github.com/kenbot/inventory-sync/internal/postsync"
	"github.com/kenbot/inventory-sync/internal/types"
)

// HTTPJSON is a generic JSON-over-HTTP gateway adapter:
//
//	POST {base}/posts            {"text": ..., "photos": [...]} -> {"id": ...}
//	POST {base}/posts/{id}       {"text": ...}
//	GET  {base}/posts?limit=N    -> {"posts": [{"id": ..., "text": ...}]}
//
// The real social platform's wire format lives behind whatever service the
// base URL points at; this adapter carries no platform specifics.
type HTTPJSON struct {
	baseURL string
	opts    *fetch.Options
}

// NewHTTPJSON creates an HTTPJSON gateway for the given base URL. token, when
// non-empty, is sent as a bearer Authorization header.
func NewHTTPJSON(baseURL, token string, timeout time.Duration) *HTTPJSON {
	opts := fetch.DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	if token != "" {
		opts.Headers = map[string]string{"Authorization": "Bearer " + token}
	}
	return &HTTPJSON{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    opts,
	}
}

type createRequest struct {
	Text   string   `json:"text"`
	Photos []string `json:"photos,omitempty"`
}

type createResponse struct {
	ID string `json:"id"`
}

type updateRequest struct {
	Text string `json:"text"`
}

type listResponse struct {
	Posts []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"posts"`
}

// Create publishes a new post and returns its opaque id.
func (g *HTTPJSON) Create(ctx context.Context, text string, photos []string) (string, error) {
	var resp createResponse
	url := g.baseURL + "/posts"
	if err := fetch.PostJSON(ctx, url, g.opts, createRequest{Text: text, Photos: photos}, &resp); err != nil {
		return "", classify("create post", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("gateway returned no post id")
	}
	return resp.ID, nil
}

// Update rewrites the text of an existing post.
func (g *HTTPJSON) Update(ctx context.Context, postID, text string) error {
	url := fmt.Sprintf("%s/posts/%s", g.baseURL, postID)
	if err := fetch.PostJSON(ctx, url, g.opts, updateRequest{Text: text}, nil); err != nil {
		return classify("update post", err)
	}
	return nil
}

// ListRecent returns the most recent posts, newest first.
func (g *HTTPJSON) ListRecent(ctx context.Context, limit int) ([]postsync.Post, error) {
	var resp listResponse
	url := fmt.Sprintf("%s/posts?limit=%d", g.baseURL, limit)
	if err := fetch.JSON(ctx, url, g.opts, &resp); err != nil {
		return nil, classify("list posts", err)
	}
	posts := make([]postsync.Post, 0, len(resp.Posts))
	for _, p := range resp.Posts {
		posts = append(posts, postsync.Post{ID: p.ID, Text: p.Text})
	}
	return posts, nil
}

// classify maps fetch failures onto the run error taxonomy so the throttling
// wrapper knows what to retry.
func classify(op string, err error) error {
	var fe *fetch.Error
	if errors.As(err, &fe) && fe.Transient {
		return &types.TransientError{Op: op, Cause: err}
	}
	return err
}
