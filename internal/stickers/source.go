package stickers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kenbot/inventory-sync/internal/fetch"
	"github.com/kenbot/inventory-sync/internal/types"
)

// HTTPSource fetches sticker documents from an external HTTP endpoint.
// The document URL is derived from the VIN: {base}/{vin}.pdf.
type HTTPSource struct {
	baseURL string
	opts    *fetch.Options
}

// NewHTTPSource creates an HTTPSource for the given base URL.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	opts := fetch.DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    opts,
	}
}

// Fetch downloads the sticker document for a VIN.
func (s *HTTPSource) Fetch(ctx context.Context, vin string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s.pdf", s.baseURL, vin)
	res, err := fetch.Bytes(ctx, url, s.opts)
	if err != nil {
		var fe *fetch.Error
		if errors.As(err, &fe) && fe.Transient {
			return nil, &types.TransientError{Op: "sticker fetch", Cause: err}
		}
		return nil, err
	}
	if len(res.Body) == 0 {
		return nil, fmt.Errorf("empty sticker document for %s", vin)
	}
	return res.Body, nil
}
