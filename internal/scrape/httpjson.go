package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kenbot/inventory-sync/internal/fetch"
	"github.com/kenbot/inventory-sync/internal/types"
)

// listingSchema validates each feed item before it is mapped to a
// VehicleRecord. Items failing validation are skipped, not fatal.
const listingSchema = `{
	"type": "object",
	"required": ["stock_id", "vin", "price"],
	"properties": {
		"stock_id": {"type": "string", "minLength": 1},
		"vin": {"type": "string", "minLength": 17, "maxLength": 17},
		"price": {"type": "integer", "minimum": 1},
		"year": {"type": "integer"},
		"make": {"type": "string"},
		"model": {"type": "string"},
		"trim": {"type": "string"},
		"mileage": {"type": "integer", "minimum": 0},
		"url": {"type": "string"},
		"photo_urls": {"type": "array", "items": {"type": "string"}}
	}
}`

// HTTPProvider fetches the listing feed from an HTTP endpoint serving
// JSON: GET {base}/listings -> {"listings": [...]}.
type HTTPProvider struct {
	baseURL string
	opts    *fetch.Options
	schema  *gojsonschema.Schema
	out     io.Writer
}

// NewHTTPProvider creates an HTTPProvider for the given base URL.
func NewHTTPProvider(baseURL string, timeout time.Duration) (*HTTPProvider, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(listingSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile listing schema: %w", err)
	}
	opts := fetch.DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    opts,
		schema:  schema,
		out:     os.Stdout,
	}, nil
}

// SetOutput redirects skipped-listing warnings to w.
func (p *HTTPProvider) SetOutput(w io.Writer) {
	if w != nil {
		p.out = w
	}
}

type feedResponse struct {
	Listings []json.RawMessage `json:"listings"`
}

// FetchListings retrieves and validates the current listing feed. An
// unreachable feed is a run-level failure; individually malformed items are
// skipped with a warning and the rest of the feed survives.
func (p *HTTPProvider) FetchListings(ctx context.Context) ([]types.VehicleRecord, error) {
	var feed feedResponse
	url := p.baseURL + "/listings"
	if err := fetch.JSON(ctx, url, p.opts, &feed); err != nil {
		var fe *fetch.Error
		if errors.As(err, &fe) && fe.Transient {
			return nil, &types.TransientError{Op: "listing fetch", Cause: err}
		}
		return nil, err
	}

	records := make([]types.VehicleRecord, 0, len(feed.Listings))
	for i, raw := range feed.Listings {
		result, err := p.schema.Validate(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			fmt.Fprintf(p.out, "Warning: listing %d unreadable, skipping: %v\n", i, err)
			continue
		}
		if !result.Valid() {
			fmt.Fprintf(p.out, "Warning: listing %d failed schema validation, skipping: %s\n", i, describeFailures(result))
			continue
		}

		var rec types.VehicleRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			fmt.Fprintf(p.out, "Warning: listing %d failed to decode, skipping: %v\n", i, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func describeFailures(result *gojsonschema.Result) string {
	var parts []string
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return strings.Join(parts, "; ")
}
