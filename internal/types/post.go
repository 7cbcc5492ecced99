package types

import "time"

// PostState is the lifecycle state reflected on the social post.
type PostState string

const (
	StateActive PostState = "ACTIVE"
	StateSold   PostState = "SOLD"
)

// PostMapEntry maps a stock id to its social post. The entry is created when
// a vehicle is first published and mutated on every lifecycle transition; it
// is never deleted while the underlying post exists, so a sold vehicle can be
// restored later.
//
// BaseText is the canonical description independent of sale status. Only a
// NEW publish or a PRICE_CHANGED transition may rewrite it; SOLD/RESTORE
// compose display text around it without touching it.
type PostMapEntry struct {
	StockID   string    `json:"stock_id"`
	PostID    string    `json:"post_id"`
	BaseText  string    `json:"base_text"`
	State     PostState `json:"state"`
	LastPrice int       `json:"last_price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StickerEntry records one cached window sticker document. Entries are
// content-addressed by VIN and immutable after the first successful fetch.
type StickerEntry struct {
	VIN         string    `json:"vin"`
	StoragePath string    `json:"storage_path"`
	FetchedAt   time.Time `json:"fetched_at"`
}
