package postsync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kenbot/inventory-sync/internal/types"
)

// SoldBanner is prepended to the base text while a vehicle is sold. Restoring
// a vehicle removes the banner and leaves the base text untouched.
const SoldBanner = "*** VENDU / SOLD ***"

// stockMarkerPrefix is the embedded marker convention used to recover the
// stock id from post text when rebuilding the post map from post history.
const stockMarkerPrefix = "Stock #"

const priceLinePrefix = "Price: $"

// RenderBaseText produces the canonical post description for a vehicle.
// The output is deterministic for a given record, which is what makes
// no-op update suppression and the rebuild parser possible.
func RenderBaseText(rec types.VehicleRecord) string {
	var b strings.Builder

	var parts []string
	if rec.Year > 0 {
		parts = append(parts, strconv.Itoa(rec.Year))
	}
	for _, p := range []string{rec.Make, rec.Model, rec.Trim} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}
	b.WriteString(priceLinePrefix)
	b.WriteString(formatThousands(rec.Price / 100))
	b.WriteString("\n")
	if rec.Mileage > 0 {
		b.WriteString(fmt.Sprintf("Mileage: %s km\n", formatThousands(rec.Mileage)))
	}
	b.WriteString(stockMarkerPrefix)
	b.WriteString(rec.StockID)
	b.WriteString("\n")
	if rec.URL != "" {
		b.WriteString(rec.URL)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ComposeDisplay builds the text actually shown on the post for an entry:
// the base text alone while ACTIVE, the banner over it while SOLD.
func ComposeDisplay(baseText string, state types.PostState) string {
	if state == types.StateSold {
		return SoldBanner + "\n\n" + baseText
	}
	return baseText
}

// ParsedPost is the result of parsing stored post text back into post map
// fields during a rebuild.
type ParsedPost struct {
	StockID  string
	BaseText string
	Sold     bool
	Price    int
}

// ParsePostText recovers the stock id, base text, and sale state from stored
// post text. Posts without the stock marker are not ours and are ignored.
func ParsePostText(text string) (ParsedPost, bool) {
	var parsed ParsedPost

	body := text
	if strings.HasPrefix(body, SoldBanner) {
		parsed.Sold = true
		body = strings.TrimLeft(strings.TrimPrefix(body, SoldBanner), "\n")
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, stockMarkerPrefix) {
			parsed.StockID = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, stockMarkerPrefix)))
		}
		if strings.HasPrefix(line, priceLinePrefix) {
			parsed.Price = parsePriceCents(strings.TrimPrefix(line, priceLinePrefix))
		}
	}
	if parsed.StockID == "" {
		return ParsedPost{}, false
	}
	parsed.BaseText = body
	return parsed, true
}

// formatThousands renders an integer with comma separators.
func formatThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func parsePriceCents(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n * 100
}
