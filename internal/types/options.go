package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultRebuildLimit is how many recent posts the rebuild tool walks when no
// explicit limit is given.
const DefaultRebuildLimit = 300

// Options is the run configuration passed into the core. The core never reads
// ambient process state; the caller resolves env/flags and hands this in.
type Options struct {
	DryRun       bool   `json:"dry_run"`
	MaxTargets   int    `json:"max_targets" validate:"gte=0"`
	ForceStock   string `json:"force_stock"`
	Rebuild      bool   `json:"rebuild"`
	RebuildLimit int    `json:"rebuild_limit" validate:"gte=0"`
	Verbose      bool   `json:"verbose"`
}

// Normalize canonicalizes option values: the forced stock id is trimmed and
// upper-cased, and the rebuild limit falls back to the default when unset.
func (o Options) Normalize() Options {
	o.ForceStock = strings.ToUpper(strings.TrimSpace(o.ForceStock))
	if o.RebuildLimit <= 0 {
		o.RebuildLimit = DefaultRebuildLimit
	}
	return o
}

// Validate validates the Options using the validator.
func (o *Options) Validate() error {
	validate := validator.New()
	return validate.Struct(o)
}
