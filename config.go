package ticket

import (
	"time"

	"github.com/ticketframe/ticket/base32fmt"
	"github.com/ticketframe/ticket/schema"
	"github.com/ticketframe/ticket/tkspec"
)

// Version is the single wire-format version this package emits and
// accepts. Changing any observable in the layout requires bumping this
// constant and keeping the old decode branch alive (spec.md §6).
const Version = 0

// Format describes how a ticket's bit image is rendered to and parsed
// from ASCII (C1). It is a plain alias of base32fmt.Format: the ticket
// string surface IS the base-32 formatter, not a wrapper around it.
type Format = base32fmt.Format

// DefaultFormat mirrors the lowercase, dash-grouped, z-padded convention
// the §8 scenarios expect of a freshly constructed factory.
var DefaultFormat = base32fmt.Default

// DefaultCharLimit is the ticket string surface's default length cap
// (spec.md §6: "length-capped by char_limit (default 256)").
const DefaultCharLimit = 256

// Config (C8) is a persistable, equatable description of a factory's
// schemas, spec history, and string-length cap. It does not retain
// secrets: per-spec keys are supplied separately to NewFactory and live
// only inside tkspec.Digests.
type Config struct {
	OriginSchema *schema.FieldSchema
	DataSchema   *schema.FieldSchema
	// Specs is the non-empty, ordered spec history; the last entry is
	// primary (used to issue new tickets), earlier entries are read-only.
	Specs []*tkspec.Spec
	// CharLimit caps the ticket string length on both issue and decode.
	CharLimit int
}

// ValidateConfig checks the invariants spec.md §3 places on TicketConfig.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return newError(CodeInvalidArgument, "config is required")
	}
	if len(cfg.Specs) == 0 {
		return newError(CodeInvalidArgument, "config: specs must be non-empty")
	}
	for i, s := range cfg.Specs {
		if s == nil {
			return newErrorf(CodeInvalidArgument, "config: specs[%d] is nil", i)
		}
	}
	if cfg.CharLimit < 1 {
		return newError(CodeInvalidArgument, "config: char_limit must be >= 1")
	}
	if cfg.OriginSchema == nil || cfg.DataSchema == nil {
		return newError(CodeInvalidArgument, "config: origin_schema and data_schema are required (use an empty schema for unit types)")
	}
	return nil
}

// DefaultConfig returns a minimal config matching §8 scenario 1's
// "vanilla" shape: empty origin/data schemas, a single minute-granularity
// spec with no hash tag, and the default character cap.
func DefaultConfig() (*Config, error) {
	empty, err := schema.New(nil)
	if err != nil {
		return nil, err
	}
	spec, err := tkspec.New(time.UTC, tkspec.Minute, 2020, 0)
	if err != nil {
		return nil, err
	}
	return &Config{
		OriginSchema: empty,
		DataSchema:   empty,
		Specs:        []*tkspec.Spec{spec},
		CharLimit:    DefaultCharLimit,
	}, nil
}
