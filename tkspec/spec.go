// Package tkspec holds TicketSpec (C3: time origin, granularity, hash
// length) and the pre-keyed digest pipeline that both tags and encrypts
// ticket payloads (spec.md §4.3). It plays the role the teacher's
// crypto.CryptoProvider interface plays for consensus signature
// verification: a narrow, swappable cryptographic surface the rest of the
// module depends on only through its exported methods.
package tkspec

import (
	"errors"
	"time"
)

// Granularity is the quantization of now_ms - origin_ms used to produce a
// spec-local timestamp (spec.md glossary).
type Granularity int

const (
	Millisecond Granularity = iota
	Second
	Minute
	Hour
)

func (g Granularity) scaleMs() int64 {
	switch g {
	case Second:
		return 1000
	case Minute:
		return 60_000
	case Hour:
		return 3_600_000
	default:
		return 1
	}
}

// MaxHashLengthBits is the upper bound spec.md §3 places on hash_length_bits.
const MaxHashLengthBits = 224

// MaxSecretPayloadBits is spec.md §3's bound on the secret block: the
// 224-bit digest reserves 64 bits for the length-hiding nonce.
const MaxSecretPayloadBits = MaxHashLengthBits - 64

// Spec is the immutable per-format configuration (C3).
type Spec struct {
	TimeZone       *time.Location
	Granularity    Granularity
	OriginYear     int
	HashLengthBits int

	originMs int64
}

// New constructs a Spec, freezing its origin_ms at the moment of
// construction. Per DESIGN.md's resolution of spec.md §9's open question,
// specs are never re-interpreted against a different time zone later: each
// one remembers its own origin forever, so historical specs keep decoding
// correctly even after a newer spec with a different zone becomes primary.
func New(tz *time.Location, granularity Granularity, originYear int, hashLengthBits int) (*Spec, error) {
	if tz == nil {
		return nil, errors.New("tkspec: time zone is required")
	}
	if hashLengthBits < 0 || hashLengthBits > MaxHashLengthBits {
		return nil, errors.New("tkspec: hash_length_bits must be in [0, 224]")
	}
	origin := time.Date(originYear, time.January, 1, 0, 0, 0, 0, tz)
	return &Spec{
		TimeZone:       tz,
		Granularity:    granularity,
		OriginYear:     originYear,
		HashLengthBits: hashLengthBits,
		originMs:       origin.UnixMilli(),
	}, nil
}

// OriginMs returns the UTC millisecond instant of midnight of OriginYear in
// TimeZone, frozen at construction time.
func (s *Spec) OriginMs() int64 { return s.originMs }

// ToTimestamp converts an absolute UTC millisecond instant to this spec's
// local timestamp.
func (s *Spec) ToTimestamp(nowMs int64) int64 {
	return (nowMs - s.originMs) / s.Granularity.scaleMs()
}

// FromTimestamp is ToTimestamp's inverse, used to reconstruct a decoded
// ticket's absolute timestamp_ms (spec.md §3, Ticket.timestamp_ms).
func (s *Spec) FromTimestamp(ts int64) int64 {
	return ts*s.Granularity.scaleMs() + s.originMs
}
