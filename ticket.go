package ticket

import (
	"bytes"

	"github.com/ticketframe/ticket/schema"
)

// Ticket (C7) is the immutable decoded/encoded view of an issued token.
// Equality is by (bit_image, spec_index); string_image is informational
// only — two equal tickets may render differently under different
// formats (spec.md §3).
type Ticket struct {
	SpecIndex      int
	TimestampMs    int64
	SequenceNumber int64
	Origin         schema.Record
	Data           schema.Record

	bitImage    []byte
	bitLen      int
	stringImage string
}

// String returns the ticket's ASCII rendering at the time it was issued
// or decoded. Re-encoding under a different Format does not change this
// value; call Render to get a different rendering of the same bit image.
func (t Ticket) String() string { return t.stringImage }

// Render encodes the ticket's bit image under format, failing TooLong if
// the result exceeds charLimit characters.
func (t Ticket) Render(format Format, charLimit int) (string, error) {
	s, err := format.Encode(t.bitImage, t.bitLen, charLimit)
	if err != nil {
		return "", wrapFormatErr(err)
	}
	return s, nil
}

// BitLen reports the number of bits in the ticket's canonical bit image.
func (t Ticket) BitLen() int { return t.bitLen }

// Equal implements spec.md §3's equality: same spec, same bit image.
func (t Ticket) Equal(other Ticket) bool {
	return t.SpecIndex == other.SpecIndex &&
		t.bitLen == other.bitLen &&
		bytes.Equal(t.bitImage, other.bitImage)
}
