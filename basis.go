package ticket

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/ticketframe/ticket/schema"
	"golang.org/x/crypto/sha3"
)

// TicketBasis (C4/C5 key) is the immutable identity a Machine issues
// tickets under: a spec index plus an origin's open and secret bit
// images. Equality is over (spec_index, open_origin_bits,
// secret_origin_bits), which String's two branches both faithfully
// capture — the byte-length/hex-digest split below just avoids hashing
// when the origin has no secret fields to mix in.
type TicketBasis struct {
	SpecIndex          int
	OpenOriginBits     []byte
	OpenOriginBitLen   int
	SecretOriginBits   []byte
	SecretOriginBitLen int
	// HasSecretOrigin records whether the origin schema declares any
	// secret field at all — a structural property, not a fact about
	// SecretOriginBitLen (which is never 0: WriteSecret always emits at
	// least the field-count header, even for a schema with zero secret
	// fields).
	HasSecretOrigin bool
	// OriginValues backs the origin record view passed to Machine.Issue's
	// secret-field encoder; it is never serialized into the basis id.
	OriginValues []schema.Value
}

// String returns the canonical textual id spec.md §3 defines for a basis:
// hex of open_origin_bits followed by '0' and (spec_index+1) when there
// are no secret origin fields; otherwise hex of a Keccak digest over
// open || secret || spec_index_u32_be.
func (b TicketBasis) String() string {
	if !b.HasSecretOrigin {
		return hex.EncodeToString(b.OpenOriginBits) + "0" + strconv.Itoa(b.SpecIndex+1)
	}
	h := sha3.New256()
	h.Write(b.OpenOriginBits)
	h.Write(b.SecretOriginBits)
	var specBuf [4]byte
	binary.BigEndian.PutUint32(specBuf[:], uint32(b.SpecIndex))
	h.Write(specBuf[:])
	return hex.EncodeToString(h.Sum(nil))
}
