package tkspec

import (
	"github.com/ticketframe/ticket/internal/keccak"
)

// Digests holds one pre-keyed Keccak sponge per spec index (spec.md §4.3).
// Entries are never mutated after construction — digest() always clones
// before updating, the same "reused-via-clone rather than re-keyed"
// discipline spec.md §5/§9 requires for thread safety.
type Digests struct {
	prekeyed []*keccak.State
}

// NewDigests builds one pre-keyed state for each of n specs, from a parallel
// list of secrets (which may be shorter than n; specs beyond the last
// secret reuse the last keyed state, per spec.md §4.3).
func NewDigests(n int, secrets [][]byte) *Digests {
	base := keccak.New(MaxHashLengthBits)
	prekeyed := make([]*keccak.State, n)

	k := len(secrets)
	var lastKeyed *keccak.State
	for i := 0; i < n; i++ {
		switch {
		case i < k:
			if len(secrets[i]) > 0 {
				d := base.Clone()
				d.Update(secrets[i])
				prekeyed[i] = d
			} else {
				prekeyed[i] = base
			}
			lastKeyed = prekeyed[i]
		default:
			if lastKeyed != nil {
				prekeyed[i] = lastKeyed
			} else {
				prekeyed[i] = base
			}
		}
	}
	return &Digests{prekeyed: prekeyed}
}

// Digest computes the keyed digest of bytes under spec index i.
func (d *Digests) Digest(specIndex int, data []byte) [28]byte {
	clone := d.prekeyed[specIndex].Clone()
	clone.Update(data)
	return clone.Finalize()
}

// HashTag returns the first hashLengthBits bits of Digest(specIndex, data),
// packed MSB-first, or nil if hashLengthBits is 0 (spec.md §4.3).
func (d *Digests) HashTag(specIndex int, data []byte, hashLengthBits int) []byte {
	if hashLengthBits == 0 {
		return nil
	}
	digest := d.Digest(specIndex, data)
	nBytes := (hashLengthBits + 7) / 8
	out := make([]byte, nBytes)
	copy(out, digest[:nBytes])
	if rem := hashLengthBits % 8; rem != 0 {
		mask := byte(0xFF << uint(8-rem))
		out[nBytes-1] &= mask
	}
	return out
}
