// Package keccak implements the Keccak-f[1600] permutation and a sponge
// built on it at an arbitrary capacity, including the non-standard 224-bit
// capacity tkspec's pre-keyed digest (spec.md §4.3) requires. No published
// Keccak/SHA3 package — not golang.org/x/crypto/sha3, not the Go 1.24
// standard library's crypto/sha3 — exposes a sponge at this capacity: every
// NIST-standardized variant fixes capacity to 2x its output size (SHA3-224
// has capacity 448, not 224), so the tag/pad construction here needs its
// own bespoke pad-and-permute plumbing rather than calling into one of
// those. The permutation itself (round constants, rotation offsets, the
// theta/rho/pi/chi/iota step order) is the textbook Keccak-f[1600]
// algorithm; its lane layout and round table follow the structure used by
// the pack's GF(2)-circuit rendition of the same permutation.
package keccak

import "encoding/binary"

const laneCount = 25
const rounds = 24

var roundConstants = [rounds]uint64{
	0x0000000000000001, 0x0000000000008082, 0x800000000000808a, 0x8000000080008000,
	0x000000000000808b, 0x0000000080000001, 0x8000000080008081, 0x8000000000008009,
	0x000000000000008a, 0x0000000000000088, 0x0000000080008009, 0x000000008000000a,
	0x000000008000808b, 0x800000000000008b, 0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080, 0x000000000000800a, 0x800000008000000a,
	0x8000000080008081, 0x8000000000008080, 0x0000000080000001, 0x8000000080008008,
}

// rotationOffsets[x][y] is the rho-step rotation amount for lane (x, y).
var rotationOffsets = [5][5]uint{
	{0, 36, 3, 41, 18},
	{1, 44, 10, 45, 2},
	{62, 6, 43, 15, 61},
	{28, 55, 25, 21, 56},
	{27, 20, 39, 8, 14},
}

func idx(x, y int) int { return 5*x + y }

func rotl64(v uint64, n uint) uint64 {
	n &= 63
	if n == 0 {
		return v
	}
	return (v << n) | (v >> (64 - n))
}

func permute(a *[laneCount]uint64) {
	for round := 0; round < rounds; round++ {
		// Theta
		var c [5]uint64
		for x := 0; x < 5; x++ {
			c[x] = a[idx(x, 0)] ^ a[idx(x, 1)] ^ a[idx(x, 2)] ^ a[idx(x, 3)] ^ a[idx(x, 4)]
		}
		var d [5]uint64
		for x := 0; x < 5; x++ {
			d[x] = c[(x+4)%5] ^ rotl64(c[(x+1)%5], 1)
		}
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				a[idx(x, y)] ^= d[x]
			}
		}

		// Rho + Pi
		var b [laneCount]uint64
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				newX := y
				newY := (2*x + 3*y) % 5
				b[idx(newX, newY)] = rotl64(a[idx(x, y)], rotationOffsets[x][y])
			}
		}

		// Chi
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				a[idx(x, y)] = b[idx(x, y)] ^ (^b[idx((x+1)%5, y)] & b[idx((x+2)%5, y)])
			}
		}

		// Iota
		a[idx(0, 0)] ^= roundConstants[round]
	}
}

// State is a clonable Keccak sponge at a configurable capacity, matching
// the new/clone/update/finalize contract spec.md §4.3/§6 requires of the
// digest primitive.
type State struct {
	bytes [200]byte // canonical 1600-bit state, lane i at bytes[8i:8i+8] little-endian
	rate  int       // bytes absorbed/squeezed per permutation, = 200 - capacity/8
	buf   []byte    // bytes not yet absorbed
}

// New returns a fresh sponge at the given capacity, in bits.
func New(capacityBits int) *State {
	return &State{rate: 200 - capacityBits/8}
}

// Clone returns an independent copy of s at its current internal position,
// matching the "pre-keying" clone-before-use discipline in spec.md §4.3/§5:
// a pre-keyed digest is never mutated directly, only cloned and then used.
func (s *State) Clone() *State {
	c := &State{rate: s.rate}
	c.bytes = s.bytes
	c.buf = append([]byte(nil), s.buf...)
	return c
}

func (s *State) permuteOnce() {
	var a [laneCount]uint64
	for i := 0; i < laneCount; i++ {
		a[i] = binary.LittleEndian.Uint64(s.bytes[i*8:])
	}
	permute(&a)
	for i := 0; i < laneCount; i++ {
		binary.LittleEndian.PutUint64(s.bytes[i*8:], a[i])
	}
}

func (s *State) absorbBlock(block []byte) {
	for i, b := range block {
		s.bytes[i] ^= b
	}
	s.permuteOnce()
}

// Update absorbs more input, permuting once per full rate-sized block and
// buffering any remainder for the next Update or Finalize.
func (s *State) Update(p []byte) {
	s.buf = append(s.buf, p...)
	for len(s.buf) >= s.rate {
		s.absorbBlock(s.buf[:s.rate])
		s.buf = s.buf[s.rate:]
	}
}

// Finalize pads and absorbs the remaining buffered input and squeezes a
// 28-byte (224-bit) digest, the fixed output width spec.md §4.3 specifies.
// The padding is a single marker bit after the message and a final marker
// bit at the end of the rate-sized block — simpler than, and not
// interchangeable with, the NIST SHA3 domain-separated pad10*1 scheme,
// since this sponge is not a NIST variant to begin with.
func (s *State) Finalize() [28]byte {
	padded := make([]byte, s.rate)
	copy(padded, s.buf)
	padded[len(s.buf)] |= 0x01
	padded[s.rate-1] |= 0x80
	s.absorbBlock(padded)

	var out [28]byte
	copy(out[:], s.bytes[:28])
	return out
}
