package tkspec

import "encoding/binary"

// lcg is a small deterministic linear-congruential generator seeded from a
// digest tail, used only to decouple the secret block's encoded length
// from its actual payload size (spec.md §4.5 "Nonce derivation"). It has
// no cryptographic purpose of its own — the hiding property comes from the
// nonce being folded into the secret block before encryption, not from the
// LCG's statistical quality.
type lcg struct {
	state uint64
}

func newLCG(seed int64) *lcg {
	return &lcg{state: uint64(seed)}
}

// next advances the generator using the constants from Knuth's MMIX LCG.
func (l *lcg) next() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return l.state
}

func (l *lcg) nextUint32() uint32 { return uint32(l.next() >> 32) }
func (l *lcg) nextInt32() int32   { return int32(l.nextUint32()) }

// DeriveNonce computes the length-hiding nonce from a digest over the
// ticket's open prefix (spec.md §4.5). It returns the nonce value and its
// bit length (count+1, in [17, 32]). bitLen describes the value only: the
// wire representation is always the self-delimiting positive_long code,
// which takes more bits than bitLen.
func DeriveNonce(digest [28]byte) (nonce uint64, bitLen int) {
	seed := int64(binary.BigEndian.Uint64(digest[20:28]))
	rng := newLCG(seed)
	count := 16 + rng.nextUint32()%16 // 16..31
	bits := rng.nextInt32()
	mask := (uint64(1) << count) - 1
	nonce = (uint64(1) << count) | (uint64(uint32(bits)) & mask)
	bitLen = int(count) + 1
	return nonce, bitLen
}
