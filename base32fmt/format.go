// Package base32fmt converts between a bit sequence and the grouped,
// human-friendly ASCII ticket string (spec.md §3/§4.1). It plays the same
// role for tickets that a byte-to-hex/base58 formatter plays for the
// teacher's addresses, but over a custom 32-symbol alphabet chosen to
// avoid visually ambiguous characters.
package base32fmt

import (
	"errors"
	"strings"
)

// ErrTooLong is returned when an encoded or decoded string would exceed
// the caller's character limit.
var ErrTooLong = errors.New("base32fmt: string exceeds character limit")

// ErrInvalidChar is returned when a decode input contains a non-printable
// or non-ASCII byte.
var ErrInvalidChar = errors.New("base32fmt: invalid character")

// alphabet is 0-9 plus 22 letters, excluding the visually ambiguous
// i, l, o and the pad-reserved z.
const alphabet = "0123456789abcdefghjkmnpqrstuvwxy"

var reverse [256]int8

func init() {
	for i := range reverse {
		reverse[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		reverse[c] = int8(i)
		reverse[c-'a'+'A'] = int8(i)
	}
}

// padChar is reserved and never a symbol; it is treated as a separator
// on decode, same as any other non-symbol printable character.
const padChar = 'z'
const padCharUpper = 'Z'

// Format describes how a bit sequence is rendered as ASCII.
type Format struct {
	UpperCase     bool
	GroupLength   int  // 0 means ungrouped
	SeparatorChar byte // printable ASCII, not a digit
	PadGroups     bool
}

// Default mirrors the lowercase, dash-grouped, z-padded convention used
// throughout the §8 scenarios.
var Default = Format{
	UpperCase:     false,
	GroupLength:   5,
	SeparatorChar: '-',
	PadGroups:     true,
}

// Validate checks the format's own invariants (spec.md §3): the separator
// must be printable ASCII and must not be a digit character.
func (f Format) Validate() error {
	if f.GroupLength < 0 {
		return errors.New("base32fmt: group length must be >= 0")
	}
	if f.SeparatorChar < 0x20 || f.SeparatorChar > 0x7e {
		return errors.New("base32fmt: separator must be printable ASCII")
	}
	if f.SeparatorChar >= '0' && f.SeparatorChar <= '9' {
		return errors.New("base32fmt: separator must not be a digit")
	}
	return nil
}

func (f Format) symbol(v int) byte {
	c := alphabet[v]
	if f.UpperCase && c >= 'a' {
		return c - 'a' + 'A'
	}
	return c
}

func (f Format) pad() byte {
	if f.UpperCase {
		return padCharUpper
	}
	return padChar
}

func (f Format) separator() byte {
	if f.UpperCase {
		return strings.ToUpper(string(f.SeparatorChar))[0]
	}
	return strings.ToLower(string(f.SeparatorChar))[0]
}

// Encode converts a bit sequence (its length MUST be a multiple of 5) into
// grouped ASCII, failing ErrTooLong if the result exceeds maxLen.
func (f Format) Encode(bits []byte, bitLen int, maxLen int) (string, error) {
	if bitLen%5 != 0 {
		return "", errors.New("base32fmt: bit length must be a multiple of 5")
	}
	n := bitLen / 5
	symbols := make([]byte, n)
	for i := 0; i < n; i++ {
		v := group5(bits, i*5)
		symbols[i] = f.symbol(v)
	}

	var out []byte
	if f.GroupLength == 0 {
		out = symbols
	} else {
		sep := f.separator()
		for i := 0; i < len(symbols); i += f.GroupLength {
			end := i + f.GroupLength
			if end > len(symbols) {
				end = len(symbols)
			}
			if i > 0 {
				out = append(out, sep)
			}
			group := symbols[i:end]
			out = append(out, group...)
			if f.PadGroups && len(group) < f.GroupLength {
				for k := len(group); k < f.GroupLength; k++ {
					out = append(out, f.pad())
				}
			}
		}
	}

	if len(out) > maxLen {
		return "", ErrTooLong
	}
	return string(out), nil
}

// group5 extracts 5 bits starting at bit offset off (MSB-first packing)
// and returns them as a value in [0, 32).
func group5(bits []byte, off int) int {
	v := 0
	for i := 0; i < 5; i++ {
		bitPos := off + i
		byteIdx := bitPos / 8
		bitIdx := bitPos % 8
		bit := 0
		if byteIdx < len(bits) && bits[byteIdx]&(1<<(7-uint(bitIdx))) != 0 {
			bit = 1
		}
		v = (v << 1) | bit
	}
	return v
}

// Decode converts an ASCII ticket string back into a bit sequence. Any
// character outside the symbol alphabet is treated as a separator
// (including padding characters, by virtue of not being symbols); a
// non-printable or non-ASCII byte fails ErrInvalidChar.
func (f Format) Decode(s string, maxLen int) ([]byte, int, error) {
	if len(s) > maxLen {
		return nil, 0, ErrTooLong
	}
	var symbolVals []int
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			return nil, 0, ErrInvalidChar
		}
		if v := reverse[c]; v >= 0 {
			symbolVals = append(symbolVals, int(v))
		}
		// else: separator or padding character, skip.
	}

	bitLen := len(symbolVals) * 5
	w := make([]byte, (bitLen+7)/8)
	pos := 0
	for _, v := range symbolVals {
		for i := 4; i >= 0; i-- {
			bit := (v >> uint(i)) & 1
			if bit != 0 {
				byteIdx := pos / 8
				bitIdx := pos % 8
				w[byteIdx] |= 1 << (7 - uint(bitIdx))
			}
			pos++
		}
	}
	return w, bitLen, nil
}
