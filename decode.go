package ticket

import (
	"bytes"
	"errors"

	"github.com/ticketframe/ticket/base32fmt"
	"github.com/ticketframe/ticket/bitio"
	"github.com/ticketframe/ticket/tkspec"
)

// Decode parses str into a Ticket, following spec.md §4.6's decode
// protocol: version/spec checks, open fields, the secret block (if any),
// the hash tag (if the spec carries one), then the padding invariant.
func (f *Factory) Decode(str string) (Ticket, error) {
	if str == "" {
		return Ticket{}, newError(CodeInvalidArgument, "empty ticket string")
	}

	cfg := f.config
	bits, bitLen, err := f.currentFormat().Decode(str, cfg.CharLimit)
	if err != nil {
		return Ticket{}, wrapFormatErr(err)
	}
	r := bitio.NewReader(bits, bitLen)

	version, err := r.ReadPositiveInt()
	if err != nil {
		return Ticket{}, wrapBitioErr(err, "version")
	}
	if version != Version {
		return Ticket{}, newErrorf(CodeWrongVersion, "got version %d, want %d", version, Version)
	}

	specIndexU, err := r.ReadPositiveInt()
	if err != nil {
		return Ticket{}, wrapBitioErr(err, "spec_index")
	}
	specIndex := int(specIndexU)
	if specIndex > f.primary {
		return Ticket{}, newErrorf(CodeUnknownSpec, "spec_index %d exceeds primary %d", specIndex, f.primary)
	}
	spec := f.specs[specIndex]

	ts, err := r.ReadPositiveLong()
	if err != nil {
		return Ticket{}, wrapBitioErr(err, "timestamp")
	}
	seq, err := r.ReadPositiveLong()
	if err != nil {
		return Ticket{}, wrapBitioErr(err, "sequence")
	}

	originValues := cfg.OriginSchema.Defaults()
	dataValues := cfg.DataSchema.Defaults()
	if err := cfg.OriginSchema.ReadOpen(r, originValues); err != nil {
		return Ticket{}, wrapSchemaErr(err, "open origin")
	}
	if err := cfg.DataSchema.ReadOpen(r, dataValues); err != nil {
		return Ticket{}, wrapSchemaErr(err, "open data")
	}

	prefixEnd := r.Position()
	sLengthU, err := r.ReadPositiveInt()
	if err != nil {
		return Ticket{}, wrapBitioErr(err, "secret length")
	}
	sLength := int(sLengthU)
	if sLength > 0 {
		if sLength > tkspec.MaxSecretPayloadBits {
			return Ticket{}, newErrorf(CodeMalformed, "secret length %d exceeds the %d-bit cap", sLength, tkspec.MaxSecretPayloadBits)
		}
		sBits, err := r.ReadBits(sLength)
		if err != nil {
			return Ticket{}, wrapBitioErr(err, "secret block")
		}
		prefix := r.Prefix(prefixEnd)
		digest := f.digests.Digest(specIndex, prefix)
		plain := bitio.XOR(sBits, digest[:], sLength)

		sr := bitio.NewReader(plain, sLength)
		if err := cfg.OriginSchema.ReadSecret(sr, originValues); err != nil {
			return Ticket{}, wrapSchemaErr(err, "secret origin")
		}
		if err := cfg.DataSchema.ReadSecret(sr, dataValues); err != nil {
			return Ticket{}, wrapSchemaErr(err, "secret data")
		}
		if _, err := sr.ReadPositiveLong(); err != nil { // nonce, discarded
			return Ticket{}, wrapBitioErr(err, "nonce")
		}
		if sr.Remaining() != 0 {
			return Ticket{}, newError(CodeMalformed, "secret block has leftover bits")
		}
	}

	if spec.HashLengthBits > 0 {
		consumedEnd := r.Position()
		prior := r.Prefix(consumedEnd)
		expected := f.digests.HashTag(specIndex, prior, spec.HashLengthBits)
		got, err := r.ReadBits(spec.HashLengthBits)
		if err != nil {
			return Ticket{}, wrapBitioErr(err, "hash tag")
		}
		if !bytes.Equal(expected, got) {
			return Ticket{}, newError(CodeBadHash, "hash tag mismatch")
		}
	}

	withinBudget, allZero := r.TailZero()
	if !withinBudget || !allZero {
		return Ticket{}, newError(CodeMalformed, "trailing bits violate the padding invariant")
	}

	return Ticket{
		SpecIndex:      specIndex,
		TimestampMs:    spec.FromTimestamp(int64(ts)),
		SequenceNumber: int64(seq),
		Origin:         cfg.OriginSchema.Adapt(originValues),
		Data:           cfg.DataSchema.Adapt(dataValues),
		bitImage:       r.Prefix(r.Size()),
		bitLen:         r.Size(),
		stringImage:    str,
	}, nil
}

func wrapFormatErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, base32fmt.ErrTooLong) {
		return newErrorf(CodeTooLong, "%v", err)
	}
	return newErrorf(CodeInvalidChar, "%v", err)
}

func wrapBitioErr(err error, field string) error {
	if err == nil {
		return nil
	}
	return newErrorf(CodeMalformed, "%s: %v", field, err)
}

func wrapSchemaErr(err error, field string) error {
	if err == nil {
		return nil
	}
	return newErrorf(CodeMalformed, "%s: %v", field, err)
}
