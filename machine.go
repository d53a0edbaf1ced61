package ticket

import (
	"errors"
	"time"

	"github.com/ticketframe/ticket/base32fmt"
	"github.com/ticketframe/ticket/bitio"
	"github.com/ticketframe/ticket/schema"
	"github.com/ticketframe/ticket/sequence"
	"github.com/ticketframe/ticket/tkspec"
)

// Machine (C5) is built per basis; it holds everything needed to assemble
// the ticket bit layout, apply encryption and hashing, and emit the
// ASCII form. It holds no mutable state of its own other than via the
// injected sequence.Sequence, which serializes its own Next/IsUnsequenced.
type Machine struct {
	factory   *Factory
	spec      *tkspec.Spec
	specIndex int
	basis     TicketBasis
	sequence  sequence.Sequence
	hasSecret bool
}

// IsDisposable reports whether this machine's sequence is still
// unsequenced at the current moment (spec.md §4.5: "is_disposable() =
// sequence.is_unsequenced(spec.now_timestamp())"), the signal Factory
// uses to sweep idle entries out of its machines cache.
func (m *Machine) IsDisposable() bool {
	nowTS := m.spec.ToTimestamp(time.Now().UnixMilli())
	return m.sequence.IsUnsequenced(nowTS)
}

// Issue assembles and emits a ticket for dataValues, following the bit
// layout and issue protocol of spec.md §4.5.
func (m *Machine) Issue(dataValues []schema.Value) (Ticket, error) {
	nowMs := time.Now().UnixMilli()
	ts := m.spec.ToTimestamp(nowMs)
	seq, err := m.sequence.Next(ts)
	if err != nil {
		return Ticket{}, newErrorf(CodeSequenceExhausted, "%v", err)
	}
	if seq < 0 {
		return Ticket{}, newError(CodeSequenceExhausted, "sequence counter returned a negative value")
	}

	w := bitio.NewWriter()
	w.WritePositiveInt(Version)
	w.WritePositiveInt(uint32(m.specIndex))
	if err := w.WritePositiveLong(uint64(ts)); err != nil {
		return Ticket{}, newErrorf(CodeInvalidArgument, "timestamp overflow: %v", err)
	}
	if err := w.WritePositiveLong(uint64(seq)); err != nil {
		return Ticket{}, newErrorf(CodeSequenceExhausted, "%v", err)
	}

	w.AppendBits(m.basis.OpenOriginBits, m.basis.OpenOriginBitLen)

	cfg := m.factory.config
	if _, err := cfg.DataSchema.WriteOpen(w, dataValues); err != nil {
		return Ticket{}, newErrorf(CodeInvalidArgument, "open data: %v", err)
	}

	if m.hasSecret {
		openPrefix := w.Bytes()
		digest := m.factory.digests.Digest(m.specIndex, openPrefix)
		nonce, _ := tkspec.DeriveNonce(digest)

		secretW := bitio.NewWriter()
		if _, err := cfg.OriginSchema.WriteSecret(secretW, m.basis.OriginValues); err != nil {
			return Ticket{}, newErrorf(CodeInvalidArgument, "secret origin: %v", err)
		}
		if _, err := cfg.DataSchema.WriteSecret(secretW, dataValues); err != nil {
			return Ticket{}, newErrorf(CodeInvalidArgument, "secret data: %v", err)
		}
		if err := secretW.WritePositiveLong(nonce); err != nil {
			return Ticket{}, newErrorf(CodeInvalidArgument, "nonce: %v", err)
		}

		sLength := secretW.Len()
		if sLength > tkspec.MaxSecretPayloadBits {
			return Ticket{}, newErrorf(CodeInvalidArgument, "secret payload %d bits exceeds the %d-bit cap", sLength, tkspec.MaxSecretPayloadBits)
		}
		w.WritePositiveInt(uint32(sLength))
		padded := bitio.XOR(secretW.Bytes(), digest[:], sLength)
		w.AppendBits(padded, sLength)
	} else {
		w.WritePositiveInt(0)
	}

	if m.spec.HashLengthBits > 0 {
		tag := m.factory.digests.HashTag(m.specIndex, w.Bytes(), m.spec.HashLengthBits)
		w.AppendBits(tag, m.spec.HashLengthBits)
	}

	pad := (4 - (w.Len()+4)%5) % 5
	for i := 0; i < pad; i++ {
		w.WriteBit(false)
	}

	str, err := m.factory.currentFormat().Encode(w.Bytes(), w.Len(), cfg.CharLimit)
	if err != nil {
		if errors.Is(err, base32fmt.ErrTooLong) {
			return Ticket{}, newErrorf(CodeTooLong, "%v", err)
		}
		// Any other Encode failure (e.g. a non-multiple-of-5 bit length)
		// is an internal layout defect, not a char_limit violation.
		return Ticket{}, newErrorf(CodeMalformed, "%v", err)
	}

	return Ticket{
		SpecIndex:      m.specIndex,
		TimestampMs:    m.spec.FromTimestamp(ts),
		SequenceNumber: seq,
		Origin:         cfg.OriginSchema.Adapt(m.basis.OriginValues),
		Data:           cfg.DataSchema.Adapt(dataValues),
		bitImage:       w.Bytes(),
		bitLen:         w.Len(),
		stringImage:    str,
	}, nil
}
