package ticket

import (
	"testing"
	"time"

	"github.com/ticketframe/ticket/schema"
	"github.com/ticketframe/ticket/tkspec"
)

func emptySchema(t *testing.T) *schema.FieldSchema {
	t.Helper()
	fs, err := schema.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func newFactory(t *testing.T, cfg *Config, secrets [][]byte, opts ...Option) *Factory {
	t.Helper()
	f, err := NewFactory(cfg, secrets, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// Scenario 1: vanilla round-trip.
func TestVanillaRoundTrip(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	f := newFactory(t, cfg, nil)

	m, err := f.MachineFor(nil)
	if err != nil {
		t.Fatal(err)
	}
	issued, err := m.Issue(nil)
	if err != nil {
		t.Fatal(err)
	}
	if issued.SequenceNumber != 0 {
		t.Fatalf("expected sequence 0 for the first ticket, got %d", issued.SequenceNumber)
	}

	decoded, err := f.Decode(issued.String())
	if err != nil {
		t.Fatal(err)
	}
	if !issued.Equal(decoded) {
		t.Fatalf("expected decoded ticket to equal issued ticket: %+v vs %+v", issued, decoded)
	}
}

// Scenario 2: hash forgery.
func TestHashForgeryIsRejected(t *testing.T) {
	spec, err := tkspec.New(time.UTC, tkspec.Second, 2020, 32)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		OriginSchema: emptySchema(t),
		DataSchema:   emptySchema(t),
		Specs:        []*tkspec.Spec{spec},
		CharLimit:    DefaultCharLimit,
	}
	f := newFactory(t, cfg, [][]byte{[]byte("Secret Passphraze!")})

	m, err := f.MachineFor(nil)
	if err != nil {
		t.Fatal(err)
	}
	issued, err := m.Issue(nil)
	if err != nil {
		t.Fatal(err)
	}

	tampered := flipOneSymbol(issued.String())
	if _, err := f.Decode(tampered); err == nil {
		t.Fatal("expected decode of a tampered ticket to fail")
	} else if te, ok := err.(*Error); !ok || (te.Code != CodeBadHash && te.Code != CodeMalformed) {
		t.Fatalf("expected BadHash or Malformed, got %v", err)
	}
}

// flipOneSymbol changes the last non-separator, non-pad symbol, which
// always carries hash-tag bits (padding is at most 4 bits); the leading
// symbols carry the version and spec_index, where a change is rejected as
// WrongVersion or UnknownSpec before the tag is checked.
func flipOneSymbol(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		c := b[i]
		if c != '-' && c != 'z' {
			if c == 'a' {
				b[i] = 'b'
			} else {
				b[i] = 'a'
			}
			break
		}
	}
	return string(b)
}

// Scenario 3: spec rollover / historical decoding.
func TestSpecRolloverDecodesHistoricalTickets(t *testing.T) {
	s1, err := tkspec.New(time.UTC, tkspec.Second, 2020, 0)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := tkspec.New(time.UTC, tkspec.Millisecond, 2020, 50)
	if err != nil {
		t.Fatal(err)
	}

	secret := []byte("K")
	cfg1 := &Config{OriginSchema: emptySchema(t), DataSchema: emptySchema(t), Specs: []*tkspec.Spec{s1}, CharLimit: DefaultCharLimit}
	f1 := newFactory(t, cfg1, [][]byte{secret})
	m1, err := f1.MachineFor(nil)
	if err != nil {
		t.Fatal(err)
	}
	t1, err := m1.Issue(nil)
	if err != nil {
		t.Fatal(err)
	}

	cfg2 := &Config{OriginSchema: emptySchema(t), DataSchema: emptySchema(t), Specs: []*tkspec.Spec{s1, s2}, CharLimit: DefaultCharLimit}
	f2 := newFactory(t, cfg2, [][]byte{secret, secret})

	decoded, err := f2.Decode(t1.String())
	if err != nil {
		t.Fatal(err)
	}
	if !decoded.Equal(t1) {
		t.Fatal("expected the rolled-over factory to decode the historical ticket identically")
	}

	m2, err := f2.MachineFor(nil)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := m2.Issue(nil)
	if err != nil {
		t.Fatal(err)
	}
	if t2.SpecIndex != 1 {
		t.Fatalf("expected freshly issued ticket to use spec_index 1, got %d", t2.SpecIndex)
	}
}

// Scenario 4: secret payload / key rebinding.
func TestSecretPayloadFailsUnderWrongKey(t *testing.T) {
	fields := []schema.Field{{Index: 0, Kind: schema.I64, Secret: true}}
	dataSchema, err := schema.New(fields)
	if err != nil {
		t.Fatal(err)
	}
	spec, err := tkspec.New(time.UTC, tkspec.Second, 2020, 32)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &Config{OriginSchema: emptySchema(t), DataSchema: dataSchema, Specs: []*tkspec.Spec{spec}, CharLimit: DefaultCharLimit}

	fA := newFactory(t, cfg, [][]byte{[]byte("a")})
	fB := newFactory(t, cfg, [][]byte{[]byte("b")})

	mA, err := fA.MachineFor(nil)
	if err != nil {
		t.Fatal(err)
	}
	issued, err := mA.Issue([]schema.Value{int64(42)})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := fB.Decode(issued.String()); err == nil {
		t.Fatal("expected decode under a different key to fail")
	}
}

// Scenario 5 (scaled down): many origins yield pairwise-distinct bases.
func TestManyOriginsYieldDistinctBases(t *testing.T) {
	fields := []schema.Field{{Index: 0, Kind: schema.I64}}
	originSchema, err := schema.New(fields)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.OriginSchema = originSchema
	f := newFactory(t, cfg, nil)

	seen := make(map[string]bool)
	const n = 2000
	for i := 0; i < n; i++ {
		m, err := f.MachineFor([]schema.Value{int64(i)})
		if err != nil {
			t.Fatal(err)
		}
		id := m.basis.String()
		if seen[id] {
			t.Fatalf("duplicate basis id for origin %d", i)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct bases, got %d", n, len(seen))
	}
}

// Scenario 6: char limit.
func TestCharLimitTooLong(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.CharLimit = 5
	f := newFactory(t, cfg, nil)

	m, err := f.MachineFor(nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.Issue(nil)
	if err == nil {
		t.Fatal("expected issue to fail TooLong with a 5-char cap")
	}
	if te, ok := err.(*Error); !ok || te.Code != CodeTooLong {
		t.Fatalf("expected TooLong, got %v", err)
	}

	if _, err := f.Decode("aaaaaa"); err == nil {
		t.Fatal("expected decode of a 6-char input to fail TooLong")
	}
}

func TestPaddingInvariant(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	f := newFactory(t, cfg, nil)
	m, err := f.MachineFor(nil)
	if err != nil {
		t.Fatal(err)
	}
	issued, err := m.Issue(nil)
	if err != nil {
		t.Fatal(err)
	}
	if issued.BitLen()%5 != 0 {
		t.Fatalf("expected bit_len to be a multiple of 5, got bit_len=%d", issued.BitLen())
	}
}

func TestFormatIndependence(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	f := newFactory(t, cfg, nil)
	m, err := f.MachineFor(nil)
	if err != nil {
		t.Fatal(err)
	}
	issued, err := m.Issue(nil)
	if err != nil {
		t.Fatal(err)
	}

	decodedOriginal, err := f.Decode(issued.String())
	if err != nil {
		t.Fatal(err)
	}

	// Re-render the same bit image under a different format: the decoded
	// bit_image must be identical even though the string differs.
	altFormat := Format{UpperCase: true, GroupLength: 4, SeparatorChar: '.', PadGroups: false}
	altString, err := altFormat.Encode(decodedOriginal.bitImage, decodedOriginal.bitLen, cfg.CharLimit)
	if err != nil {
		t.Fatal(err)
	}
	if altString == issued.String() {
		t.Fatal("expected a different format to render a different string")
	}

	f.SetFormat(altFormat)
	decodedAlt, err := f.Decode(altString)
	if err != nil {
		t.Fatal(err)
	}
	if !decodedAlt.Equal(issued) {
		t.Fatal("expected re-rendering under a different format to decode to the same ticket")
	}
}
