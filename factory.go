package ticket

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ticketframe/ticket/base32fmt"
	"github.com/ticketframe/ticket/bitio"
	"github.com/ticketframe/ticket/schema"
	"github.com/ticketframe/ticket/sequence"
	"github.com/ticketframe/ticket/tkspec"
)

// Factory (C6) owns a config's specs and digests, the current format, a
// machines cache, and the sequence provider machines draw from. It is
// safe for concurrent use: format is a single atomic pointer, the
// machines map is guarded by mu, and digests[i] are never mutated after
// construction (tkspec.Digests clones before every use).
type Factory struct {
	config  *Config
	specs   []*tkspec.Spec
	digests *tkspec.Digests
	primary int

	sequences sequence.Provider
	format    atomic.Pointer[base32fmt.Format]

	mu       sync.Mutex
	machines map[string]*Machine

	logger *slog.Logger
}

// Option configures optional Factory behavior at construction time.
type Option func(*Factory)

// WithSequenceProvider overrides the default in-process sequence.Provider
// with a caller-supplied one (e.g. sequence.BoltProvider for durability).
func WithSequenceProvider(p sequence.Provider) Option {
	return func(f *Factory) { f.sequences = p }
}

// WithLogger overrides the default slog.Logger used for machine-creation
// and format-replacement diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

// WithFormat sets the factory's initial string format, overriding
// DefaultFormat.
func WithFormat(format Format) Option {
	return func(f *Factory) { f.format.Store(&format) }
}

// NewFactory builds a Factory from cfg. secrets supplies one key per spec
// in cfg.Specs (shorter lists reuse the last key for later specs, per
// spec.md §4.3); a nil or empty secrets list means no spec is keyed.
func NewFactory(cfg *Config, secrets [][]byte, opts ...Option) (*Factory, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	f := &Factory{
		config:    cfg,
		specs:     cfg.Specs,
		primary:   len(cfg.Specs) - 1,
		digests:   tkspec.NewDigests(len(cfg.Specs), secrets),
		sequences: sequence.NewMemoryProvider(),
		machines:  make(map[string]*Machine),
		logger:    slog.Default(),
	}
	def := DefaultFormat
	f.format.Store(&def)
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// currentFormat performs the single atomic load spec.md §5 requires:
// readers always see a complete, never-torn Format value.
func (f *Factory) currentFormat() *base32fmt.Format {
	return f.format.Load()
}

// SetFormat atomically replaces the factory's live string format. Machines
// already issuing tickets concurrently see either the old or the new
// value, never a torn mix of the two.
func (f *Factory) SetFormat(format Format) {
	f.format.Store(&format)
	f.logger.Debug("ticket format replaced", "group_length", format.GroupLength, "upper_case", format.UpperCase)
}

// Primary returns the index of the spec new tickets are issued under.
func (f *Factory) Primary() int { return f.primary }

// MachineFor builds (or retrieves) the Machine for the basis derived from
// originValues, per spec.md §4.6's machine_for protocol. The returned
// Machine wraps the cached basis and sequence but is itself a fresh
// value — per §9's documented cache oddity, callers must not rely on
// Machine identity across calls.
func (f *Factory) MachineFor(originValues []schema.Value) (*Machine, error) {
	cfg := f.config

	openW := bitio.NewWriter()
	if _, err := cfg.OriginSchema.WriteOpen(openW, originValues); err != nil {
		return nil, newErrorf(CodeInvalidArgument, "open origin: %v", err)
	}
	secretW := bitio.NewWriter()
	if _, err := cfg.OriginSchema.WriteSecret(secretW, originValues); err != nil {
		return nil, newErrorf(CodeInvalidArgument, "secret origin: %v", err)
	}

	hasSecretOrigin := len(cfg.OriginSchema.SecretFields()) > 0
	basis := TicketBasis{
		SpecIndex:          f.primary,
		OpenOriginBits:     openW.Bytes(),
		OpenOriginBitLen:   openW.Len(),
		SecretOriginBits:   secretW.Bytes(),
		SecretOriginBitLen: secretW.Len(),
		HasSecretOrigin:    hasSecretOrigin,
		OriginValues:       append([]schema.Value(nil), originValues...),
	}
	id := basis.String()
	hasSecret := hasSecretOrigin || len(cfg.DataSchema.SecretFields()) > 0

	f.mu.Lock()
	defer f.mu.Unlock()

	for existingID, m := range f.machines {
		if existingID != id && m.IsDisposable() {
			delete(f.machines, existingID)
		}
	}

	m, ok := f.machines[id]
	if !ok {
		seq, err := f.sequences.GetSequence(id)
		if err != nil {
			return nil, newErrorf(CodeSequenceExhausted, "%v", err)
		}
		m = &Machine{
			factory:   f,
			spec:      f.specs[f.primary],
			specIndex: f.primary,
			basis:     basis,
			sequence:  seq,
			hasSecret: hasSecret,
		}
		f.machines[id] = m
		f.logger.Debug("ticket machine created", "basis", id, "spec_index", f.primary)
	}

	return &Machine{
		factory:   f,
		spec:      m.spec,
		specIndex: m.specIndex,
		basis:     m.basis,
		sequence:  m.sequence,
		hasSecret: m.hasSecret,
	}, nil
}
