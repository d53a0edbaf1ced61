package schema

import (
	"fmt"

	"github.com/ticketframe/ticket/bitio"
)

// Value holds one field's decoded or to-be-encoded value. Concrete dynamic
// types are bool, int8, int16, int32, int64, uint16, float32, float64,
// string (both String and Enum kinds — an enum value is its symbol, not
// its ordinal) and []Value (Array kind).
type Value = any

// MalformedError reports a defect discovered while reading an encoded
// field list (spec.md §4.2's Malformed error condition): an inconsistent
// count, an out-of-range enum ordinal, or a truncated stream.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("schema: malformed: %s", e.Reason)
}

// WriteOpen encodes the open (non-secret) subset of values and returns the
// number of bits written.
func (fs *FieldSchema) WriteOpen(w *bitio.Writer, values []Value) (int, error) {
	return writeFields(w, fs.open, values)
}

// WriteSecret encodes the secret subset of values and returns the number
// of bits written. Callers are responsible for routing the result into
// the encrypted block (tkspec handles the XOR pad, not this package).
func (fs *FieldSchema) WriteSecret(w *bitio.Writer, values []Value) (int, error) {
	return writeFields(w, fs.secret, values)
}

// ReadOpen decodes the open subset from r into values, leaving indices at
// or beyond the stream-declared count unchanged.
func (fs *FieldSchema) ReadOpen(r *bitio.Reader, values []Value) error {
	return readFields(r, fs.open, values)
}

// ReadSecret decodes the secret subset from r into values.
func (fs *FieldSchema) ReadSecret(r *bitio.Reader, values []Value) error {
	return readFields(r, fs.secret, values)
}

// writeFields implements spec.md §4.2's Write(writer, secret, values):
// emit positive_int(len(fields)), then each field's value in declared
// order using its kind's primitive encoder.
func writeFields(w *bitio.Writer, fields []Field, values []Value) (int, error) {
	start := w.Len()
	w.WritePositiveInt(uint32(len(fields)))
	for _, f := range fields {
		if f.Index >= len(values) {
			return w.Len() - start, fmt.Errorf("schema: value slice too short for field %d", f.Index)
		}
		if err := writeValue(w, f, values[f.Index]); err != nil {
			return w.Len() - start, err
		}
	}
	return w.Len() - start, nil
}

// readFields implements spec.md §4.2's Read(reader, secret, values):
// read count, reject count > len(fields), decode that many fields in
// order, and leave the remainder at their prior (default) values.
func readFields(r *bitio.Reader, fields []Field, values []Value) error {
	count, err := r.ReadPositiveInt()
	if err != nil {
		return err
	}
	if count == 0 && len(fields) == 0 {
		return nil
	}
	if int(count) > len(fields) {
		return &MalformedError{Reason: fmt.Sprintf("field count %d exceeds schema length %d", count, len(fields))}
	}
	for i := 0; i < int(count); i++ {
		f := fields[i]
		v, err := readValue(r, f)
		if err != nil {
			return err
		}
		if f.Index >= len(values) {
			return &MalformedError{Reason: fmt.Sprintf("value slice too short for field %d", f.Index)}
		}
		values[f.Index] = v
	}
	return nil
}

func writeValue(w *bitio.Writer, f Field, v Value) error {
	switch f.Kind {
	case Bool:
		b, _ := v.(bool)
		w.WriteBoolean(b)
	case I8:
		n, _ := v.(int8)
		w.WriteInt(int32(n))
	case I16:
		n, _ := v.(int16)
		w.WriteInt(int32(n))
	case I32:
		n, _ := v.(int32)
		w.WriteInt(n)
	case I64:
		n, _ := v.(int64)
		return w.WriteLong(n)
	case U16:
		n, _ := v.(uint16)
		w.WritePositiveInt(uint32(n))
	case F32:
		n, _ := v.(float32)
		w.WriteFloat(n)
	case F64:
		n, _ := v.(float64)
		w.WriteDouble(n)
	case String:
		s, _ := v.(string)
		w.WriteString(s)
	case Enum:
		ord, err := enumOrdinal(f, v)
		if err != nil {
			return err
		}
		w.WriteEnumOrdinal(ord)
	case Array:
		elems, _ := v.([]Value)
		w.WritePositiveInt(uint32(len(elems)))
		for _, e := range elems {
			elemField := Field{Index: f.Index, Kind: f.ElemKind, Enum: f.Enum}
			if err := writeValue(w, elemField, e); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("schema: unsupported kind %s", f.Kind)
	}
	return nil
}

func readValue(r *bitio.Reader, f Field) (Value, error) {
	switch f.Kind {
	case Bool:
		return r.ReadBoolean()
	case I8:
		n, err := r.ReadInt()
		return int8(n), err
	case I16:
		n, err := r.ReadInt()
		return int16(n), err
	case I32:
		return r.ReadInt()
	case I64:
		return r.ReadLong()
	case U16:
		n, err := r.ReadPositiveInt()
		return uint16(n), err
	case F32:
		return r.ReadFloat()
	case F64:
		return r.ReadDouble()
	case String:
		return r.ReadString()
	case Enum:
		ord, err := r.ReadEnumOrdinal()
		if err != nil {
			return nil, err
		}
		if ord < 0 || ord >= len(f.Enum) {
			return nil, &MalformedError{Reason: fmt.Sprintf("field %d: enum ordinal %d out of range", f.Index, ord)}
		}
		return f.Enum[ord], nil
	case Array:
		n, err := r.ReadPositiveInt()
		if err != nil {
			return nil, err
		}
		elemField := Field{Index: f.Index, Kind: f.ElemKind, Enum: f.Enum}
		out := make([]Value, n)
		for i := range out {
			v, err := readValue(r, elemField)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("schema: unsupported kind %s", f.Kind)
	}
}

func enumOrdinal(f Field, v Value) (int, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("schema: field %d: enum value must be a string symbol", f.Index)
	}
	for i, sym := range f.Enum {
		if sym == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("schema: field %d: value is not a member of its enum domain", f.Index)
}

// Record is a thin, read-only projection over a values slice: it names
// fields by declared index without copying the backing values (spec.md
// §4.2 "Adapt/Unadapt").
type Record struct {
	values []Value
}

// Adapt produces the caller-visible record view of values. The returned
// Record aliases values; mutating the slice afterward is visible through it.
func (fs *FieldSchema) Adapt(values []Value) Record {
	return Record{values: values}
}

// Get returns the value at a declared field index, or nil if out of range.
func (r Record) Get(index int) Value {
	if index < 0 || index >= len(r.values) {
		return nil
	}
	return r.values[index]
}

// Unadapt extracts values in declared-index order. A zero-value (null)
// Record yields the schema's defaults.
func (fs *FieldSchema) Unadapt(r Record) []Value {
	if r.values == nil {
		return fs.Defaults()
	}
	out := make([]Value, len(fs.fields))
	copy(out, r.values)
	for i := len(r.values); i < len(out); i++ {
		out[i] = Default(fs.fields[i])
	}
	return out
}
