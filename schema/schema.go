// Package schema replaces reflection-driven record layout with an explicit,
// caller-constructed field list (spec.md §9's design note: "replace
// reflection with an explicit FieldSchema value"). It plays the role
// consensus/tx_marshal.go and consensus/tx_parse.go play for a Tx — an
// ordered, field-by-field encode/decode — but generalized over a
// caller-supplied Kind list instead of one fixed struct shape.
package schema

import (
	"fmt"
)

// Kind identifies a field's primitive wire representation.
type Kind int

const (
	Bool Kind = iota
	I8
	I16
	I32
	I64
	U16 // char-equivalent: an unsigned 16-bit code point
	F32
	F64
	String
	Enum
	Array
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case U16:
		return "u16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case String:
		return "string"
	case Enum:
		return "enum"
	case Array:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// isPrimitive reports whether k can stand as an array element kind. Arrays
// of arrays are rejected at schema construction (spec.md §4.2: "reject ...
// non-primitive array element kinds"); an array of enum is allowed.
func (k Kind) isPrimitive() bool {
	switch k {
	case Bool, I8, I16, I32, I64, U16, F32, F64, String, Enum:
		return true
	default:
		return false
	}
}

// Field describes one record field (spec.md §3: "FieldSchema (C2)").
type Field struct {
	// Index is the field's declared position; indices across a FieldSchema
	// must be dense and start at 0.
	Index int
	Kind   Kind
	Secret bool
	// Enum holds the symbol domain for Kind == Enum, or the element's
	// symbol domain when Kind == Array and ElemKind == Enum. Must be
	// non-empty whenever an enum domain is required.
	Enum []string
	// ElemKind is the element kind for Kind == Array; ignored otherwise.
	ElemKind Kind
}

// InvalidSchemaError reports a defect discovered at FieldSchema
// construction time (spec.md §4.2's InvalidSchema error condition).
type InvalidSchemaError struct {
	Reason string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("schema: invalid schema: %s", e.Reason)
}

// FieldSchema is an ordered, validated, index-addressable field list,
// partitioned once at construction into its open and secret halves.
type FieldSchema struct {
	fields []Field // sorted by Index, Index == position
	open   []Field
	secret []Field
}

// New validates fields and returns the FieldSchema derived from them
// (spec.md §4.2 "Derivation"). fields need not already be sorted by index.
func New(fields []Field) (*FieldSchema, error) {
	if len(fields) == 0 {
		return &FieldSchema{}, nil
	}

	byIndex := make(map[int]Field, len(fields))
	maxIndex := -1
	for _, f := range fields {
		if f.Index < 0 {
			return nil, &InvalidSchemaError{Reason: fmt.Sprintf("negative field index %d", f.Index)}
		}
		if _, dup := byIndex[f.Index]; dup {
			return nil, &InvalidSchemaError{Reason: fmt.Sprintf("duplicate field index %d", f.Index)}
		}
		if err := validateKind(f); err != nil {
			return nil, err
		}
		byIndex[f.Index] = f
		if f.Index > maxIndex {
			maxIndex = f.Index
		}
	}

	ordered := make([]Field, maxIndex+1)
	for i := 0; i <= maxIndex; i++ {
		f, ok := byIndex[i]
		if !ok {
			return nil, &InvalidSchemaError{Reason: fmt.Sprintf("missing field index %d", i)}
		}
		ordered[i] = f
	}

	fs := &FieldSchema{fields: ordered}
	for _, f := range ordered {
		if f.Secret {
			fs.secret = append(fs.secret, f)
		} else {
			fs.open = append(fs.open, f)
		}
	}
	return fs, nil
}

func validateKind(f Field) error {
	switch f.Kind {
	case Bool, I8, I16, I32, I64, U16, F32, F64, String:
		return nil
	case Enum:
		if len(f.Enum) == 0 {
			return &InvalidSchemaError{Reason: fmt.Sprintf("field %d: enum kind needs a non-empty symbol domain", f.Index)}
		}
		return nil
	case Array:
		if !f.ElemKind.isPrimitive() {
			return &InvalidSchemaError{Reason: fmt.Sprintf("field %d: array element kind %s is not primitive", f.Index, f.ElemKind)}
		}
		if f.ElemKind == Enum && len(f.Enum) == 0 {
			return &InvalidSchemaError{Reason: fmt.Sprintf("field %d: array-of-enum needs a non-empty symbol domain", f.Index)}
		}
		return nil
	default:
		return &InvalidSchemaError{Reason: fmt.Sprintf("field %d: unsupported kind %s", f.Index, f.Kind)}
	}
}

// Fields returns the full, index-ordered field list.
func (fs *FieldSchema) Fields() []Field { return fs.fields }

// OpenFields returns the declared-order subset of fields that are not secret.
func (fs *FieldSchema) OpenFields() []Field { return fs.open }

// SecretFields returns the declared-order subset of fields tagged secret.
func (fs *FieldSchema) SecretFields() []Field { return fs.secret }

// Default returns the kind-specific zero value for a field (spec.md §4.2
// "Default values").
func Default(f Field) Value {
	switch f.Kind {
	case Bool:
		return false
	case I8:
		return int8(0)
	case I16:
		return int16(0)
	case I32:
		return int32(0)
	case I64:
		return int64(0)
	case U16:
		return uint16(0)
	case F32:
		return float32(0)
	case F64:
		return float64(0)
	case String:
		return ""
	case Enum:
		if len(f.Enum) == 0 {
			return ""
		}
		return f.Enum[0]
	case Array:
		return []Value{}
	default:
		return nil
	}
}

// Defaults returns one default value per field in the full, index-ordered
// field list.
func (fs *FieldSchema) Defaults() []Value {
	out := make([]Value, len(fs.fields))
	for i, f := range fs.fields {
		out[i] = Default(f)
	}
	return out
}
