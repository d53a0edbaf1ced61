package schema

import "testing"

func sampleFields() []Field {
	return []Field{
		{Index: 0, Kind: Bool},
		{Index: 1, Kind: I32},
		{Index: 2, Kind: String, Secret: true},
		{Index: 3, Kind: Enum, Enum: []string{"gold", "silver", "bronze"}},
		{Index: 4, Kind: Array, ElemKind: I16},
	}
}

func TestNewOrdersAndPartitions(t *testing.T) {
	fs, err := New(sampleFields())
	if err != nil {
		t.Fatal(err)
	}
	if len(fs.Fields()) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(fs.Fields()))
	}
	if len(fs.OpenFields()) != 4 || len(fs.SecretFields()) != 1 {
		t.Fatalf("expected 4 open / 1 secret, got %d/%d", len(fs.OpenFields()), len(fs.SecretFields()))
	}
	if fs.SecretFields()[0].Index != 2 {
		t.Fatalf("expected secret field at index 2, got %d", fs.SecretFields()[0].Index)
	}
}

func TestNewRejectsDuplicateIndex(t *testing.T) {
	_, err := New([]Field{{Index: 0, Kind: Bool}, {Index: 0, Kind: I32}})
	if err == nil {
		t.Fatal("expected error for duplicate index")
	}
}

func TestNewRejectsMissingIndex(t *testing.T) {
	_, err := New([]Field{{Index: 0, Kind: Bool}, {Index: 2, Kind: I32}})
	if err == nil {
		t.Fatal("expected error for non-dense indices")
	}
}

func TestNewRejectsNegativeIndex(t *testing.T) {
	_, err := New([]Field{{Index: -1, Kind: Bool}})
	if err == nil {
		t.Fatal("expected error for negative index")
	}
}

func TestNewRejectsEmptyEnumDomain(t *testing.T) {
	_, err := New([]Field{{Index: 0, Kind: Enum}})
	if err == nil {
		t.Fatal("expected error for empty enum domain")
	}
}

func TestNewRejectsArrayOfArray(t *testing.T) {
	_, err := New([]Field{{Index: 0, Kind: Array, ElemKind: Array}})
	if err == nil {
		t.Fatal("expected error for array-of-array element kind")
	}
}

func TestDefaultsAreKindSpecificZeroValues(t *testing.T) {
	fs, err := New(sampleFields())
	if err != nil {
		t.Fatal(err)
	}
	defaults := fs.Defaults()
	if defaults[0] != false {
		t.Fatalf("bool default: got %v", defaults[0])
	}
	if defaults[1] != int32(0) {
		t.Fatalf("i32 default: got %v", defaults[1])
	}
	if defaults[2] != "" {
		t.Fatalf("string default: got %v", defaults[2])
	}
	if defaults[3] != "gold" {
		t.Fatalf("enum default: got %v", defaults[3])
	}
	if arr, ok := defaults[4].([]Value); !ok || len(arr) != 0 {
		t.Fatalf("array default: got %v", defaults[4])
	}
}

func TestUnadaptOnNullRecordYieldsDefaults(t *testing.T) {
	fs, err := New(sampleFields())
	if err != nil {
		t.Fatal(err)
	}
	got := fs.Unadapt(Record{})
	want := fs.Defaults()
	for i := range want {
		if i == 4 {
			// Array default: []Value is not comparable with !=.
			if len(got[i].([]Value)) != 0 {
				t.Fatalf("index %d: expected empty array default, got %v", i, got[i])
			}
			continue
		}
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
