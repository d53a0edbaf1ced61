package sequence

import "testing"

func TestMemoryProviderFreshCounterStartsAtZero(t *testing.T) {
	p := NewMemoryProvider()
	s, err := p.GetSequence("basis-a")
	if err != nil {
		t.Fatal(err)
	}
	n, err := s.Next(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected first sequence number 0, got %d", n)
	}
}

func TestMemoryProviderIncrementsWithinSameTimestamp(t *testing.T) {
	p := NewMemoryProvider()
	s, _ := p.GetSequence("basis-a")
	a, _ := s.Next(100)
	b, _ := s.Next(100)
	c, _ := s.Next(100)
	if a != 0 || b != 1 || c != 2 {
		t.Fatalf("expected 0,1,2, got %d,%d,%d", a, b, c)
	}
}

func TestMemoryProviderResetsOnNewerTimestamp(t *testing.T) {
	p := NewMemoryProvider()
	s, _ := p.GetSequence("basis-a")
	s.Next(100)
	s.Next(100)
	n, _ := s.Next(200)
	if n != 0 {
		t.Fatalf("expected reset to 0 on newer timestamp, got %d", n)
	}
}

func TestMemoryProviderToleratesOlderTimestamp(t *testing.T) {
	p := NewMemoryProvider()
	s, _ := p.GetSequence("basis-a")
	s.Next(200)
	n, err := s.Next(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected counter to continue from 1 on an older timestamp, got %d", n)
	}
}

func TestMemoryProviderIsUnsequenced(t *testing.T) {
	p := NewMemoryProvider()
	s, _ := p.GetSequence("basis-a")
	if !s.IsUnsequenced(100) {
		t.Fatal("expected fresh sequence to be unsequenced")
	}
	s.Next(100)
	if s.IsUnsequenced(100) {
		t.Fatal("expected a sequence that has issued a number at this timestamp to not be unsequenced")
	}
	s.Next(100)
	if s.IsUnsequenced(100) {
		t.Fatal("expected sequenced counter at the same timestamp to not be unsequenced")
	}
	if !s.IsUnsequenced(999) {
		t.Fatal("expected a strictly newer timestamp to report unsequenced")
	}
}

func TestMemoryProviderIsolatesDistinctBases(t *testing.T) {
	p := NewMemoryProvider()
	a, _ := p.GetSequence("basis-a")
	b, _ := p.GetSequence("basis-b")
	a.Next(100)
	a.Next(100)
	n, _ := b.Next(100)
	if n != 0 {
		t.Fatalf("expected basis-b to have an independent counter, got %d", n)
	}
}

func TestBoltProviderPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sequences.db"

	p1, err := OpenBoltProvider(path)
	if err != nil {
		t.Fatal(err)
	}
	s1, err := p1.GetSequence("basis-a")
	if err != nil {
		t.Fatal(err)
	}
	s1.Next(100)
	s1.Next(100)
	if err := p1.Close(); err != nil {
		t.Fatal(err)
	}

	p2, err := OpenBoltProvider(path)
	if err != nil {
		t.Fatal(err)
	}
	defer p2.Close()
	s2, err := p2.GetSequence("basis-a")
	if err != nil {
		t.Fatal(err)
	}
	n, err := s2.Next(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected persisted counter to continue at 2, got %d", n)
	}
}
