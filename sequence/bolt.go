package sequence

import (
	"encoding/binary"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var bucketSequences = []byte("sequences_by_basis")

// BoltProvider persists each basis's (last_ts, counter) pair in a single
// bbolt bucket keyed by the basis's canonical textual id, the same
// "open tx, get-or-create bucket, put little-endian record" shape
// node/store/db.go uses for its block index. It exists for callers who
// want sequence counters to survive a process restart; MemoryProvider
// remains the default.
type BoltProvider struct {
	db *bolt.DB
	mu sync.Mutex
}

// OpenBoltProvider opens (creating if absent) a bbolt database at path and
// ensures its sequence bucket exists.
func OpenBoltProvider(path string) (*BoltProvider, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("sequence: open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSequences)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sequence: create bucket: %w", err)
	}
	return &BoltProvider{db: db}, nil
}

// Close releases the underlying bbolt database handle.
func (p *BoltProvider) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// GetSequence returns a Sequence backed by the bbolt record for basisID.
// Unlike MemoryProvider, every Next/IsUnsequenced call round-trips through
// the database — there is no long-lived in-memory cache — since the whole
// point of this provider is surviving process restarts.
func (p *BoltProvider) GetSequence(basisID string) (Sequence, error) {
	return &boltSequence{db: p.db, key: []byte(basisID), mu: &p.mu}, nil
}

type boltSequence struct {
	db  *bolt.DB
	key []byte
	mu  *sync.Mutex
}

// record is the 17-byte persisted layout: seeded(1) | last_ts i64le(8) |
// counter i64le(8).
type record struct {
	seeded  bool
	lastTS  int64
	counter int64
}

func decodeRecord(b []byte) (record, error) {
	if len(b) != 17 {
		return record{}, fmt.Errorf("sequence: bad record length %d", len(b))
	}
	return record{
		seeded:  b[0] != 0,
		lastTS:  int64(binary.LittleEndian.Uint64(b[1:9])),
		counter: int64(binary.LittleEndian.Uint64(b[9:17])),
	}, nil
}

func encodeRecord(r record) []byte {
	out := make([]byte, 17)
	if r.seeded {
		out[0] = 1
	}
	binary.LittleEndian.PutUint64(out[1:9], uint64(r.lastTS))
	binary.LittleEndian.PutUint64(out[9:17], uint64(r.counter))
	return out
}

func (s *boltSequence) load(tx *bolt.Tx) (record, error) {
	v := tx.Bucket(bucketSequences).Get(s.key)
	if v == nil {
		return record{}, nil
	}
	return decodeRecord(v)
}

func (s *boltSequence) Next(ts int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		r, err := s.load(tx)
		if err != nil {
			return err
		}
		if !r.seeded || ts > r.lastTS {
			r.seeded = true
			r.lastTS = ts
			r.counter = 0
		}
		if r.counter == int64(^uint64(0)>>1) {
			return ErrExhausted
		}
		next = r.counter
		r.counter++
		return tx.Bucket(bucketSequences).Put(s.key, encodeRecord(r))
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *boltSequence) IsUnsequenced(ts int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var unsequenced bool
	_ = s.db.View(func(tx *bolt.Tx) error {
		r, err := s.load(tx)
		if err != nil {
			unsequenced = true
			return nil
		}
		unsequenced = !r.seeded || r.counter == 0 || ts > r.lastTS
		return nil
	})
	return unsequenced
}
