package store

import (
	"sync"
	"time"

	"github.com/dicekv/dicekv/server/internal/value"
)

// Record is a stored value together with its retention weight. A new weight
// is drawn on every write of the id, updates included.
type Record struct {
	Value           value.Value
	RetentionWeight float64
	CreatedAt       time.Time // first write of this id
	UpdatedAt       time.Time // last write of this id
}

// Entry pairs a record with its id. List returns entries by value.
type Entry struct {
	ID uint64
	Record
}

// Sweep describes the outcome of one EvictSweep call.
type Sweep struct {
	// Selected is false when the store was empty and nothing was examined.
	Selected  bool
	Candidate uint64
	Weight    float64
	Roll      float64
	Evicted   bool
}

// Stats are cumulative counters plus the current record count.
type Stats struct {
	Records int
	Created uint64
	Updated uint64
	Deleted uint64
	Evicted uint64
	Sweeps  uint64
	Misses  uint64 // reads, updates and deletes of absent ids
}

// Store is a thread-safe in-memory record store keyed by store-assigned ids.
//
// Records live in a dense slice so a sweep can pick a uniformly random
// candidate in constant time; index maps an id to its slot.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	index   map[uint64]int
	rnd     RandomSource
	stats   Stats
	now     func() time.Time // injectable for deterministic tests
}

// New creates an empty Store. A nil src draws from math/rand/v2.
func New(src RandomSource) *Store {
	if src == nil {
		src = runtimeSource{}
	}
	return &Store{
		index: make(map[uint64]int),
		rnd:   src,
		now:   time.Now,
	}
}

// Create stores v under a fresh random id with a fresh retention weight and
// returns the id.
func (s *Store) Create(v value.Value) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.rnd.Uint64()
	// A live id is never handed out twice.
	for {
		if _, taken := s.index[id]; !taken {
			break
		}
		id = s.rnd.Uint64()
	}

	now := s.now()
	s.index[id] = len(s.entries)
	s.entries = append(s.entries, Entry{
		ID: id,
		Record: Record{
			Value:           v,
			RetentionWeight: s.rnd.Float64(),
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	})
	s.stats.Created++
	return id
}

// Read returns the record stored under id and whether it exists.
func (s *Store) Read(id uint64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		s.stats.Misses++
		return Record{}, false
	}
	return s.entries[i].Record, true
}

// List returns a point-in-time copy of every live record. Order is
// unspecified.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Update replaces the record under id with v and a freshly drawn retention
// weight. It returns a *NotFoundError when id has no live record and never
// creates one.
func (s *Store) Update(id uint64, v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		s.stats.Misses++
		return &NotFoundError{Op: "update", ID: id}
	}

	e := &s.entries[i]
	e.Record = Record{
		Value:           v,
		RetentionWeight: s.rnd.Float64(),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       s.now(),
	}
	s.stats.Updated++
	return nil
}

// Delete removes the record under id. It returns a *NotFoundError when id
// has no live record.
func (s *Store) Delete(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		s.stats.Misses++
		return &NotFoundError{Op: "delete", ID: id}
	}
	s.remove(id)
	s.stats.Deleted++
	return nil
}

// EvictSweep examines at most one record. It picks a live id uniformly at
// random, draws a roll from [0,1) and removes the record when the roll is
// strictly greater than its retention weight. On an empty store it returns
// immediately without drawing anything.
func (s *Store) EvictSweep() Sweep {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Sweeps++
	if len(s.entries) == 0 {
		return Sweep{}
	}

	e := s.entries[s.rnd.IntN(len(s.entries))]
	res := Sweep{
		Selected:  true,
		Candidate: e.ID,
		Weight:    e.RetentionWeight,
		Roll:      s.rnd.Float64(),
	}
	if res.Roll > res.Weight {
		s.remove(e.ID)
		s.stats.Evicted++
		res.Evicted = true
	}
	return res
}

// Count returns the number of live records.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns a copy of the store counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Records = len(s.entries)
	return st
}

// remove deletes id by moving the last entry into its slot.
// Callers must hold s.mu and have checked that id is live.
func (s *Store) remove(id uint64) {
	i := s.index[id]
	last := len(s.entries) - 1
	if i != last {
		s.entries[i] = s.entries[last]
		s.index[s.entries[i].ID] = i
	}
	s.entries[last] = Entry{}
	s.entries = s.entries[:last]
	delete(s.index, id)
}
