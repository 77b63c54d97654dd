package store

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicekv/dicekv/server/internal/value"
)

// scripted replays fixed draws in order and panics when a queue runs dry,
// so a test fails loudly if the store draws more than expected.
type scripted struct {
	ids    []uint64
	floats []float64
	ints   []int
}

func (s *scripted) Uint64() uint64 {
	if len(s.ids) == 0 {
		panic("scripted: no ids left")
	}
	v := s.ids[0]
	s.ids = s.ids[1:]
	return v
}

func (s *scripted) Float64() float64 {
	if len(s.floats) == 0 {
		panic("scripted: no floats left")
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scripted) IntN(n int) int {
	if len(s.ints) == 0 {
		panic("scripted: no ints left")
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		panic("scripted: index out of range")
	}
	return v
}

// fixedRoll hands out sequential ids, a constant weight on writes and a
// constant roll on sweeps.
type fixedRoll struct {
	next   uint64
	weight float64
	roll   float64
	writes bool // next Float64 is a record weight
}

func (f *fixedRoll) Uint64() uint64 {
	f.next++
	f.writes = true
	return f.next
}

func (f *fixedRoll) Float64() float64 {
	if f.writes {
		f.writes = false
		return f.weight
	}
	return f.roll
}

func (f *fixedRoll) IntN(n int) int { return int(f.next) % n }

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func text(s string) value.Value { return value.FromText(s) }

func TestCreateAndRead(t *testing.T) {
	st := New(&scripted{ids: []uint64{7}, floats: []float64{0.25}})

	id := st.Create(text("42"))
	require.Equal(t, uint64(7), id)

	rec, ok := st.Read(id)
	require.True(t, ok)
	assert.Equal(t, "42", rec.Value.String())
	assert.Equal(t, 0.25, rec.RetentionWeight)
}

func TestCreate_RenderMatchesInput(t *testing.T) {
	st := New(NewSeeded(1))
	for _, in := range []string{"42", "3.5", "true", "hello"} {
		v := text(in)
		id := st.Create(v)
		rec, ok := st.Read(id)
		require.True(t, ok, in)
		assert.Equal(t, v.String(), rec.Value.String(), in)
		assert.GreaterOrEqual(t, rec.RetentionWeight, 0.0, in)
		assert.Less(t, rec.RetentionWeight, 1.0, in)
	}
}

func TestCreate_RedrawsLiveID(t *testing.T) {
	st := New(&scripted{ids: []uint64{5, 5, 9}, floats: []float64{0.1, 0.2}})

	assert.Equal(t, uint64(5), st.Create(text("a")))
	assert.Equal(t, uint64(9), st.Create(text("b")))
	assert.Equal(t, 2, st.Count())
}

func TestCreate_Timestamps(t *testing.T) {
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	st := New(NewSeeded(2))
	st.now = fixedClock(base)

	id := st.Create(text("x"))
	rec, _ := st.Read(id)
	assert.Equal(t, base, rec.CreatedAt)
	assert.Equal(t, base, rec.UpdatedAt)
}

func TestRead_Missing(t *testing.T) {
	st := New(NewSeeded(3))
	_, ok := st.Read(12345)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), st.Stats().Misses)
}

func TestUpdate_ReplacesRecord(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := New(&scripted{ids: []uint64{1}, floats: []float64{0.1, 0.9}})
	st.now = fixedClock(base)
	id := st.Create(text("old"))

	st.now = fixedClock(base.Add(time.Minute))
	require.NoError(t, st.Update(id, text("3.5")))

	rec, ok := st.Read(id)
	require.True(t, ok)
	assert.Equal(t, "3.500", rec.Value.String())
	assert.Equal(t, 0.9, rec.RetentionWeight, "weight is redrawn on update")
	assert.Equal(t, base, rec.CreatedAt)
	assert.Equal(t, base.Add(time.Minute), rec.UpdatedAt)
}

func TestUpdate_NotFound(t *testing.T) {
	st := New(&scripted{ids: []uint64{1}, floats: []float64{0.5}})
	st.Create(text("keep"))

	err := st.Update(99, text("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.EqualError(t, err, "cannot update, no data with id 99")

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, uint64(99), nf.ID)

	assert.Equal(t, 1, st.Count())
	_, ok := st.Read(99)
	assert.False(t, ok, "update must not create")
}

func TestDelete(t *testing.T) {
	st := New(NewSeeded(4))
	id := st.Create(text("x"))

	require.NoError(t, st.Delete(id))
	_, ok := st.Read(id)
	assert.False(t, ok)

	err := st.Delete(id)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.EqualError(t, err, "cannot delete, no data with id "+itoa(id))
}

func TestDelete_KeepsOthersReachable(t *testing.T) {
	st := New(NewSeeded(5))
	ids := make([]uint64, 5)
	for i := range ids {
		ids[i] = st.Create(text(itoa(uint64(i))))
	}

	require.NoError(t, st.Delete(ids[1]))
	require.NoError(t, st.Delete(ids[4]))

	for _, i := range []int{0, 2, 3} {
		rec, ok := st.Read(ids[i])
		require.True(t, ok)
		assert.Equal(t, itoa(uint64(i)), rec.Value.String())
	}
	assert.Len(t, st.List(), 3)
}

func TestList_IsSnapshot(t *testing.T) {
	st := New(NewSeeded(6))
	a := st.Create(text("a"))
	st.Create(text("b"))

	list := st.List()
	require.Len(t, list, 2)

	require.NoError(t, st.Delete(a))
	st.Create(text("c"))
	st.Create(text("d"))

	assert.Len(t, list, 2, "earlier listing is unaffected by later writes")
	assert.Len(t, st.List(), 3)
}

func TestEvictSweep_EmptyIsNoOp(t *testing.T) {
	// scripted with no draws panics if the sweep touches randomness.
	st := New(&scripted{})
	res := st.EvictSweep()

	assert.False(t, res.Selected)
	assert.False(t, res.Evicted)
	assert.Equal(t, 0, st.Count())
	assert.Equal(t, uint64(1), st.Stats().Sweeps)
}

func TestEvictSweep_RollAboveWeightEvicts(t *testing.T) {
	st := New(&scripted{
		ids:    []uint64{10, 20},
		floats: []float64{0.3, 0.8, 0.31},
		ints:   []int{0},
	})
	st.Create(text("low"))
	st.Create(text("high"))

	res := st.EvictSweep()
	assert.True(t, res.Selected)
	assert.Equal(t, uint64(10), res.Candidate)
	assert.True(t, res.Evicted)

	_, ok := st.Read(10)
	assert.False(t, ok)
	_, ok = st.Read(20)
	assert.True(t, ok)
}

func TestEvictSweep_RollEqualToWeightSurvives(t *testing.T) {
	st := New(&scripted{
		ids:    []uint64{10},
		floats: []float64{0.5, 0.5},
		ints:   []int{0},
	})
	st.Create(text("x"))

	res := st.EvictSweep()
	assert.True(t, res.Selected)
	assert.False(t, res.Evicted, "eviction requires a strictly greater roll")
	assert.Equal(t, 1, st.Count())
}

func TestEvictSweep_SelectsIndexFromSource(t *testing.T) {
	st := New(&scripted{
		ids:    []uint64{1, 2, 3},
		floats: []float64{0.1, 0.1, 0.1, 0.9},
		ints:   []int{2},
	})
	st.Create(text("a"))
	st.Create(text("b"))
	st.Create(text("c"))

	res := st.EvictSweep()
	assert.Equal(t, uint64(3), res.Candidate)
	assert.True(t, res.Evicted)
	assert.Equal(t, 2, st.Count())
}

func TestEvictSweep_ZeroWeightIsEvicted(t *testing.T) {
	st := New(&fixedRoll{weight: 0, roll: 0.000001})
	st.Create(text("doomed"))

	res := st.EvictSweep()
	assert.True(t, res.Evicted)
	assert.Equal(t, 0, st.Count())
}

func TestEvictSweep_MaxWeightNeverEvicted(t *testing.T) {
	st := New(&fixedRoll{weight: 1.0, roll: 0.999999999})
	id := st.Create(text("lucky"))

	for i := 0; i < 10000; i++ {
		require.False(t, st.EvictSweep().Evicted)
	}
	_, ok := st.Read(id)
	assert.True(t, ok)
	assert.Equal(t, uint64(10000), st.Stats().Sweeps)
	assert.Equal(t, uint64(0), st.Stats().Evicted)
}

func TestEvictSweep_ExaminesAtMostOneRecord(t *testing.T) {
	st := New(&fixedRoll{weight: 0, roll: 0.5})
	for i := 0; i < 10; i++ {
		st.Create(text("x"))
	}

	st.EvictSweep()
	assert.Equal(t, 9, st.Count())
}

func TestEvictSweep_ZeroWeightSeededEventuallyGone(t *testing.T) {
	src := &weightOverride{RandomSource: NewSeeded(42), weight: 0, override: true}
	st := New(src)
	id := st.Create(text("x"))
	src.override = false

	for i := 0; i < 100 && st.Count() > 0; i++ {
		st.EvictSweep()
	}
	_, ok := st.Read(id)
	assert.False(t, ok)
}

// weightOverride forces the next Float64 to weight while override is set.
type weightOverride struct {
	RandomSource
	weight   float64
	override bool
}

func (w *weightOverride) Float64() float64 {
	if w.override {
		return w.weight
	}
	return w.RandomSource.Float64()
}

func TestStats(t *testing.T) {
	st := New(&fixedRoll{weight: 0, roll: 0.5})
	a := st.Create(text("a"))
	b := st.Create(text("b"))
	st.Create(text("c"))

	require.NoError(t, st.Update(a, text("a2")))
	require.NoError(t, st.Delete(b))
	assert.Error(t, st.Delete(b))
	st.EvictSweep()

	s := st.Stats()
	assert.Equal(t, 1, s.Records)
	assert.Equal(t, uint64(3), s.Created)
	assert.Equal(t, uint64(1), s.Updated)
	assert.Equal(t, uint64(1), s.Deleted)
	assert.Equal(t, uint64(1), s.Evicted)
	assert.Equal(t, uint64(1), s.Sweeps)
	assert.Equal(t, uint64(1), s.Misses)
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(nil)

	const workers = 32
	const perWorker = 200

	var wg sync.WaitGroup
	idsCh := make(chan []uint64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]uint64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				id := st.Create(text("v"))
				ids = append(ids, id)
				st.Read(id)
				if i%3 == 0 {
					_ = st.Update(id, text("w"))
				}
			}
			idsCh <- ids
		}()
	}

	stop := make(chan struct{})
	var sweeper sync.WaitGroup
	sweeper.Add(1)
	go func() {
		defer sweeper.Done()
		for {
			select {
			case <-stop:
				return
			default:
				st.EvictSweep()
				st.List()
			}
		}
	}()

	wg.Wait()
	close(idsCh)

	seen := make(map[uint64]struct{}, workers*perWorker)
	var all []uint64
	for ids := range idsCh {
		for _, id := range ids {
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %d", id)
			seen[id] = struct{}{}
			all = append(all, id)
		}
	}

	// Delete half concurrently; some may already have been evicted.
	var deleters sync.WaitGroup
	for i := 0; i < len(all); i += 2 {
		deleters.Add(1)
		go func(id uint64) {
			defer deleters.Done()
			_ = st.Delete(id)
		}(all[i])
	}
	deleters.Wait()
	close(stop)
	sweeper.Wait()

	s := st.Stats()
	assert.Equal(t, uint64(workers*perWorker), s.Created)
	assert.Equal(t, int(s.Created-s.Deleted-s.Evicted), s.Records)
	assert.Equal(t, s.Records, len(st.List()))
}

func itoa(n uint64) string { return strconv.FormatUint(n, 10) }
