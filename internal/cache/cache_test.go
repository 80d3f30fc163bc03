package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEntry is a minimal Entry with an explicit priority for replacement.
type testEntry struct {
	key  uint64
	prio int
}

func (e testEntry) Key() uint64 { return e.key }

func (e testEntry) Better(other testEntry) bool { return e.prio > other.prio }

func (e testEntry) Bytes() int { return 16 }

func newTestTable(t *testing.T, budget int) *Table[testEntry] {
	t.Helper()
	tbl, err := New[testEntry](budget, 16)
	require.NoError(t, err)
	return tbl
}

func TestNewValidation(t *testing.T) {
	_, err := New[testEntry](1024, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New[testEntry](16, 16) // capacity 1, cannot hold two primes
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New[testEntry](maxBudgetBytes+1, 16)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPrimeSizing(t *testing.T) {
	for _, budget := range []int{1 << 10, 1 << 16, 1 << 20, 12345 * 16} {
		tbl := newTestTable(t, budget)
		capacity := budget / 16

		s1, s2 := tbl.TableSizes()
		assert.True(t, isPrime(s1), "size1 %d not prime", s1)
		assert.True(t, isPrime(s2), "size2 %d not prime", s2)
		assert.NotEqual(t, s1, s2)
		assert.LessOrEqual(t, s1+s2, capacity)
	}
}

func TestInsertLookup(t *testing.T) {
	tbl := newTestTable(t, 1<<16)

	e := testEntry{key: 0xDEADBEEF, prio: 3}
	require.True(t, tbl.Insert(e))

	got, ok := tbl.Lookup(e.key)
	require.True(t, ok)
	assert.Equal(t, e, got)
	assert.Equal(t, 1, tbl.Load())

	_, ok = tbl.Lookup(0xCAFE)
	assert.False(t, ok)
}

func TestSameKeyReplacement(t *testing.T) {
	tbl := newTestTable(t, 1<<16)

	require.True(t, tbl.Insert(testEntry{key: 42, prio: 5}))

	// A weaker entry with the same key is rejected.
	assert.False(t, tbl.Insert(testEntry{key: 42, prio: 2}))
	got, _ := tbl.Lookup(42)
	assert.Equal(t, 5, got.prio)

	// A stronger one replaces.
	assert.True(t, tbl.Insert(testEntry{key: 42, prio: 9}))
	got, _ = tbl.Lookup(42)
	assert.Equal(t, 9, got.prio)
	assert.Equal(t, 1, tbl.Load())
}

// displacementKeys searches for keys k1, k2 sharing a T1 slot with
// distinct T2 slots, plus a filler key that shares the same T1 slot and
// maps to k2's T2 slot. The triple forces the single-step cuckoo relocation
// when the entry under k2 beats the one under k1.
func displacementKeys(t *testing.T, tbl *Table[testEntry]) (k1, k2, filler uint64) {
	t.Helper()
	s1, s2 := tbl.TableSizes()

	k1 = 1
	i11, i12 := tbl.indices(k1)

	for k2 = k1 + uint64(s1); ; k2 += uint64(s1) {
		if _, i22 := tbl.indices(k2); i22 != i12 {
			break
		}
	}
	_, i22 := tbl.indices(k2)

	// A filler sharing k1's T1 slot and k2's T2 slot exists within
	// s1*s2 by the Chinese remainder theorem, the table sizes being
	// distinct primes.
	limit := uint64(s1) * uint64(s2) * 2
	for filler = 2; filler < limit; filler++ {
		f1, f2 := tbl.indices(filler)
		if f1 == i11 && f2 == i22 && filler != k1 && filler != k2 {
			return k1, k2, filler
		}
	}
	t.Fatal("no filler key found")
	return 0, 0, 0
}

func TestCuckooDisplacement(t *testing.T) {
	tbl := newTestTable(t, 1<<14)
	k1, k2, kf := displacementKeys(t, tbl)

	weak := testEntry{key: k1, prio: 1}
	strong := testEntry{key: k2, prio: 7}
	filler := testEntry{key: kf, prio: 3}

	require.True(t, tbl.Insert(weak))   // takes the shared T1 slot
	require.True(t, tbl.Insert(filler)) // T1 slot taken, lands in k2's T2 slot

	// The strong entry finds both of its slots occupied by different
	// keys and must displace the weaker incumbent into its free T2 slot.
	require.True(t, tbl.Insert(strong))

	got, ok := tbl.Lookup(k1)
	require.True(t, ok, "displaced entry lost")
	assert.Equal(t, weak, got)

	got, ok = tbl.Lookup(k2)
	require.True(t, ok, "inserted entry lost")
	assert.Equal(t, strong, got)

	got, ok = tbl.Lookup(kf)
	require.True(t, ok, "filler lost")
	assert.Equal(t, filler, got)

	assert.Equal(t, 3, tbl.Load())
}

func TestRemove(t *testing.T) {
	tbl := newTestTable(t, 1<<16)

	tbl.Insert(testEntry{key: 1, prio: 1})
	tbl.Insert(testEntry{key: 2, prio: 1})

	assert.True(t, tbl.Remove(1))
	assert.False(t, tbl.Remove(1))
	_, ok := tbl.Lookup(1)
	assert.False(t, ok)
	assert.Equal(t, 1, tbl.Load())

	n := tbl.RemoveFunc(func(e testEntry) bool { return e.key == 2 })
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, tbl.Load())
}

func TestClear(t *testing.T) {
	tbl := newTestTable(t, 1<<16)
	s1, s2 := tbl.TableSizes()

	for i := uint64(0); i < 100; i++ {
		tbl.Insert(testEntry{key: i*2 + 1, prio: 1})
	}
	require.Greater(t, tbl.Load(), 0)

	tbl.Clear()
	assert.Equal(t, 0, tbl.Load())

	n1, n2 := tbl.TableSizes()
	assert.Equal(t, s1, n1)
	assert.Equal(t, s2, n2)

	_, ok := tbl.Lookup(1)
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	tbl := newTestTable(t, 1<<16)
	tbl.Insert(testEntry{key: 9, prio: 1})

	ok := tbl.Update(9, func(e *testEntry) { e.prio = 8 })
	require.True(t, ok)

	got, _ := tbl.Lookup(9)
	assert.Equal(t, 8, got.prio)

	assert.False(t, tbl.Update(1234, func(e *testEntry) {}))
}

func TestMemoryFootprint(t *testing.T) {
	tbl := newTestTable(t, 1<<14)

	empty := tbl.MemoryFootprint()
	assert.Equal(t, 0, empty%8)
	assert.Equal(t, tbl.Capacity()*ptrSize, empty)

	tbl.Insert(testEntry{key: 3, prio: 1})
	full := tbl.MemoryFootprint()
	assert.Greater(t, full, empty)
	assert.Equal(t, 0, full%8)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	tbl := newTestTable(t, 1<<18)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(2)
		go func(base uint64) {
			defer wg.Done()
			for i := uint64(0); i < 1000; i++ {
				tbl.Insert(testEntry{key: base*100000 + i, prio: int(i % 7)})
			}
		}(uint64(g))
		go func(base uint64) {
			defer wg.Done()
			for i := uint64(0); i < 1000; i++ {
				tbl.Lookup(base*100000 + i)
			}
		}(uint64(g))
	}
	wg.Wait()

	// Load never exceeds capacity and stays non-negative.
	assert.GreaterOrEqual(t, tbl.Load(), 0)
	assert.LessOrEqual(t, tbl.Load(), tbl.Capacity())
}

func TestInsertVisibleAfterReturn(t *testing.T) {
	tbl := newTestTable(t, 1<<16)

	// With no concurrent writers, a successful insert is immediately
	// observable.
	for i := uint64(1); i < 200; i++ {
		e := testEntry{key: i * 0x9E3779B97F4A7C15, prio: 1}
		if tbl.Insert(e) {
			got, ok := tbl.Lookup(e.key)
			require.True(t, ok)
			assert.Equal(t, e, got)
		}
	}
}
