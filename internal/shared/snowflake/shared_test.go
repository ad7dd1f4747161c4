package snowflake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func contentionSize(t *testing.T) (workers, perWorker int) {
	if testing.Short() {
		return 8, 10_000
	}
	return 16, 100_000
}

// collectUnique runs workers goroutines that each draw perWorker ids from
// their own caller and fails on any duplicate or per-goroutine ordering
// violation.
func collectUnique(t *testing.T, workers, perWorker int, caller func() func() (int64, error)) {
	t.Helper()

	results := make([][]int64, workers)
	var group errgroup.Group
	for w := 0; w < workers; w++ {
		next := caller()
		group.Go(func() error {
			ids := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				id, err := next()
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			results[w] = ids
			return nil
		})
	}
	require.NoError(t, group.Wait())

	seen := make(map[int64]struct{}, workers*perWorker)
	for w, ids := range results {
		for i, id := range ids {
			if i > 0 && id <= ids[i-1] {
				t.Fatalf("worker %d: id %d not greater than previous %d", w, id, ids[i-1])
			}
			if _, dup := seen[id]; dup {
				t.Fatalf("duplicate id %d", id)
			}
			seen[id] = struct{}{}
		}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestParseMode_TableDriven(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		expect  Mode
		wantErr bool
	}{
		{name: "empty defaults to synced", input: "", expect: ModeSynced},
		{name: "local", input: "local", expect: ModeLocal},
		{name: "mixed case async", input: " Async ", expect: ModeAsync},
		{name: "synced", input: "synced", expect: ModeSynced},
		{name: "unknown", input: "threads", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mode, err := ParseMode(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, mode)
		})
	}
}

func TestNewGenerator_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		workerID uint16
		expect   any
		wantErr  error
	}{
		{name: "local", mode: ModeLocal, workerID: 1, expect: &Local{}},
		{name: "synced", mode: ModeSynced, workerID: 2, expect: &Synced{}},
		{name: "async", mode: ModeAsync, workerID: 3, expect: &Async{}},
		{name: "construction error propagates", mode: ModeSynced, workerID: 2048, wantErr: ErrWorkerIDOutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen, err := NewGenerator(tc.mode, 0, tc.workerID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.expect, gen)

			id, err := gen.NextID(context.Background())
			require.NoError(t, err)

			parts, err := gen.Decompose(id)
			require.NoError(t, err)
			assert.Equal(t, tc.workerID, parts.WorkerID)
			assert.Equal(t, tc.workerID, gen.WorkerID())
			assert.Equal(t, int64(0), gen.Epoch())
		})
	}

	_, err := NewGenerator(Mode("bogus"), 0, 1)
	assert.Error(t, err)
}

func TestLocal_CloneSharesState(t *testing.T) {
	clock := newFakeClock(testNow)
	gen, err := NewLocal(0, 4, WithClock(clock))
	require.NoError(t, err)
	clone := gen.Clone()

	id1 := gen.GenerateID()
	id2 := clone.GenerateID()
	id3 := gen.GenerateID()

	assert.Less(t, id1, id2)
	assert.Less(t, id2, id3)

	parts, err := clone.Decompose(id3)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), parts.Sequence)
}

func TestLocal_PanicDoesNotPoison(t *testing.T) {
	clock := newFakeClock(testNow)
	gen, err := NewLocal(0, 4, WithClock(clock))
	require.NoError(t, err)

	clock.setPanics(true)
	assert.Panics(t, func() { gen.GenerateID() })
	clock.setPanics(false)

	assert.Greater(t, gen.GenerateID(), int64(0))
}

func TestLocal_NeverReportsError(t *testing.T) {
	clock := newFakeClock(testNow)
	gen, err := NewLocal(0, 4, WithClock(clock))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, nopGuard{}.lock(ctx))
	assert.False(t, nopGuard{}.poisons())

	clock.setPanics(true)
	assert.Panics(t, func() { gen.GenerateID() })
	clock.setPanics(false)

	id, err := gen.NextID(ctx)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.False(t, gen.h.poisoned)
}

func TestSynced_ConstructionErrors(t *testing.T) {
	_, err := NewSynced(0, MaxWorkerID+1)
	assert.ErrorIs(t, err, ErrWorkerIDOutOfRange)

	_, err = NewSynced(time.Now().Add(time.Hour).UnixMilli(), 1)
	assert.ErrorIs(t, err, ErrEpochInFuture)
}

func TestSynced_UniqueUnderContention(t *testing.T) {
	workers, perWorker := contentionSize(t)
	gen, err := NewSynced(0, 11)
	require.NoError(t, err)

	collectUnique(t, workers, perWorker, func() func() (int64, error) {
		return gen.Clone().GenerateID
	})
}

func TestSynced_PoisonedAfterPanic(t *testing.T) {
	clock := newFakeClock(testNow)
	gen, err := NewSynced(0, 6, WithClock(clock))
	require.NoError(t, err)
	clone := gen.Clone()

	_, err = gen.GenerateID()
	require.NoError(t, err)

	clock.setPanics(true)
	assert.Panics(t, func() { _, _ = gen.GenerateID() })
	clock.setPanics(false)

	_, err = gen.GenerateID()
	assert.ErrorIs(t, err, ErrLockPoisoned)
	_, err = clone.GenerateID()
	assert.ErrorIs(t, err, ErrLockPoisoned)
}

func TestAsync_UniqueUnderContention(t *testing.T) {
	workers, perWorker := contentionSize(t)
	gen, err := NewAsync(0, 12)
	require.NoError(t, err)

	ctx := context.Background()
	collectUnique(t, workers, perWorker, func() func() (int64, error) {
		clone := gen.Clone()
		return func() (int64, error) { return clone.GenerateID(ctx) }
	})
}

func TestAsync_ContextEndsWhileWaiting(t *testing.T) {
	gen, err := NewAsync(0, 13)
	require.NoError(t, err)

	// hold the lock as another caller would
	require.NoError(t, gen.h.guard.sem.Acquire(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = gen.GenerateID(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	gen.h.guard.sem.Release(1)
	_, err = gen.GenerateID(context.Background())
	assert.NoError(t, err)
}

func TestAsync_PoisonedAfterPanic(t *testing.T) {
	clock := newFakeClock(testNow)
	gen, err := NewAsync(0, 6, WithClock(clock))
	require.NoError(t, err)

	clock.setPanics(true)
	assert.Panics(t, func() { _, _ = gen.GenerateID(context.Background()) })
	clock.setPanics(false)

	_, err = gen.Clone().GenerateID(context.Background())
	assert.ErrorIs(t, err, ErrLockPoisoned)
}

func TestAsync_RolloverWaitReleasesOnlyAfterNewMillisecond(t *testing.T) {
	clock := newFakeClock(testNow)
	gen, err := NewAsync(0, 2, WithClock(clock))
	require.NoError(t, err)

	ctx := context.Background()
	var last int64
	for i := 0; i <= MaxSequence+1; i++ {
		id, err := gen.GenerateID(ctx)
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id
	}

	assert.Equal(t, 1, clock.sleepCount())
	parts, err := gen.Decompose(last)
	require.NoError(t, err)
	assert.Equal(t, testNow+1, parts.Timestamp)
	assert.Equal(t, uint16(0), parts.Sequence)
}
