// Package snowflake generates 64-bit, time-ordered identifiers and decomposes
// them back into their timestamp, worker and sequence fields.
//
// Layout, most to least significant bit:
//
//	[1 bit sign, always 0][41 bits ms since epoch][10 bits worker][12 bits sequence]
//
// State is the single-owner core. It is not safe for concurrent use; wrap it
// in Local, Synced or Async depending on how callers share it.
package snowflake

import (
	"errors"
	"time"
)

const (
	WorkerIDBits = 10
	SequenceBits = 12

	MaxWorkerID = -1 ^ (-1 << WorkerIDBits)
	MaxSequence = -1 ^ (-1 << SequenceBits)

	TimestampShift = WorkerIDBits + SequenceBits
	WorkerIDShift  = SequenceBits

	signMask = 0x7FFFFFFFFFFFFFFF
)

var (
	// ErrWorkerIDOutOfRange is returned when the worker id exceeds MaxWorkerID.
	ErrWorkerIDOutOfRange = errors.New("snowflake: worker id out of range (0-1023)")

	// ErrEpochInFuture is returned when the custom epoch is ahead of the clock.
	ErrEpochInFuture = errors.New("snowflake: epoch is in the future")

	// ErrTimeBeforeUnixEpoch is returned when the clock reads before 1970-01-01.
	ErrTimeBeforeUnixEpoch = errors.New("snowflake: system time is before unix epoch")

	// ErrNegativeIdentifier is returned when decomposing an id with the sign bit set.
	ErrNegativeIdentifier = errors.New("snowflake: identifier has sign bit set")

	// ErrLockPoisoned is returned by shared adapters after a panic escaped
	// a previous call while it held the lock.
	ErrLockPoisoned = errors.New("snowflake: generator lock is poisoned")
)

// Clock is the time source of a State. Now must carry a monotonic reading
// for elapsed-time computation to be immune to wall clock adjustments.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock reads the process clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Option customizes a State at construction.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock replaces the system clock. Mostly useful in tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// State holds the last used millisecond and the sequence counter of one worker.
type State struct {
	epoch    int64
	workerID uint16

	lastTimestamp int64
	sequence      uint16

	clock    Clock
	anchor   time.Time
	anchorMs int64
}

// New validates the worker id and epoch against the current clock and returns
// a State whose first millisecond is the construction instant.
func New(epoch int64, workerID uint16, opts ...Option) (*State, error) {
	if workerID > MaxWorkerID {
		return nil, ErrWorkerIDOutOfRange
	}

	o := options{clock: SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	anchor := o.clock.Now()
	anchorMs := anchor.UnixMilli()
	if anchorMs < 0 {
		return nil, ErrTimeBeforeUnixEpoch
	}
	if epoch > anchorMs {
		return nil, ErrEpochInFuture
	}

	return &State{
		epoch:         epoch,
		workerID:      workerID,
		lastTimestamp: anchorMs - epoch,
		clock:         o.clock,
		anchor:        anchor,
		anchorMs:      anchorMs,
	}, nil
}

func (s *State) Epoch() int64     { return s.epoch }
func (s *State) WorkerID() uint16 { return s.workerID }

// elapsed returns milliseconds since epoch, derived from the construction
// anchor plus monotonic time passed since then.
func (s *State) elapsed() int64 {
	return s.anchorMs + s.clock.Now().Sub(s.anchor).Milliseconds() - s.epoch
}

// Next returns the next identifier. When 4096 ids were already issued in the
// current millisecond it sleeps about a millisecond and starts a new one.
//
// A clock that reads earlier than the last used millisecond is treated as
// not having advanced: ids keep filling the last bucket. If the reading after
// the rollover sleep is still not past the last used millisecond (a clock that
// regressed or stalled), lastTimestamp is advanced by one instead of taking
// that reading, so ids stay unique and ordered.
func (s *State) Next() int64 {
	now := s.elapsed()
	if now > s.lastTimestamp {
		s.lastTimestamp = now
		s.sequence = 0
	} else if s.sequence > MaxSequence {
		s.clock.Sleep(time.Millisecond)
		// lastTimestamp never moves backwards, even if the clock did.
		if now = s.elapsed(); now > s.lastTimestamp {
			s.lastTimestamp = now
		} else {
			s.lastTimestamp++
		}
		s.sequence = 0
	}

	id := Compose(s.lastTimestamp, s.workerID, s.sequence)
	s.sequence++
	return id
}

// Compose packs the three fields into an identifier with the sign bit cleared.
func Compose(elapsedMs int64, workerID, sequence uint16) int64 {
	return ((elapsedMs << TimestampShift) |
		(int64(workerID&MaxWorkerID) << WorkerIDShift) |
		int64(sequence&MaxSequence)) & signMask
}
