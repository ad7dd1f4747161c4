package snowflake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Mode selects how an adapter serializes access to its State.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeSynced Mode = "synced"
	ModeAsync  Mode = "async"
)

// ParseMode normalizes a mode name. Empty input yields ModeSynced.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.TrimSpace(strings.ToLower(value))) {
	case "", ModeSynced:
		return ModeSynced, nil
	case ModeLocal:
		return ModeLocal, nil
	case ModeAsync:
		return ModeAsync, nil
	default:
		return "", fmt.Errorf("snowflake: unknown mode %q", value)
	}
}

// Generator is the mode-agnostic view shared by Local, Synced and Async.
type Generator interface {
	// NextID returns the next identifier. Only Async honors ctx.
	NextID(ctx context.Context) (int64, error)
	Decompose(id int64) (Decomposed, error)
	Epoch() int64
	WorkerID() uint16
}

var (
	_ Generator = (*Local)(nil)
	_ Generator = (*Synced)(nil)
	_ Generator = (*Async)(nil)
)

// NewGenerator builds the adapter matching mode.
func NewGenerator(mode Mode, epoch int64, workerID uint16, opts ...Option) (Generator, error) {
	switch mode {
	case ModeLocal:
		return NewLocal(epoch, workerID, opts...)
	case ModeSynced:
		return NewSynced(epoch, workerID, opts...)
	case ModeAsync:
		return NewAsync(epoch, workerID, opts...)
	default:
		return nil, fmt.Errorf("snowflake: unknown mode %q", mode)
	}
}

type guard interface {
	lock(ctx context.Context) error
	unlock()
	// poisons reports whether a panic inside the critical section must
	// disable the handle for later callers.
	poisons() bool
}

type nopGuard struct{}

func (nopGuard) lock(context.Context) error { return nil }
func (nopGuard) unlock()                    {}
func (nopGuard) poisons() bool              { return false }

type mutexGuard struct{ mu *sync.Mutex }

func (g mutexGuard) lock(context.Context) error {
	g.mu.Lock()
	return nil
}
func (g mutexGuard) unlock()       { g.mu.Unlock() }
func (g mutexGuard) poisons() bool { return true }

type semaphoreGuard struct{ sem *semaphore.Weighted }

func (g semaphoreGuard) lock(ctx context.Context) error { return g.sem.Acquire(ctx, 1) }
func (g semaphoreGuard) unlock()                        { g.sem.Release(1) }
func (g semaphoreGuard) poisons() bool                  { return true }

// handle is the exclusive-access wrapper every adapter shares. Clones of an
// adapter point at the same handle.
type handle[G guard] struct {
	guard G
	state *State

	// guarded by guard
	poisoned bool
}

func newHandle[G guard](g G, epoch int64, workerID uint16, opts []Option) (*handle[G], error) {
	state, err := New(epoch, workerID, opts...)
	if err != nil {
		return nil, err
	}
	return &handle[G]{guard: g, state: state}, nil
}

func (h *handle[G]) next(ctx context.Context) (int64, error) {
	if err := h.guard.lock(ctx); err != nil {
		return 0, err
	}
	defer h.guard.unlock()

	if h.poisoned {
		return 0, ErrLockPoisoned
	}

	completed := false
	defer func() {
		if !completed && h.guard.poisons() {
			h.poisoned = true
		}
	}()

	id := h.state.Next()
	completed = true
	return id, nil
}

// Local serves a single owner without locking. Clones must stay on the
// owner's goroutine.
type Local struct {
	h *handle[nopGuard]
}

func NewLocal(epoch int64, workerID uint16, opts ...Option) (*Local, error) {
	h, err := newHandle(nopGuard{}, epoch, workerID, opts)
	if err != nil {
		return nil, err
	}
	return &Local{h: h}, nil
}

func (g *Local) GenerateID() int64 {
	// nopGuard neither fails to lock nor poisons, so next has no error path.
	id, _ := g.h.next(context.Background())
	return id
}

func (g *Local) NextID(context.Context) (int64, error) { return g.GenerateID(), nil }
func (g *Local) Clone() *Local                          { return &Local{h: g.h} }
func (g *Local) Epoch() int64                           { return g.h.state.Epoch() }
func (g *Local) WorkerID() uint16                       { return g.h.state.WorkerID() }

func (g *Local) Decompose(id int64) (Decomposed, error) { return Decompose(id, g.Epoch()) }

// Synced is shared by goroutines behind a mutex. A call blocks while another
// holds the lock, including its rollover wait.
type Synced struct {
	h *handle[mutexGuard]
}

func NewSynced(epoch int64, workerID uint16, opts ...Option) (*Synced, error) {
	h, err := newHandle(mutexGuard{mu: &sync.Mutex{}}, epoch, workerID, opts)
	if err != nil {
		return nil, err
	}
	return &Synced{h: h}, nil
}

// GenerateID returns ErrLockPoisoned if an earlier call panicked while
// holding the lock.
func (g *Synced) GenerateID() (int64, error) {
	return g.h.next(context.Background())
}

func (g *Synced) NextID(context.Context) (int64, error) { return g.GenerateID() }
func (g *Synced) Clone() *Synced                        { return &Synced{h: g.h} }
func (g *Synced) Epoch() int64                          { return g.h.state.Epoch() }
func (g *Synced) WorkerID() uint16                      { return g.h.state.WorkerID() }

func (g *Synced) Decompose(id int64) (Decomposed, error) { return Decompose(id, g.Epoch()) }

// Async is shared by goroutines behind a context-aware lock. Waiters are
// parked until the lock frees up or their context ends.
type Async struct {
	h *handle[semaphoreGuard]
}

func NewAsync(epoch int64, workerID uint16, opts ...Option) (*Async, error) {
	h, err := newHandle(semaphoreGuard{sem: semaphore.NewWeighted(1)}, epoch, workerID, opts)
	if err != nil {
		return nil, err
	}
	return &Async{h: h}, nil
}

// GenerateID waits for exclusive access and returns ctx.Err() if ctx is done
// first. Once the lock is held the call runs to completion.
func (g *Async) GenerateID(ctx context.Context) (int64, error) {
	return g.h.next(ctx)
}

func (g *Async) NextID(ctx context.Context) (int64, error) { return g.GenerateID(ctx) }
func (g *Async) Clone() *Async                             { return &Async{h: g.h} }
func (g *Async) Epoch() int64                              { return g.h.state.Epoch() }
func (g *Async) WorkerID() uint16                          { return g.h.state.WorkerID() }

func (g *Async) Decompose(id int64) (Decomposed, error) { return Decompose(id, g.Epoch()) }
