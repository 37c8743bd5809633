package state

import (
	"context"
	"sync"
	"time"
)

// Snapshot is an immutable copy of a state holder's published fields.
type Snapshot[T any] struct {
	Data         T      `json:"data"`
	IsLoading    bool   `json:"is_loading"`
	ErrorMessage string `json:"error_message,omitempty"`
	// Version increases with every published change.
	Version uint64 `json:"version"`
}

func (s Snapshot[T]) HasError() bool {
	return s.ErrorMessage != ""
}

// Recorder receives fetch outcomes for metrics.
type Recorder interface {
	RecordFetch(ctx context.Context, holder string, duration time.Duration, err error)
}

// holder owns a snapshot and fans every change out to subscribers. All writes
// go through update, so subscribers observe changes in order.
type holder[T any] struct {
	mu     sync.Mutex
	snap   Snapshot[T]
	subs   map[int]chan Snapshot[T]
	nextID int
	clone  func(T) T
}

func newHolder[T any](clone func(T) T) *holder[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &holder[T]{
		subs:  make(map[int]chan Snapshot[T]),
		clone: clone,
	}
}

func (h *holder[T]) snapshot() Snapshot[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.snap
	s.Data = h.clone(s.Data)
	return s
}

func (h *holder[T]) update(fn func(s *Snapshot[T])) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn(&h.snap)
	h.snap.Version++

	for _, ch := range h.subs {
		s := h.snap
		s.Data = h.clone(s.Data)
		// Keep only the newest snapshot for slow subscribers.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// subscribe returns a channel receiving the current snapshot followed by
// every later change. Slow readers skip intermediate snapshots.
func (h *holder[T]) subscribe() (<-chan Snapshot[T], func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan Snapshot[T], 1)
	s := h.snap
	s.Data = h.clone(s.Data)
	ch <- s
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// run drives the loading/data/error lifecycle around op. The loading flag is
// cleared on every exit path, including a panic in op.
func run[T any](ctx context.Context, h *holder[T], op func(context.Context) (T, error), message func(error) string) error {
	h.update(func(s *Snapshot[T]) {
		s.IsLoading = true
		s.ErrorMessage = ""
	})

	done := false
	defer func() {
		if !done {
			h.update(func(s *Snapshot[T]) { s.IsLoading = false })
		}
	}()

	data, err := op(ctx)
	done = true

	h.update(func(s *Snapshot[T]) {
		if err != nil {
			var zero T
			s.Data = zero
			s.ErrorMessage = message(err)
		} else {
			s.Data = data
			s.ErrorMessage = ""
		}
		s.IsLoading = false
	})

	return err
}
