package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_PanicClearsLoading(t *testing.T) {
	h := newHolder[int](nil)
	h.update(func(s *Snapshot[int]) { s.Data = 7 })

	assert.Panics(t, func() {
		_ = run(context.Background(), h, func(context.Context) (int, error) {
			panic("source blew up")
		}, func(err error) string { return err.Error() })
	})

	snap := h.snapshot()
	assert.False(t, snap.IsLoading)
	assert.Equal(t, 7, snap.Data)
}

func TestRun_PublishesOutcome(t *testing.T) {
	h := newHolder[int](nil)

	err := run(context.Background(), h, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	}, func(err error) string { return "failed: " + err.Error() })

	assert.EqualError(t, err, "boom")
	snap := h.snapshot()
	assert.False(t, snap.IsLoading)
	assert.Equal(t, "failed: boom", snap.ErrorMessage)
}
