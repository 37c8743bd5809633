package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-state/internal/weather"
	"go.uber.org/zap/zaptest"
)

func TestScheduler_DisabledWithoutInterval(t *testing.T) {
	co, current, _ := createTestCoordinator(t)
	s := NewScheduler(co, func() (weather.Coordinate, bool) { return taipei, true }, 0, zaptest.NewLogger(t))

	require.NoError(t, s.Start())
	defer s.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, current.refresh)
}

func TestScheduler_TickSkipsWithoutCoordinate(t *testing.T) {
	co, current, forecast := createTestCoordinator(t)
	s := NewScheduler(co, func() (weather.Coordinate, bool) { return weather.Coordinate{}, false }, time.Minute, zaptest.NewLogger(t))

	s.tick()
	assert.Zero(t, current.refresh)
	assert.Zero(t, forecast.refresh)
}

func TestScheduler_TickRefreshesBoth(t *testing.T) {
	co, current, forecast := createTestCoordinator(t)
	s := NewScheduler(co, func() (weather.Coordinate, bool) { return taipei, true }, time.Minute, zaptest.NewLogger(t))

	s.tick()
	assert.Equal(t, 1, current.refresh)
	assert.Equal(t, 1, forecast.refresh)
}

func TestScheduler_Runs(t *testing.T) {
	co, current, _ := createTestCoordinator(t)
	s := NewScheduler(co, func() (weather.Coordinate, bool) { return taipei, true }, time.Second, zaptest.NewLogger(t))

	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		current.mu.Lock()
		defer current.mu.Unlock()
		return current.refresh > 0
	}, 3*time.Second, 20*time.Millisecond)
}
