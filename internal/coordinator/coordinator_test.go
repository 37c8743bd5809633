package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-state/internal/config"
	"github.com/vzahanych/weather-state/internal/service"
	"github.com/vzahanych/weather-state/internal/state"
	"github.com/vzahanych/weather-state/internal/weather"
	"go.uber.org/zap/zaptest"
)

var taipei = weather.Coordinate{Latitude: 25.0330, Longitude: 121.5654}

// fakeHolder records calls and optionally blocks until released.
type fakeHolder struct {
	mu       sync.Mutex
	fetched  []weather.Coordinate
	refresh  int
	err      error
	entered  chan struct{}
	release  chan struct{}
	deadline bool
}

func (f *fakeHolder) Fetch(ctx context.Context, c weather.Coordinate) error {
	f.mu.Lock()
	f.fetched = append(f.fetched, c)
	_, f.deadline = ctx.Deadline()
	entered, release, err := f.entered, f.release, f.err
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return err
}

func (f *fakeHolder) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh++
	return f.err
}

func (f *fakeHolder) calls() []weather.Coordinate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]weather.Coordinate(nil), f.fetched...)
}

func testConfig() config.WeatherConfig {
	return config.WeatherConfig{Timeout: 5, Workers: 2}
}

func TestCoordinator_FetchAllRunsConcurrently(t *testing.T) {
	current := &fakeHolder{entered: make(chan struct{}, 1), release: make(chan struct{})}
	forecast := &fakeHolder{entered: make(chan struct{}, 1), release: make(chan struct{})}
	co := NewCoordinator(current, forecast, testConfig(), zaptest.NewLogger(t), nil)

	done := make(chan Result, 1)
	go func() { done <- co.FetchAll(context.Background(), taipei) }()

	// Both fetches must be in flight before either is released.
	for _, h := range []*fakeHolder{current, forecast} {
		select {
		case <-h.entered:
		case <-time.After(time.Second):
			t.Fatal("fetch did not start")
		}
	}
	close(current.release)
	close(forecast.release)

	res := <-done
	assert.NoError(t, res.Err())
	assert.Equal(t, []weather.Coordinate{taipei}, current.calls())
	assert.Equal(t, []weather.Coordinate{taipei}, forecast.calls())
	assert.True(t, current.deadline, "fetch runs under the configured timeout")
}

func TestCoordinator_FetchAllIndependentFailures(t *testing.T) {
	src := service.NewMockSource(0, zaptest.NewLogger(t))
	src.SetForecastError(weather.ErrNetwork)

	current := state.NewCurrentWeatherState(src, zaptest.NewLogger(t), nil)
	forecast := state.NewForecastState(src, zaptest.NewLogger(t), nil)
	co := NewCoordinator(current, forecast, testConfig(), zaptest.NewLogger(t), nil)

	res := co.FetchAll(context.Background(), taipei)
	assert.NoError(t, res.Current)
	assert.ErrorIs(t, res.Forecast, weather.ErrNetwork)
	assert.ErrorIs(t, res.Err(), weather.ErrNetwork)

	cur := current.Snapshot()
	require.NotNil(t, cur.Data)
	assert.Empty(t, cur.ErrorMessage)
	assert.False(t, cur.IsLoading)

	fc := forecast.Snapshot()
	assert.Empty(t, fc.Data)
	assert.Equal(t, "network connection failed", fc.ErrorMessage)
	assert.False(t, fc.IsLoading)
}

func TestCoordinator_FetchAllInvalidCoordinate(t *testing.T) {
	src := service.NewMockSource(0, zaptest.NewLogger(t))
	current := state.NewCurrentWeatherState(src, zaptest.NewLogger(t), nil)
	forecast := state.NewForecastState(src, zaptest.NewLogger(t), nil)
	co := NewCoordinator(current, forecast, testConfig(), zaptest.NewLogger(t), nil)

	res := co.FetchAll(context.Background(), weather.Coordinate{Latitude: 999, Longitude: 0})
	assert.ErrorIs(t, res.Current, weather.ErrInvalidLocation)
	assert.ErrorIs(t, res.Forecast, weather.ErrInvalidLocation)
	assert.Zero(t, src.CurrentCalls())
	assert.Zero(t, src.ForecastCalls())
}

func TestCoordinator_FetchAllTimeout(t *testing.T) {
	src := service.NewMockSource(time.Minute, zaptest.NewLogger(t))
	current := state.NewCurrentWeatherState(src, zaptest.NewLogger(t), nil)
	forecast := state.NewForecastState(src, zaptest.NewLogger(t), nil)

	co := NewCoordinator(current, forecast, testConfig(), zaptest.NewLogger(t), nil)
	co.timeout = 20 * time.Millisecond

	res := co.FetchAll(context.Background(), taipei)
	assert.ErrorIs(t, res.Current, context.DeadlineExceeded)
	assert.Equal(t, "weather request timed out", current.Snapshot().ErrorMessage)
	assert.False(t, forecast.Snapshot().IsLoading)
}

func TestCoordinator_RefreshAll(t *testing.T) {
	current, forecast := &fakeHolder{}, &fakeHolder{}
	co := NewCoordinator(current, forecast, testConfig(), zaptest.NewLogger(t), nil)

	assert.NoError(t, co.RefreshAll(context.Background()).Err())
	assert.Equal(t, 1, current.refresh)
	assert.Equal(t, 1, forecast.refresh)
}

func TestCoordinator_RefreshAllWithoutCoordinate(t *testing.T) {
	src := service.NewMockSource(0, zaptest.NewLogger(t))
	current := state.NewCurrentWeatherState(src, zaptest.NewLogger(t), nil)
	forecast := state.NewForecastState(src, zaptest.NewLogger(t), nil)
	co := NewCoordinator(current, forecast, testConfig(), zaptest.NewLogger(t), nil)

	res := co.RefreshAll(context.Background())
	assert.ErrorIs(t, res.Current, weather.ErrInvalidLocation)
	assert.ErrorIs(t, res.Forecast, weather.ErrInvalidLocation)
	assert.Zero(t, src.CurrentCalls())
	assert.Zero(t, src.ForecastCalls())
}

func TestCoordinator_SubmitProcessesTask(t *testing.T) {
	src := service.NewMockSource(0, zaptest.NewLogger(t))
	current := state.NewCurrentWeatherState(src, zaptest.NewLogger(t), nil)
	forecast := state.NewForecastState(src, zaptest.NewLogger(t), nil)
	co := NewCoordinator(current, forecast, testConfig(), zaptest.NewLogger(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	co.Start(ctx)
	defer co.Stop()
	assert.True(t, co.Running())

	id, err := co.Submit(ctx, taipei)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		return current.Snapshot().Data != nil && len(forecast.Snapshot().Data) == weather.ForecastDays
	}, time.Second, 5*time.Millisecond)
}

func TestCoordinator_SubmittedTaskOutlivesRequest(t *testing.T) {
	current := &fakeHolder{release: make(chan struct{})}
	forecast := &fakeHolder{}
	co := NewCoordinator(current, forecast, testConfig(), zaptest.NewLogger(t), nil)

	co.Start(context.Background())
	defer co.Stop()

	reqCtx, cancel := context.WithCancel(context.Background())
	_, err := co.Submit(reqCtx, taipei)
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool { return len(current.calls()) == 1 }, time.Second, 5*time.Millisecond)
	close(current.release)
}

func TestCoordinator_SubmitAfterStop(t *testing.T) {
	co := NewCoordinator(&fakeHolder{}, &fakeHolder{}, testConfig(), zaptest.NewLogger(t), nil)
	co.Start(context.Background())
	co.Stop()
	co.Stop()

	_, err := co.Submit(context.Background(), taipei)
	assert.ErrorIs(t, err, ErrStopped)
	assert.False(t, co.Running())
}

func TestCoordinator_Watch(t *testing.T) {
	current, forecast := &fakeHolder{}, &fakeHolder{}
	co := NewCoordinator(current, forecast, testConfig(), zaptest.NewLogger(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	co.Start(ctx)
	defer co.Stop()

	coords := make(chan weather.Coordinate)
	watched := make(chan struct{})
	go func() {
		co.Watch(ctx, coords)
		close(watched)
	}()

	coords <- taipei
	coords <- weather.Fallback
	close(coords)

	select {
	case <-watched:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after the channel closed")
	}

	require.Eventually(t, func() bool { return len(forecast.calls()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []weather.Coordinate{taipei, weather.Fallback}, current.calls())
}

func TestCoordinator_WorkersDefaultToOne(t *testing.T) {
	co := NewCoordinator(&fakeHolder{}, &fakeHolder{}, config.WeatherConfig{}, nil, nil)
	assert.Equal(t, 1, co.workers)
	assert.Zero(t, co.timeout)
	assert.Zero(t, co.QueueLength())
}
