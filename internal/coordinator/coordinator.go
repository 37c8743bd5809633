package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vzahanych/weather-state/internal/config"
	"github.com/vzahanych/weather-state/internal/weather"
	"github.com/vzahanych/weather-state/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ErrStopped = errors.New("coordinator stopped")

// Holder is a state holder driven by the coordinator.
type Holder interface {
	Fetch(ctx context.Context, c weather.Coordinate) error
	Refresh(ctx context.Context) error
}

// Result carries the independent outcomes of a dual fetch.
type Result struct {
	Current  error
	Forecast error
}

// Err joins both outcomes; nil only when both fetches succeeded.
func (r Result) Err() error {
	return errors.Join(r.Current, r.Forecast)
}

// Task is a queued dual fetch for one coordinate.
type Task struct {
	ID         string
	Coordinate weather.Coordinate
	Context    context.Context
	CreatedAt  time.Time
}

// Coordinator fetches current weather and forecast together. Direct calls to
// FetchAll run inline; Submit queues the work for the worker pool.
type Coordinator struct {
	current  Holder
	forecast Holder
	timeout  time.Duration
	workers  int
	logger   *zap.Logger
	tele     *telemetry.Telemetry

	taskQueue  chan *Task
	shutdownCh chan struct{}
	workerWg   sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

func NewCoordinator(current, forecast Holder, cfg config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Coordinator{
		current:    current,
		forecast:   forecast,
		timeout:    cfg.FetchTimeout(),
		workers:    workers,
		logger:     logger,
		tele:       tele,
		taskQueue:  make(chan *Task, workers*4),
		shutdownCh: make(chan struct{}),
	}
}

// FetchAll runs both fetches for c concurrently and waits for both. A failure
// of one does not affect the other.
func (co *Coordinator) FetchAll(ctx context.Context, c weather.Coordinate) Result {
	ctx, span := co.tele.GetTracer().Start(ctx, "coordinator.FetchAll")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", c.Latitude),
		attribute.Float64("lon", c.Longitude),
	)

	ctx, cancel := co.withTimeout(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		result Result
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		result.Current = co.current.Fetch(ctx, c)
	}()
	go func() {
		defer wg.Done()
		result.Forecast = co.forecast.Fetch(ctx, c)
	}()
	wg.Wait()

	span.SetAttributes(
		attribute.Bool("current_ok", result.Current == nil),
		attribute.Bool("forecast_ok", result.Forecast == nil),
	)

	co.logger.Debug("Dual fetch finished",
		zap.String("coordinate", c.Key()),
		zap.NamedError("current_error", result.Current),
		zap.NamedError("forecast_error", result.Forecast))

	return result
}

// RefreshAll refreshes both holders against their last coordinates.
func (co *Coordinator) RefreshAll(ctx context.Context) Result {
	ctx, span := co.tele.GetTracer().Start(ctx, "coordinator.RefreshAll")
	defer span.End()

	ctx, cancel := co.withTimeout(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		result Result
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		result.Current = co.current.Refresh(ctx)
	}()
	go func() {
		defer wg.Done()
		result.Forecast = co.forecast.Refresh(ctx)
	}()
	wg.Wait()

	return result
}

func (co *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if co.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, co.timeout)
}

// Start launches the worker pool. It is a no-op when already started.
func (co *Coordinator) Start(ctx context.Context) {
	co.mu.Lock()
	defer co.mu.Unlock()

	if co.started || co.stopped {
		return
	}
	co.started = true

	for i := 1; i <= co.workers; i++ {
		co.workerWg.Add(1)
		go NewWorker(co, i).Start(ctx)
	}

	co.logger.Info("Coordinator started", zap.Int("workers", co.workers))
}

// Stop signals the workers and waits for in-flight tasks. Queued tasks that
// were not picked up are dropped.
func (co *Coordinator) Stop() {
	co.mu.Lock()
	if co.stopped {
		co.mu.Unlock()
		return
	}
	co.stopped = true
	close(co.shutdownCh)
	co.mu.Unlock()

	co.workerWg.Wait()
	co.logger.Info("Coordinator stopped")
}

// Submit queues a dual fetch for c and returns the task ID. The task keeps
// the values of ctx but not its cancellation, so a finished HTTP request does
// not abort the fetch it triggered.
func (co *Coordinator) Submit(ctx context.Context, c weather.Coordinate) (string, error) {
	task := &Task{
		ID:         uuid.New().String(),
		Coordinate: c,
		Context:    context.WithoutCancel(ctx),
		CreatedAt:  time.Now(),
	}

	select {
	case <-co.shutdownCh:
		return "", ErrStopped
	default:
	}

	select {
	case co.taskQueue <- task:
		co.logger.Debug("Task queued",
			zap.String("task_id", task.ID),
			zap.String("coordinate", c.Key()))
		return task.ID, nil
	case <-co.shutdownCh:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Watch submits every coordinate received on coords until coords is closed,
// ctx is done or the coordinator stops.
func (co *Coordinator) Watch(ctx context.Context, coords <-chan weather.Coordinate) {
	for {
		select {
		case c, ok := <-coords:
			if !ok {
				return
			}
			if _, err := co.Submit(ctx, c); err != nil {
				co.logger.Warn("Dropping resolved coordinate",
					zap.String("coordinate", c.Key()),
					zap.Error(err))
				if errors.Is(err, ErrStopped) {
					return
				}
			}
		case <-co.shutdownCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// QueueLength reports tasks waiting for a worker.
func (co *Coordinator) QueueLength() int {
	return len(co.taskQueue)
}

func (co *Coordinator) Running() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.started && !co.stopped
}
