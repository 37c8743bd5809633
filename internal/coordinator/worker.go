package coordinator

import (
	"context"
	"time"

	"github.com/vzahanych/weather-state/internal/server/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type Worker struct {
	coordinator *Coordinator
	workerID    int
	logger      *zap.Logger
}

func NewWorker(coordinator *Coordinator, workerID int) *Worker {
	return &Worker{
		coordinator: coordinator,
		workerID:    workerID,
		logger:      coordinator.logger.With(zap.Int("worker_id", workerID)),
	}
}

func (w *Worker) Start(ctx context.Context) {
	defer w.coordinator.workerWg.Done()

	w.logger.Info("Worker started")

	for {
		select {
		case task, ok := <-w.coordinator.taskQueue:
			if !ok {
				w.logger.Info("Task queue closed, worker stopping")
				return
			}

			w.logger.Debug("Processing task", zap.String("task_id", task.ID))
			w.processTask(ctx, task)

		case <-w.coordinator.shutdownCh:
			w.logger.Info("Shutdown signal received, worker stopping")
			return
		case <-ctx.Done():
			w.logger.Info("Context cancelled, worker stopping")
			return
		}
	}
}

// processTask runs the task in its own context so request values such as the
// request ID and trace span carry over from the submitter.
func (w *Worker) processTask(_ context.Context, task *Task) {
	taskCtx := task.Context
	if taskCtx == nil {
		taskCtx = context.Background()
	}

	ctx, span := w.coordinator.tele.GetTracer().Start(taskCtx, "coordinator.processTask")
	defer span.End()

	span.SetAttributes(
		attribute.String("task_id", task.ID),
		attribute.Float64("lat", task.Coordinate.Latitude),
		attribute.Float64("lon", task.Coordinate.Longitude),
		attribute.Int("worker_id", w.workerID),
	)

	logger := w.logger.With(zap.String("task_id", task.ID))
	if requestID := utils.RequestIDFromContext(taskCtx); requestID != "" {
		logger = logger.With(zap.String("request_id", requestID))
	}

	result := w.coordinator.FetchAll(ctx, task.Coordinate)

	if err := result.Err(); err != nil {
		logger.Warn("Task finished with errors",
			zap.Duration("queued_for", time.Since(task.CreatedAt)),
			zap.Error(err))
		return
	}

	logger.Debug("Task completed successfully",
		zap.Duration("queued_for", time.Since(task.CreatedAt)))
}
