// Package worker implements background task handlers for async rate updates.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"currencyconverter/internal/provider"
	"currencyconverter/internal/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskTypeRefreshRate is the Asynq task type the scheduler emits for each configured pair.
const TaskTypeRefreshRate = "rate:refresh"

// RefreshRatePayload is the payload of a periodic refresh task.
type RefreshRatePayload struct {
	Pair string `json:"pair"`
}

// NewRateUpdateHandler returns a function to handle rate update tasks.
func NewRateUpdateHandler(svc service.RateServiceInterface, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload service.UpdateRatePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
			return nil
		}

		err := svc.ProcessUpdate(ctx, payload.UpdateID, payload.Base, payload.Quote)
		if err != nil {
			logger.Errorw("Task processing failed", "update_id", payload.UpdateID, "error", err)
			return retryable(err)
		}

		logger.Infow("Task completed", "update_id", payload.UpdateID)
		return nil
	}
}

// NewRateRefreshHandler returns a function that turns a periodic refresh tick into a rate update request.
func NewRateRefreshHandler(svc service.RateServiceInterface, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RefreshRatePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
			return nil
		}

		updateID, _, err := svc.RequestRateUpdate(ctx, payload.Pair)
		if err != nil {
			logger.Errorw("Refresh request failed", "pair", payload.Pair, "error", err)
			return retryable(err)
		}

		logger.Infow("Refresh requested", "pair", payload.Pair, "update_id", updateID)
		return nil
	}
}

// retryable marks errors that cannot succeed on retry with asynq.SkipRetry.
func retryable(err error) error {
	if errors.Is(err, provider.ErrRateNotFound) || errors.Is(err, service.ErrInvalidPairFormat) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

// AsynqEnqueuer is responsible for enqueuing tasks to an Asynq queue with specific configurations for retries and timeouts.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer with the given client, retry limit, and task timeout duration.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

// EnqueueUpdateTask enqueues a rate update task with the specified payload and context using Asynq.
func (e *AsynqEnqueuer) EnqueueUpdateTask(ctx context.Context, payload service.UpdateRatePayload) error {
	task, err := newUpdateTask(payload, e.maxRetry, e.timeout)
	if err != nil {
		return err
	}

	_, err = e.client.EnqueueContext(ctx, task)
	return err
}

func newUpdateTask(payload service.UpdateRatePayload, maxRetry int, timeout time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(service.TaskTypeUpdateRate, data,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(timeout),
		asynq.TaskID(payload.UpdateID),
	), nil
}

// PeriodicRegistrar registers cron-style tasks. *asynq.Scheduler satisfies it.
type PeriodicRegistrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// RegisterRefreshTasks registers one refresh task per pair, fired every interval.
func RegisterRefreshTasks(s PeriodicRegistrar, pairs []string, interval time.Duration, logger *zap.SugaredLogger) error {
	spec := fmt.Sprintf("@every %s", interval)
	for _, pair := range pairs {
		data, err := json.Marshal(RefreshRatePayload{Pair: pair})
		if err != nil {
			return err
		}

		entryID, err := s.Register(spec, asynq.NewTask(TaskTypeRefreshRate, data), asynq.MaxRetry(0))
		if err != nil {
			return fmt.Errorf("register refresh for %s: %w", pair, err)
		}
		logger.Infow("Registered periodic refresh", "pair", pair, "every", interval.String(), "entry_id", entryID)
	}
	return nil
}
