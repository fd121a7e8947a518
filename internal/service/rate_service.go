// Package service implements the business logic for rate updates and currency conversion.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"currencyconverter/internal/config"
	"currencyconverter/internal/provider"
	"currencyconverter/internal/repository"
)

// RateServiceInterface defines the operations available for rate update management.
type RateServiceInterface interface {
	RequestRateUpdate(ctx context.Context, pair string) (updateID, status string, err error)
	GetUpdateResult(ctx context.Context, updateID string) (*RateUpdateResult, error)
	GetLatestRate(ctx context.Context, base, quote string) (*RateUpdateResult, error)
	ProcessUpdate(ctx context.Context, updateID, base, quote string) error
}

// TaskTypeUpdateRate is the Asynq task type for rate update jobs.
const TaskTypeUpdateRate = "rate:update"

// UpdateRatePayload is the payload structure for rate update Asynq tasks.
type UpdateRatePayload struct {
	UpdateID string `json:"update_id"`
	Base     string `json:"base"`
	Quote    string `json:"quote"`
}

// TaskEnqueuer schedules rate update tasks for background processing.
type TaskEnqueuer interface {
	EnqueueUpdateTask(ctx context.Context, payload UpdateRatePayload) error
}

// RateService defines business logic for stored exchange rates
type RateService struct {
	repo     repository.RateUpdateRepository
	provider provider.RatesProvider
	enqueuer TaskEnqueuer
	cache    latestRateCache
	log      *zap.SugaredLogger
}

// NewRateService creates a new RateService
func NewRateService(repo repository.RateUpdateRepository, prov provider.RatesProvider, enqueuer TaskEnqueuer, cache *redis.Client, logger *zap.SugaredLogger, cacheCfg config.CacheConfig) *RateService {
	return &RateService{
		repo:     repo,
		provider: prov,
		enqueuer: enqueuer,
		cache: latestRateCache{
			rdb: cache,
			ttl: time.Duration(cacheCfg.LatestRateTTLSec) * time.Second,
			log: logger,
		},
		log: logger,
	}
}

// RequestRateUpdate processes a request to update a rate asynchronously.
func (s *RateService) RequestRateUpdate(ctx context.Context, pair string) (updateID, status string, err error) {
	base, quote, err := ParsePair(pair)
	if err != nil {
		return "", "", err
	}

	uid := uuid.New().String()
	id, err := s.repo.CreateUpdate(ctx, base, quote, uid)
	if err != nil {
		s.log.Errorw("CreateUpdate DB error", "error", err)
		return "", "", ErrInternal
	}

	if id != uid {
		return id, string(repository.StatusPending), nil
	}

	payload := UpdateRatePayload{UpdateID: id, Base: base, Quote: quote}
	if err := s.enqueuer.EnqueueUpdateTask(ctx, payload); err != nil {
		s.log.Errorw("Failed to enqueue task", "update_id", id, "error", err)
		s.markFailed(ctx, id, "enqueue error")
		return "", "", ErrInternalQueue
	}

	s.log.Infow("Enqueued update task", "update_id", id, "pair", base+"/"+quote)
	return id, string(repository.StatusPending), nil
}

// GetUpdateResult retrieves the rate update (rate and status) for a given update ID.
func (s *RateService) GetUpdateResult(ctx context.Context, updateID string) (*RateUpdateResult, error) {
	if _, err := uuid.Parse(updateID); err != nil {
		return nil, ErrInvalidUpdateID
	}
	u, err := s.repo.GetByID(ctx, updateID)
	if err != nil {
		s.log.Errorw("DB error fetching rate update by ID", "update_id", updateID, "error", err)
		return nil, ErrInternal
	}
	if u == nil {
		return nil, ErrNotFound
	}

	return rateResultFromRepo(u), nil
}

// GetLatestRate returns the latest successful rate for the given currency pair.
func (s *RateService) GetLatestRate(ctx context.Context, base, quote string) (*RateUpdateResult, error) {
	base, quote, err := normalizePair(base, quote)
	if err != nil {
		return nil, err
	}

	u, err := s.latest(ctx, base, quote)
	if err != nil {
		s.log.Errorw("DB error fetching latest rate", "base", base, "quote", quote, "error", err)
		return nil, ErrInternal
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return rateResultFromRepo(u), nil
}

// latest returns the newest SUCCESS update for a normalized pair, cache first.
// A nil update with a nil error means no rate has been stored yet.
func (s *RateService) latest(ctx context.Context, base, quote string) (*repository.RateUpdate, error) {
	if u, ok := s.cache.get(ctx, base, quote); ok {
		return u, nil
	}

	u, err := s.repo.GetLatestSuccess(ctx, base, quote)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	s.cache.putUpdate(ctx, u)
	return u, nil
}

// ProcessUpdate performs the external fetch and stores the result (called by background worker).
func (s *RateService) ProcessUpdate(ctx context.Context, updateID, base, quote string) error {
	base, quote, err := normalizePair(base, quote)
	if err != nil {
		s.completeFailure(ctx, updateID, err)
		return err
	}

	s.log.Infow("Processing update", "update_id", updateID, "base", base, "quote", quote)
	s.markRunning(ctx, updateID)

	rate, fetchedAt, err := s.provider.GetRate(ctx, base, quote)
	if err != nil {
		s.completeFailure(ctx, updateID, err)
		return err
	}

	if err := s.repo.MarkSuccess(ctx, updateID, rate); err != nil {
		s.log.Errorw("DB update error on success", "update_id", updateID, "error", err)
		return err
	}

	s.cache.put(ctx, base, quote, rate, fetchedAt)
	s.log.Infow("Update success", "update_id", updateID, "rate", rate.String())
	return nil
}

func (s *RateService) markFailed(ctx context.Context, updateID, reason string) {
	if err := s.repo.MarkFailed(ctx, updateID, reason); err != nil {
		s.log.Warnw("Failed to mark record as FAILED", "update_id", updateID, "error", err)
	}
}

func (s *RateService) markRunning(ctx context.Context, updateID string) {
	if err := s.repo.MarkRunning(ctx, updateID); err != nil {
		s.log.Warnw("Failed to mark record as RUNNING", "update_id", updateID, "error", err)
	}
}

func (s *RateService) completeFailure(ctx context.Context, updateID string, cause error) {
	s.log.Errorw("Provider error", "update_id", updateID, "error", cause)
	s.markFailed(ctx, updateID, cause.Error())
}
