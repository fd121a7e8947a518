package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the state of a rate update request.
type Status string

// Status values for rate update lifecycle.
const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// RateUpdate represents one fetch of a pair's exchange rate.
// Rate is set only when Status is SUCCESS.
type RateUpdate struct {
	ID          string
	Base        string
	Quote       string
	Rate        *decimal.Decimal
	Status      Status
	ErrorMsg    *string
	RequestedAt time.Time
	UpdatedAt   *time.Time
}

// RateUpdateRepository defines DB operations for rate updates.
type RateUpdateRepository interface {
	CreateUpdate(ctx context.Context, base, quote, id string) (string, error)
	MarkRunning(ctx context.Context, id string) error
	MarkSuccess(ctx context.Context, id string, rate decimal.Decimal) error
	MarkFailed(ctx context.Context, id, errorMsg string) error
	GetByID(ctx context.Context, id string) (*RateUpdate, error)
	GetLatestSuccess(ctx context.Context, base, quote string) (*RateUpdate, error)
}

// PostgresRateUpdateRepository is an implementation of RateUpdateRepository using PostgreSQL.
type PostgresRateUpdateRepository struct {
	db *sql.DB
}

// NewPostgresRateUpdateRepository creates a new PostgresRateUpdateRepository.
func NewPostgresRateUpdateRepository(db *sql.DB) RateUpdateRepository {
	return &PostgresRateUpdateRepository{db: db}
}

// CreateUpdate inserts a new rate update request. If an update for the same pair is already pending/running, it returns the existing one's ID.
func (r *PostgresRateUpdateRepository) CreateUpdate(ctx context.Context, base, quote, id string) (string, error) {
	query := `INSERT INTO rate_updates (id, base, quote, status, requested_at)
              VALUES ($1::uuid, $2, $3, 'PENDING'::rate_update_status, NOW())
              ON CONFLICT (base, quote) WHERE status IN ('PENDING', 'RUNNING')
              DO UPDATE SET base = rate_updates.base  -- no-op, changes nothing
              RETURNING id::text`

	var returnedID string
	err := r.db.QueryRowContext(ctx, query, id, base, quote).Scan(&returnedID)
	if err != nil {
		return "", fmt.Errorf("failed to create update: %w", err)
	}
	return returnedID, nil
}

// MarkRunning updates a rate update record status to RUNNING.
func (r *PostgresRateUpdateRepository) MarkRunning(ctx context.Context, id string) error {
	// Failed status can occur on Asynq retry
	query := `UPDATE rate_updates
				SET status=$1::rate_update_status, updated_at=NOW()
				WHERE id=$2::uuid AND status IN ($3::rate_update_status, $4::rate_update_status)`
	result, err := r.db.ExecContext(ctx, query, StatusRunning, id, StatusPending, StatusFailed)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("rate update %s not found or not in PENDING/FAILED status", id)
	}
	return nil
}

// MarkSuccess updates the record to SUCCESS with the fetched rate.
func (r *PostgresRateUpdateRepository) MarkSuccess(ctx context.Context, id string, rate decimal.Decimal) error {
	query := `UPDATE rate_updates
				SET status=$1::rate_update_status,
				    rate=$2::numeric,
				    error=NULL,
				    updated_at=NOW()
				WHERE id=$3::uuid AND status=$4::rate_update_status`

	result, err := r.db.ExecContext(ctx, query, StatusSuccess, rate, id, StatusRunning)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, id)
}

// MarkFailed updates the record to FAILED with an error message and NULL rate.
func (r *PostgresRateUpdateRepository) MarkFailed(ctx context.Context, id, errorMsg string) error {
	query := `UPDATE rate_updates
				SET status=$1::rate_update_status,
				    rate=NULL,
				    error=$2,
				    updated_at=NOW()
				WHERE id=$3::uuid AND status IN ($4::rate_update_status, $5::rate_update_status)`

	result, err := r.db.ExecContext(ctx, query, StatusFailed, errorMsg, id, StatusPending, StatusRunning)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, id)
}

func checkRowsAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("rate update %s not found", id)
	}
	return nil
}

// GetByID retrieves a rate update record by update_id.
func (r *PostgresRateUpdateRepository) GetByID(ctx context.Context, id string) (*RateUpdate, error) {
	query := `SELECT id::text, base, quote, rate, status, error, requested_at, updated_at
              FROM rate_updates
              WHERE id=$1::uuid`

	row := r.db.QueryRowContext(ctx, query, id)
	return scanRateUpdate(row)
}

// GetLatestSuccess finds the most recent successful update for the given currency pair.
func (r *PostgresRateUpdateRepository) GetLatestSuccess(ctx context.Context, base, quote string) (*RateUpdate, error) {
	query := `SELECT id::text, base, quote, rate, status, error, requested_at, updated_at
              FROM rate_updates
              WHERE base=$1 AND quote=$2 AND status=$3::rate_update_status
              ORDER BY updated_at DESC
              LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, base, quote, StatusSuccess)
	return scanRateUpdate(row)
}

// scanRateUpdate maps a single row into a RateUpdate, returning (nil, nil) for sql.ErrNoRows.
func scanRateUpdate(row *sql.Row) (*RateUpdate, error) {
	var u RateUpdate
	var rate decimal.NullDecimal
	var updatedAt sql.NullTime
	var errMsg sql.NullString
	var statusStr string

	err := row.Scan(&u.ID, &u.Base, &u.Quote, &rate, &statusStr, &errMsg, &u.RequestedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	u.Status = Status(statusStr)
	if rate.Valid {
		u.Rate = &rate.Decimal
	}
	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	if errMsg.Valid {
		u.ErrorMsg = &errMsg.String
	}
	return &u, nil
}
