package service

import (
	"time"

	"currencyconverter/internal/repository"
)

// RateUpdateResult represents a rate update returned by the service layer.
// Fields are populated according to the update's status:
//   - SUCCESS: Rate and UpdatedAt are set, ErrorMsg is nil.
//   - FAILED:  ErrorMsg is set, Rate is nil.
//   - PENDING/RUNNING: Rate, ErrorMsg, and UpdatedAt are nil.
type RateUpdateResult struct {
	ID        string
	Base      string
	Quote     string
	Rate      *string
	Status    string
	ErrorMsg  *string
	UpdatedAt *string
}

func rateResultFromRepo(u *repository.RateUpdate) *RateUpdateResult {
	r := &RateUpdateResult{
		ID:     u.ID,
		Base:   u.Base,
		Quote:  u.Quote,
		Status: string(u.Status),
	}

	switch u.Status {
	case repository.StatusSuccess:
		if u.Rate != nil {
			rate := u.Rate.String()
			r.Rate = &rate
		}
		if u.UpdatedAt != nil {
			ts := u.UpdatedAt.Format(time.RFC3339)
			r.UpdatedAt = &ts
		}
	case repository.StatusFailed:
		r.ErrorMsg = u.ErrorMsg
	}

	return r
}
