package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"currencyconverter/internal/service"
)

// UpdateRequest represents the request body for a rate update
type UpdateRequest struct {
	Pair string `json:"pair" example:"EUR/CZK"`
}

// UpdateResponse represents the response for a rate update request
type UpdateResponse struct {
	UpdateID string `json:"update_id" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// RateUpdateResponse represents a rate update looked up by ID
type RateUpdateResponse struct {
	UpdateID  string  `json:"update_id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Base      string  `json:"base" example:"EUR"`
	Quote     string  `json:"quote" example:"CZK"`
	Status    string  `json:"status" example:"SUCCESS"`
	Rate      *string `json:"rate,omitempty" example:"26.25"`
	UpdatedAt *string `json:"updated_at,omitempty" example:"2026-10-16T10:15:30Z"`
	Error     *string `json:"error,omitempty" example:"Failed to fetch from provider"`
}

// LatestRateResponse represents the latest stored rate of a pair
type LatestRateResponse struct {
	Base      string `json:"base" example:"EUR"`
	Quote     string `json:"quote" example:"CZK"`
	Rate      string `json:"rate" example:"26.25"`
	UpdatedAt string `json:"updated_at" example:"2026-10-16T10:15:30Z"`
}

// HandleRequestUpdate godoc
// @Summary Request asynchronous rate update
// @Description Initiates an asynchronous fetch of a currency pair's rate. Returns immediately with an update_id for tracking. A pair with an update already in flight returns that update's ID.
// @Tags rates
// @Accept json
// @Produce json
// @Param request body UpdateRequest true "Currency pair in format XXX/YYY"
// @Success 202 {object} UpdateResponse "Update request accepted"
// @Failure 400 {object} ErrorResponse "Invalid currency code format"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /rates/update [post]
func HandleRequestUpdate(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		pair := strings.TrimSpace(req.Pair)
		if pair == "" {
			writeError(w, http.StatusBadRequest, "pair is required")
			return
		}

		updateID, _, err := svc.RequestRateUpdate(r.Context(), pair)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidPairFormat):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "Internal error")
			}
			return
		}

		writeJSON(w, http.StatusAccepted, UpdateResponse{UpdateID: updateID})
	}
}

// HandleGetUpdateByID godoc
// @Summary Get rate update status and result by ID
// @Description Retrieves the status of a rate update by its update_id. The rate and timestamp are returned when status is SUCCESS, the error when FAILED.
// @Tags rates
// @Produce json
// @Param update_id path string true "Update ID (UUID)" format(uuid)
// @Success 200 {object} RateUpdateResponse "Update found"
// @Failure 400 {object} ErrorResponse "Invalid update_id format"
// @Failure 404 {object} ErrorResponse "Unknown update_id"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /rates/{update_id} [get]
func HandleGetUpdateByID(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updateID := chi.URLParam(r, "update_id")
		if updateID == "" {
			writeError(w, http.StatusBadRequest, "update_id is required")
			return
		}

		u, err := svc.GetUpdateResult(r.Context(), updateID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidUpdateID):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrNotFound):
				writeError(w, http.StatusNotFound, "Unknown update_id")
			default:
				writeError(w, http.StatusInternalServerError, "Internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, RateUpdateResponse{
			UpdateID:  u.ID,
			Base:      u.Base,
			Quote:     u.Quote,
			Status:    u.Status,
			Rate:      u.Rate,
			UpdatedAt: u.UpdatedAt,
			Error:     u.ErrorMsg,
		})
	}
}

// HandleGetLatestRate godoc
// @Summary Get latest rate for a currency pair
// @Description Returns the most recent successful rate for the given currency pair. Does NOT trigger a new fetch.
// @Tags rates
// @Produce json
// @Param base query string true "Base currency code (3 letters)" minlength(3) maxlength(3)
// @Param quote query string true "Quote currency code (3 letters)" minlength(3) maxlength(3)
// @Success 200 {object} LatestRateResponse "Latest rate found"
// @Failure 400 {object} ErrorResponse "Invalid currency code format"
// @Failure 404 {object} ErrorResponse "No rate available for the given pair"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /rates/latest [get]
func HandleGetLatestRate(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := r.URL.Query().Get("base")
		quote := r.URL.Query().Get("quote")
		if base == "" || quote == "" {
			writeError(w, http.StatusBadRequest, "base and quote query params are required")
			return
		}

		latest, err := svc.GetLatestRate(r.Context(), base, quote)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidPairFormat):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrNotFound):
				writeError(w, http.StatusNotFound, "No rate available for "+strings.ToUpper(base)+"/"+strings.ToUpper(quote))
			default:
				writeError(w, http.StatusInternalServerError, "Internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, LatestRateResponse{
			Base:      latest.Base,
			Quote:     latest.Quote,
			Rate:      derefStr(latest.Rate),
			UpdatedAt: derefStr(latest.UpdatedAt),
		})
	}
}
