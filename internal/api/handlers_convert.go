package api

import (
	"errors"
	"net/http"

	"currencyconverter/internal/converter"
	"currencyconverter/internal/service"
)

// ConvertResponse represents a completed conversion
type ConvertResponse struct {
	From   string `json:"from" example:"EUR"`
	To     string `json:"to" example:"CZK"`
	Amount string `json:"amount" example:"1"`
	Result string `json:"result" example:"26.25"`
}

// HandleConvert godoc
// @Summary Convert an amount between currencies
// @Description Converts amount from one currency to another using the latest stored rate (or its inverse). The result is rounded half-to-even to two decimal places.
// @Tags convert
// @Produce json
// @Param from query string true "Source currency code (3 letters)" minlength(3) maxlength(3)
// @Param to query string true "Target currency code (3 letters)" minlength(3) maxlength(3)
// @Param amount query string true "Decimal amount" example(67.85625)
// @Success 200 {object} ConvertResponse "Converted amount"
// @Failure 400 {object} ErrorResponse "Missing or malformed argument"
// @Failure 422 {object} ErrorResponse "No exchange rate for the pair"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /convert [get]
func HandleConvert(svc service.ConversionServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		res, err := svc.Convert(r.Context(), q.Get("from"), q.Get("to"), q.Get("amount"))
		if err != nil {
			switch {
			case errors.Is(err, converter.ErrInvalidArgument),
				errors.Is(err, service.ErrInvalidCurrencyCode),
				errors.Is(err, service.ErrInvalidAmount):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, converter.ErrUnknownRate):
				writeError(w, http.StatusUnprocessableEntity, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "Internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, ConvertResponse{
			From:   res.From,
			To:     res.To,
			Amount: res.Amount,
			Result: res.Result,
		})
	}
}
