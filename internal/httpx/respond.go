package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-threshing-market/internal/advisory"
	"github.com/ariefcatur/go-threshing-market/internal/kv"
	"github.com/ariefcatur/go-threshing-market/internal/market"
	"github.com/ariefcatur/go-threshing-market/internal/validate"
)

var (
	errUnknownSession = errors.New("unknown session")
	errFarmersOnly    = errors.New("only farmers can publish listings")
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, validate.ErrValidation), errors.Is(err, market.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrQuantityExceedsAvailability), errors.Is(err, market.ErrEmptyCart):
		return http.StatusConflict
	case errors.Is(err, market.ErrNoCurrentUser), errors.Is(err, errUnknownSession):
		return http.StatusUnauthorized
	case errors.Is(err, errFarmersOnly):
		return http.StatusForbidden
	case errors.Is(err, market.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, kv.ErrUnavailable), errors.Is(err, advisory.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, advisory.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &validate.Error{Field: "body", Reason: "is not valid json"}
	}
	return nil
}
