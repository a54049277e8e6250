package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"thunder-text-core/internal/domain"

	"github.com/rs/zerolog"
)

// envelope is the uniform response shape for every JSON endpoint.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
		message = "internal server error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}

// statusFor maps the service error taxonomy onto HTTP statuses. This is the
// only place status codes are decided.
func statusFor(err error) (int, string) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, validation.Error()
	}

	var provider *domain.ProviderError
	if errors.As(err, &provider) {
		if provider.Auth {
			return http.StatusUnauthorized, provider.Error() + "; reconnect the platform to refresh credentials"
		}
		return http.StatusBadRequest, provider.Error()
	}

	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable, "provider is not configured on this server"
	case errors.Is(err, domain.ErrNotConnected):
		return http.StatusUnauthorized, "platform not connected; start the connect flow to authorize access"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	}
	return http.StatusInternalServerError, err.Error()
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewValidationError("body")
	}
	return nil
}

// shopFrom identifies the tenant from the X-Shop-Domain header, falling back
// to the shop query parameter for non-embedded callers.
func shopFrom(r *http.Request) string {
	if shop := r.Header.Get("X-Shop-Domain"); shop != "" {
		return shop
	}
	return r.URL.Query().Get("shop")
}
