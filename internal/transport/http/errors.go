package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/iliamunaev/storefront-mock/internal/apperr"
	"github.com/iliamunaev/storefront-mock/internal/model"
)

var (
	errProviderIDRequired = apperr.New("invalid_request", "providerId is required")
	errRouteNotFound      = apperr.New("not_found", "Route not found")
	errMethodNotAllowed   = apperr.New("method_not_allowed", "Method not allowed")
)

// writeError writes the error envelope for err with its mapped status.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), model.ErrorEnvelope{
		Error: model.ErrorPayload{
			Code:    apperr.Kind(err),
			Message: apperr.Message(err),
		},
	})
}

// writeJSON writes v as a JSON response with the given status code.
// The Content-Type is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
