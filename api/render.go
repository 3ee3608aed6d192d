package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"compendium/catalog-relay/gateway"
	"compendium/catalog-relay/logger"
	"compendium/catalog-relay/normalize"
)

// ErrorResponse is the body of errors produced by the relay itself.
// Upstream errors are passed through untouched instead.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func renderJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write response", "err", err)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string, details ...string) {
	renderJSON(w, r, status, &ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Details: details,
	})
}

// renderFailure maps a failed catalog call onto the REST response.
func renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var upstream *gateway.UpstreamError
	switch {
	case errors.As(err, &upstream):
		log.Warn("Passing through catalog error", "status", upstream.Status)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(upstream.Status)
		if _, err := w.Write([]byte(upstream.Body)); err != nil {
			log.Error("Failed to write response", "err", err)
		}
	case errors.Is(err, ErrBadRequest):
		renderError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrUpstreamUnavailable),
		errors.Is(err, gateway.ErrMalformedResponse),
		errors.Is(err, normalize.ErrMalformed),
		errors.Is(err, normalize.ErrNoData):
		log.Error("Catalog request failed", "err", err)
		renderError(w, r, http.StatusBadGateway, err.Error())
	default:
		log.Error("Request failed", "err", err)
		renderError(w, r, http.StatusInternalServerError, err.Error())
	}
}
