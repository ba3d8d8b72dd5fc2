package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"cryptoledger/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// errorKinds maps sentinel errors to a status and a fallback message, most specific first
var errorKinds = []struct {
	kind    error
	status  int
	message string
}{
	{service.ErrValidation, http.StatusBadRequest, "Invalid request"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{service.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{service.ErrNotFound, http.StatusNotFound, "Not found"},
	{service.ErrInsufficientFunds, http.StatusBadRequest, "Insufficient balance"},
	{service.ErrInvalidStateTransition, http.StatusBadRequest, "Invalid state transition"},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// writeError translates a service error into a JSON error response
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.kind) {
			continue
		}
		message := k.message
		var svcErr *service.Error
		if errors.As(err, &svcErr) {
			message = svcErr.Message
		}
		writeJSON(w, k.status, errorResponse{Error: message})
		return
	}

	log.WithFields(log.Fields{
		"method":    r.Method,
		"path":      r.URL.Path,
		"requestID": middleware.GetReqID(r.Context()),
		"error":     err,
	}).Error("Request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
}

// decodeBody reads a JSON request body into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return service.NewError(service.ErrValidation, "Invalid request body")
	}
	return nil
}

// pathID parses the {id} route parameter. A malformed id cannot name an
// existing record, so it is reported as notFound.
func pathID(r *http.Request, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, service.NewError(service.ErrNotFound, "%s", notFound)
	}
	return id, nil
}
