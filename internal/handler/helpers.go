package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
	"github.com/folioapp/folio/internal/server/middleware"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the standard {success:false, message} error envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, model.ErrorResponse{Success: false, Message: message})
}

// writeMessage acknowledges an operation that has no payload.
func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: message})
}

// writeValidationError reports field errors from ozzo-validation as a 400
// with one message per field. Any other error is reported as a bad request.
func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		fields[field] = ferr.Error()
	}
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
		Success: false,
		Message: "Validation failed",
		Errors:  fields,
	})
}

// readJSON decodes the request body as JSON into v. The body is limited to
// maxBodySize and closed after decoding regardless of success or failure.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
}

// writeStoreError maps store errors to responses. ErrNotFound becomes a 404
// carrying notFoundMsg; anything else is logged and reported as a 500
// without internal detail.
func writeStoreError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, config.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, config.ErrConflict):
		writeError(w, http.StatusConflict, "Resource already exists")
	default:
		logger.Error("store operation failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// queryBool extracts a boolean query parameter. Returns false if the parameter
// is missing or not "true"/"1".
func queryBool(r *http.Request, key string) bool {
	val := strings.ToLower(r.URL.Query().Get(key))
	return val == "true" || val == "1"
}

// queryString extracts a trimmed string query parameter.
func queryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
