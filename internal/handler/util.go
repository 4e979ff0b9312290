package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/capitalize-ai/prospecting-platform/internal/middleware"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeFieldErrors writes a 400 with per-field detail.
func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}

// decodeJSON reads a JSON body into v and runs struct validation.
// It writes the 400 response itself and reports whether the caller may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, errInvalidBody.Error())
		return false
	}
	if err := middleware.Validate(v); err != nil {
		if fields := middleware.FieldErrors(err); fields != nil {
			writeFieldErrors(w, fields)
			return false
		}
		writeError(w, http.StatusBadRequest, errInvalidBody.Error())
		return false
	}
	return true
}

// pathID parses the {name} URL param, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := middleware.ParseID(urlParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}
