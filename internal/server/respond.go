package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goliatone/go-invoiceform/pkg/storage"
)

type errorResponse struct {
	Error    string           `json:"error"`
	Category storage.Category `json:"category,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

// writeStorageError answers with the status of the error category and the
// message shown to users.
func (s *Server) writeStorageError(w http.ResponseWriter, r *http.Request, err error, action string) {
	category := storage.CategoryOf(err)
	code := statusFor(category)
	if code >= http.StatusInternalServerError {
		s.logger.Error("storage failure", "action", action, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, code, errorResponse{Error: storage.UserMessage(err, action), Category: category})
}

func statusFor(category storage.Category) int {
	switch category {
	case storage.CategoryNotFound:
		return http.StatusNotFound
	case storage.CategoryExists:
		return http.StatusConflict
	case storage.CategoryQuota:
		return http.StatusRequestEntityTooLarge
	case storage.CategoryWrongPassword, storage.CategoryPasswordRequired:
		return http.StatusUnauthorized
	case storage.CategoryInvalidName:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errBody = errors.New("server: invalid request body")

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBody, err)
	}
	return nil
}
