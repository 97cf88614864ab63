package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"profile-service/middleware"
)

type JSONResponse map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched so that validation reports the missing fields.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		return middleware.NewAppError(http.StatusBadRequest, "Invalid request payload", err)
	}
	return nil
}

func identity(r *http.Request) (string, error) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return "", middleware.NewAppError(http.StatusUnauthorized, "No token, authorization denied", nil)
	}
	return id, nil
}
