package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
)

// errTokenInvalid is returned by parseAccessToken for any signature,
// expiry, or shape failure.
var errTokenInvalid = errors.New("httpapi: invalid token")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		return
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
