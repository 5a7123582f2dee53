package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "hearth/pkg/domain-errors"
)

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into the JSON error envelope.
// Unrecognized errors map to a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	status := http.StatusInternalServerError
	code := string(dErrors.CodeInternal)
	if errors.As(err, &domainErr) {
		status = dErrors.ToHTTPStatus(domainErr.Code)
		code = string(domainErr.Code)
	}
	WriteJSON(w, status, map[string]string{"error": code})
}
