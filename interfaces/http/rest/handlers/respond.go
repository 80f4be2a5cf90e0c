package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "agentmemory/pkg/errors"
)

// writeJSON writes data as a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError renders err as the documented {success:false,error,details?}
// envelope. AppErrors carry their own HTTP status and details; any other
// error is treated as an opaque internal failure per the propagation
// policy of only converting known error types, defaulting everything else
// to a generic 500.
func writeError(w http.ResponseWriter, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "internal server error",
		})
		return
	}

	body := map[string]interface{}{
		"success": false,
		"error":   appErr.Message,
	}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	writeJSON(w, appErr.HTTPStatus, body)
}
