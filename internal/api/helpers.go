package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/docuhash/docuhash/pkg/registry"
)

// decodeRequest decodes the JSON body of a request into v, rejecting
// unknown fields.
func decodeRequest(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseResourceIDFromURL parses a URL path with the format
// "/api/{apiPath}/{resourceID}" and returns the resource ID.
func parseResourceIDFromURL(url, apiPath string) (string, error) {
	// Remove API path from URL.
	url = strings.TrimPrefix(url, fmt.Sprintf("/api/%s", apiPath))

	// Remove empty entries and validate path.
	urlPath := strings.Split(url, "/")
	var resultPath []string
	for _, v := range urlPath {
		// Only append non-empty values, this removes any empty strings in the
		// slice.
		if v != "" {
			resultPath = append(resultPath, v)
		}
	}
	resultPathLen := len(resultPath)
	// Only allow 1 value to be set in the resultPath slice, the resource ID
	// itself.
	if resultPathLen > 1 {
		return "", fmt.Errorf("invalid URL path")
	}
	// If there are no entries in the resultPath slice, then there was no
	// resource ID set in the URL path. Return an empty string.
	if resultPathLen == 0 {
		return "", fmt.Errorf("no resource ID set in URL path")
	}

	return resultPath[0], nil
}

// errorResponse is the JSON body for rejected requests.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, log hclog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding response", "error", err)
	}
}

// writeError renders a clear, non-technical rejection message.
func writeError(w http.ResponseWriter, log hclog.Logger, status int, message string) {
	writeJSON(w, log, status, errorResponse{Success: false, Message: message})
}

// writeRegistryError maps registry error classes onto HTTP statuses.
// Invalid format and not-found are expected outcomes and render as clear
// rejections; anything else is a server-side failure.
func writeRegistryError(w http.ResponseWriter, log hclog.Logger, err error, code string) {
	switch {
	case registry.IsInvalidFormat(err):
		writeError(w, log, http.StatusBadRequest,
			"Invalid hash code format. Expected format: XX-XXXXXXXXXXXX (e.g., CM-A1B2C3D4E5F6) or a 6-character short code.")
	case registry.IsNotFound(err):
		writeError(w, log, http.StatusNotFound,
			"Hash code '"+code+"' not found in the registry.")
	default:
		log.Error("registry request failed", "error", err, "code", code)
		writeError(w, log, http.StatusInternalServerError, "Internal server error.")
	}
}
