package api

import (
	"net/http"

	"github.com/docuhash/docuhash/internal/server"
	"github.com/docuhash/docuhash/internal/version"
)

type HealthGetResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HealthHandler reports process liveness.
func HealthHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			writeJSON(w, srv.Logger, http.StatusOK, HealthGetResponse{
				Status:  "ok",
				Version: version.Version,
			})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
