package api

import (
	"fmt"
	"net/http"

	"github.com/docuhash/docuhash/internal/server"
	"github.com/docuhash/docuhash/pkg/registry"
)

// RegisterHandler registers a document's hash metadata in the store.
func RegisterHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := srv.Logger
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		switch r.Method {
		case "POST":
			req := registry.RegisterRequest{}
			if err := decodeRequest(r, &req); err != nil {
				log.Warn("error decoding request",
					append([]any{"error", err}, logArgs...)...)
				writeError(w, log, http.StatusBadRequest,
					fmt.Sprintf("Bad request: %q", err))
				return
			}

			result, err := srv.Service.Register(r.Context(), req)
			if err != nil {
				log.Error("error registering document",
					append([]any{"error", err}, logArgs...)...)
				writeError(w, log, http.StatusInternalServerError,
					"Internal server error.")
				return
			}

			status := http.StatusOK
			if !result.Success {
				status = http.StatusUnprocessableEntity
			}
			writeJSON(w, log, status, result)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
