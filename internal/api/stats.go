package api

import (
	"net/http"

	"github.com/docuhash/docuhash/internal/server"
	"github.com/docuhash/docuhash/pkg/hashcode"
)

// StatsHandler reports aggregate counts over the stored documents.
func StatsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := srv.Logger

		switch r.Method {
		case "GET":
			stats, err := srv.Service.Stats(r.Context())
			if err != nil {
				log.Error("error collecting statistics", "error", err)
				writeError(w, log, http.StatusInternalServerError,
					"Internal server error.")
				return
			}
			writeJSON(w, log, http.StatusOK, stats)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

type DocumentTypesGetResponse struct {
	Success bool                             `json:"success"`
	Types   map[string]DocumentTypesGetEntry `json:"types"`
}

type DocumentTypesGetEntry struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}

// DocumentTypesHandler returns the document type catalog keyed by hash code
// prefix.
func DocumentTypesHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := srv.Logger

		switch r.Method {
		case "GET":
			types := make(map[string]DocumentTypesGetEntry)
			for _, t := range hashcode.DocumentTypes() {
				types[t.Prefix] = DocumentTypesGetEntry{
					Code:    t.Code,
					Display: t.Display,
				}
			}
			writeJSON(w, log, http.StatusOK, DocumentTypesGetResponse{
				Success: true,
				Types:   types,
			})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
