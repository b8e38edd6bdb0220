package api

import (
	"net/http"

	"github.com/docuhash/docuhash/internal/server"
	"github.com/docuhash/docuhash/pkg/registry"
)

// minSearchQueryLength is the minimum number of characters accepted for a
// partial hash search.
const minSearchQueryLength = 3

type SearchGetResponse struct {
	Success bool                    `json:"success"`
	Query   string                  `json:"query"`
	Count   int                     `json:"count"`
	Results []registry.PartialMatch `json:"results"`
}

// SearchHandler searches stored documents by partial hash code match.
func SearchHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := srv.Logger

		switch r.Method {
		case "GET":
			q := r.URL.Query().Get("q")
			if len(q) < minSearchQueryLength {
				writeError(w, log, http.StatusBadRequest,
					"Query parameter 'q' must be at least 3 characters long.")
				return
			}

			results, err := srv.Service.SearchPartial(
				r.Context(), q, registry.DefaultSearchLimit)
			if err != nil {
				log.Error("error searching documents", "error", err, "query", q)
				writeError(w, log, http.StatusInternalServerError,
					"Internal server error.")
				return
			}
			if results == nil {
				results = []registry.PartialMatch{}
			}

			writeJSON(w, log, http.StatusOK, SearchGetResponse{
				Success: true,
				Query:   q,
				Count:   len(results),
				Results: results,
			})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
