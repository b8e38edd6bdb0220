package api

import (
	"io"
	"net/http"

	"github.com/docuhash/docuhash/internal/server"
	"github.com/docuhash/docuhash/pkg/registry"
)

// maxUploadBytes caps the size of documents accepted for integrity checks.
const maxUploadBytes = 64 << 20

type VerifyGetResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Metadata *registry.Record `json:"metadata,omitempty"`
}

// VerifyHandler looks up a full hash code or a 6-character short code and
// returns the stored document metadata.
func VerifyHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := srv.Logger
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		switch r.Method {
		case "GET":
			code, err := parseResourceIDFromURL(r.URL.Path, "verify")
			if err != nil {
				log.Warn("missing hash code in URL path", logArgs...)
				writeError(w, log, http.StatusBadRequest,
					"Missing hash code in URL path.")
				return
			}

			rec, err := srv.Service.Resolve(r.Context(), code)
			if err != nil {
				writeRegistryError(w, log, err, code)
				return
			}

			writeJSON(w, log, http.StatusOK, VerifyGetResponse{
				Success:  true,
				Message:  "Document found and verified",
				Metadata: rec,
			})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// IntegrityHandler receives a document upload plus a hash code and reports
// whether the document's digest matches the one registered for that code.
func IntegrityHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := srv.Logger
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		switch r.Method {
		case "POST":
			code := r.URL.Query().Get("hash_code")
			if code == "" {
				writeError(w, log, http.StatusBadRequest,
					"Missing required 'hash_code' query parameter.")
				return
			}

			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				log.Warn("error parsing multipart form",
					append([]any{"error", err}, logArgs...)...)
				writeError(w, log, http.StatusBadRequest,
					"Expected a multipart form with a 'file' field.")
				return
			}
			file, _, err := r.FormFile("file")
			if err != nil {
				writeError(w, log, http.StatusBadRequest,
					"Expected a multipart form with a 'file' field.")
				return
			}
			defer file.Close()

			content, err := io.ReadAll(file)
			if err != nil {
				log.Error("error reading uploaded file",
					append([]any{"error", err}, logArgs...)...)
				writeError(w, log, http.StatusInternalServerError,
					"Error reading uploaded file.")
				return
			}
			if len(content) == 0 {
				writeError(w, log, http.StatusBadRequest, "Empty file provided.")
				return
			}

			result, err := srv.Service.VerifyIntegrity(r.Context(), code, content)
			if err != nil {
				writeRegistryError(w, log, err, code)
				return
			}

			writeJSON(w, log, http.StatusOK, result)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
