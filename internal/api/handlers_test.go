package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuhash/docuhash/internal/config"
	"github.com/docuhash/docuhash/internal/server"
	"github.com/docuhash/docuhash/pkg/registry"
	"github.com/docuhash/docuhash/pkg/registry/store/memstore"
)

// sha256 of "hello".
const helloDigest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func newTestServer(t *testing.T) server.Server {
	t.Helper()

	store := memstore.New()
	log := hclog.NewNullLogger()
	return server.Server{
		Config:  config.Default(),
		Store:   store,
		Service: registry.NewService(store, log),
		Logger:  log,
	}
}

// registerTestDocument stores a record with a known hash code and the
// content hash of "hello".
func registerTestDocument(t *testing.T, srv server.Server) {
	t.Helper()

	result, err := srv.Service.Register(context.Background(), registry.RegisterRequest{
		HashCode:       "CM-A1B2C3D4E5F6",
		OwnerNamespace: "test_app",
		ContentHash:    helloDigest,
		ClientName:     "Acme Corp",
		FileName:       "contract.pdf",
		FileSize:       5,
	})
	require.NoError(t, err)
	require.True(t, result.Success, result.Message)
}

func TestVerifyHandler(t *testing.T) {
	srv := newTestServer(t)
	registerTestDocument(t, srv)
	handler := VerifyHandler(srv)

	t.Run("FullCode", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/verify/CM-A1B2C3D4E5F6", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp VerifyGetResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "Document found and verified", resp.Message)
		require.NotNil(t, resp.Metadata)
		assert.Equal(t, "CM-A1B2C3D4E5F6", resp.Metadata.HashInfo.HashCode.String())
		assert.Equal(t, "Acme Corp", resp.Metadata.UserInfo.ClientName)
	})

	t.Run("ShortCode", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/verify/ABCDEF", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp VerifyGetResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Metadata)
		assert.Equal(t, "CM-A1B2C3D4E5F6", resp.Metadata.HashInfo.HashCode.String())
	})

	t.Run("LowercaseInput", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/verify/cm-a1b2c3d4e5f6", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/verify/not-a-code", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid hash code format")
	})

	t.Run("NotFound", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/verify/ZZ-000000000000", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not found in the registry")
	})

	t.Run("MissingCode", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/verify/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/api/verify/CM-A1B2C3D4E5F6", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

// multipartUpload builds a multipart body with a single file field.
func multipartUpload(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "upload.pdf")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestIntegrityHandler(t *testing.T) {
	srv := newTestServer(t)
	registerTestDocument(t, srv)
	handler := IntegrityHandler(srv)

	t.Run("Authentic", func(t *testing.T) {
		body, contentType := multipartUpload(t, []byte("hello"))
		req := httptest.NewRequest(
			"POST", "/api/verify/integrity?hash_code=CM-A1B2C3D4E5F6", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp registry.IntegrityResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Valid)
		assert.Equal(t, helloDigest, resp.CalculatedHash)
		assert.Equal(t, helloDigest, resp.StoredHash)
	})

	t.Run("Modified", func(t *testing.T) {
		body, contentType := multipartUpload(t, []byte("tampered"))
		req := httptest.NewRequest(
			"POST", "/api/verify/integrity?hash_code=CM-A1B2C3D4E5F6", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp registry.IntegrityResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Valid)
		assert.NotEqual(t, resp.StoredHash, resp.CalculatedHash)
	})

	t.Run("EmptyFile", func(t *testing.T) {
		body, contentType := multipartUpload(t, nil)
		req := httptest.NewRequest(
			"POST", "/api/verify/integrity?hash_code=CM-A1B2C3D4E5F6", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Empty file")
	})

	t.Run("MissingHashCode", func(t *testing.T) {
		body, contentType := multipartUpload(t, []byte("hello"))
		req := httptest.NewRequest("POST", "/api/verify/integrity", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnknownHashCode", func(t *testing.T) {
		body, contentType := multipartUpload(t, []byte("hello"))
		req := httptest.NewRequest(
			"POST", "/api/verify/integrity?hash_code=ZZ-000000000000", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSearchHandler(t *testing.T) {
	srv := newTestServer(t)
	registerTestDocument(t, srv)
	handler := SearchHandler(srv)

	t.Run("Match", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/search?q=A1B2", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp SearchGetResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "A1B2", resp.Query)
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "CM-A1B2C3D4E5F6", resp.Results[0].HashCode)
	})

	t.Run("NoMatch", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/search?q=XYZ999", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp SearchGetResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.Count)
		assert.NotNil(t, resp.Results)
	})

	t.Run("QueryTooShort", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/search?q=A1", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "at least 3 characters")
	})
}

func TestStatsHandler(t *testing.T) {
	srv := newTestServer(t)
	registerTestDocument(t, srv)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()

	StatsHandler(srv).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp registry.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalDocuments)
	assert.Equal(t, 1, resp.ByUser["test_app"])
	require.Len(t, resp.RecentDocuments, 1)
	assert.Equal(t, "CM-A1B2C3D4E5F6", resp.RecentDocuments[0].HashCode)
}

func TestDocumentTypesHandler(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/document-types", nil)
	w := httptest.NewRecorder()

	DocumentTypesHandler(srv).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp DocumentTypesGetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Types, 5)
	assert.Equal(t, "carta_manifestacion", resp.Types["CM"].Code)
}

func TestRegisterHandler(t *testing.T) {
	t.Run("GeneratedCode", func(t *testing.T) {
		srv := newTestServer(t)
		body := `{"type_prefix": "IA", "owner_namespace": "audit_app", "client_name": "Acme Corp"}`
		req := httptest.NewRequest(
			"POST", "/api/register", strings.NewReader(body))
		w := httptest.NewRecorder()

		RegisterHandler(srv).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp registry.RegistrationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Regexp(t, `^IA-[A-Z0-9]{12}$`, resp.HashCode)
		assert.Len(t, resp.ShortCode, 6)
	})

	t.Run("MissingNamespace", func(t *testing.T) {
		srv := newTestServer(t)
		body := `{"type_prefix": "IA"}`
		req := httptest.NewRequest(
			"POST", "/api/register", strings.NewReader(body))
		w := httptest.NewRecorder()

		RegisterHandler(srv).ServeHTTP(w, req)

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp registry.RegistrationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
	})

	t.Run("Duplicate", func(t *testing.T) {
		srv := newTestServer(t)
		registerTestDocument(t, srv)
		body := `{"hash_code": "CM-A1B2C3D4E5F6", "owner_namespace": "other_app"}`
		req := httptest.NewRequest(
			"POST", "/api/register", strings.NewReader(body))
		w := httptest.NewRecorder()

		RegisterHandler(srv).ServeHTTP(w, req)

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp registry.RegistrationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		srv := newTestServer(t)
		req := httptest.NewRequest(
			"POST", "/api/register", strings.NewReader("{nope"))
		w := httptest.NewRecorder()

		RegisterHandler(srv).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	HealthHandler(srv).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthGetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}
