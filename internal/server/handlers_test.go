package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docveil/docveil/internal/advisory"
	"github.com/docveil/docveil/internal/audit"
	"github.com/docveil/docveil/internal/config"
	"github.com/docveil/docveil/internal/logger"
	"github.com/docveil/docveil/internal/pii"
	"github.com/docveil/docveil/internal/pipeline"
	"github.com/docveil/docveil/internal/redact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	log := &logger.Logger{Logger: zap.NewNop()}

	matcher, err := pii.NewMatcher([]string{"all"}, log)
	require.NoError(t, err)
	advisor, err := advisory.New(config.AdvisoryConfig{Enabled: false}, log)
	require.NoError(t, err)

	coordinator, err := pipeline.NewCoordinator(pipeline.Options{
		Matcher:    matcher,
		TextEngine: redact.NewTextEngine(log),
		Advisor:    advisor,
		AuditStore: audit.NewFileStore(filepath.Join(t.TempDir(), "audit_logs"), log),
	}, log)
	require.NoError(t, err)

	cfg := config.GetDefaults()
	cfg.Storage.WorkDir = t.TempDir()
	cfg.Events.Enabled = false

	return New(cfg, coordinator, nil, nil, log)
}

// multipartBody builds a multipart request body with one or more file
// parts under field and a complianceNum value.
func multipartBody(t *testing.T, field, complianceNum string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if complianceNum != "" {
		require.NoError(t, w.WriteField("complianceNum", complianceNum))
	}
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthAndInfo(t *testing.T) {
	srv := testServer(t)

	t.Run("Health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "healthy")
	})

	t.Run("Info", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/info", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		var info map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, "docveil", info["service"])
	})
}

func TestRedactSingle(t *testing.T) {
	srv := testServer(t)

	t.Run("InvalidComplianceNum", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", "7", map[string]string{"a.txt": "text"})
		req := httptest.NewRequest("POST", "/redact/single", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid compliance number")
	})

	t.Run("MissingFile", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", "1", nil)
		req := httptest.NewRequest("POST", "/redact/single", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnsupportedExtension", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", "1", map[string]string{"cat.gif": "gif89a"})
		req := httptest.NewRequest("POST", "/redact/single", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("NoFindings", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", "1", map[string]string{
			"clean.txt": "Quarterly planning notes, nothing personal.",
		})
		req := httptest.NewRequest("POST", "/redact/single", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "No sensitive information detected")

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotContains(t, resp, "audit_log")
	})

	t.Run("UploadTooLarge", func(t *testing.T) {
		small := testServer(t)
		small.config.Storage.MaxUploadBytes = 128

		body, contentType := multipartBody(t, "file", "1", map[string]string{
			"big.txt": strings.Repeat("x", 4096),
		})
		req := httptest.NewRequest("POST", "/redact/single", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		small.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("ReturnsZipWithRedactedAndAudit", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", "2", map[string]string{
			"pii.txt": "Bill to a@b.com, SSN 123-45-6789.",
		})
		req := httptest.NewRequest("POST", "/redact/single", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

		zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		require.NoError(t, err)

		var sawRedacted, sawAudit bool
		for _, f := range zr.File {
			switch {
			case strings.HasPrefix(f.Name, "redacted/"):
				sawRedacted = true
				assert.Equal(t, "redacted/redacted_pii.txt", f.Name)
				r, err := f.Open()
				require.NoError(t, err)
				content, err := io.ReadAll(r)
				r.Close()
				require.NoError(t, err)
				assert.NotContains(t, string(content), "a@b.com")
				assert.Contains(t, string(content), "[REDACTED_EMAIL]")
			case strings.HasPrefix(f.Name, "audit_logs/"):
				sawAudit = true
			}
		}
		assert.True(t, sawRedacted, "zip should contain a redacted/ entry")
		assert.True(t, sawAudit, "zip should contain an audit_logs/ entry")
	})
}

func TestRedactMultiple(t *testing.T) {
	srv := testServer(t)

	t.Run("NoFilesProvided", func(t *testing.T) {
		body, contentType := multipartBody(t, "files", "1", nil)
		req := httptest.NewRequest("POST", "/redact/multiple", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MixedBatchSkipsUnsupported", func(t *testing.T) {
		body, contentType := multipartBody(t, "files", "3", map[string]string{
			"one.txt":   "Reach ops at ops@example.com today.",
			"two.txt":   "Server 10.0.0.1 rotated.",
			"skip.tiff": "not supported",
		})
		req := httptest.NewRequest("POST", "/redact/multiple", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

		zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		require.NoError(t, err)

		redactedCount := 0
		var manifest []map[string]string
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, "redacted/") {
				redactedCount++
			}
			if f.Name == "status.json" {
				r, err := f.Open()
				require.NoError(t, err)
				require.NoError(t, json.NewDecoder(r).Decode(&manifest))
				r.Close()
			}
		}
		assert.Equal(t, 2, redactedCount)

		require.NotNil(t, manifest, "zip should contain a status.json manifest")
		statuses := make(map[string]string, len(manifest))
		for _, entry := range manifest {
			statuses[entry["file"]] = entry["status"]
		}
		assert.Equal(t, "redacted", statuses["one.txt"])
		assert.Equal(t, "redacted", statuses["two.txt"])
		assert.Equal(t, "unsupported", statuses["skip.tiff"])
	})

	t.Run("AllClean", func(t *testing.T) {
		body, contentType := multipartBody(t, "files", "1", map[string]string{
			"a.txt": "Nothing here.",
			"b.txt": "Or here.",
		})
		req := httptest.NewRequest("POST", "/redact/multiple", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "No sensitive information detected in any files")

		var resp struct {
			Files []map[string]string `json:"files"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Files, 2)
		for _, entry := range resp.Files {
			assert.Equal(t, "no_findings", entry["status"])
		}
	})
}
