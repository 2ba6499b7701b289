package server

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docveil/docveil/internal/compliance"
	"github.com/docveil/docveil/internal/document"
	"github.com/docveil/docveil/internal/logger"
	"github.com/docveil/docveil/internal/pipeline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// multipartMemoryLimit is the in-memory spool threshold for multipart
// parsing; larger uploads go to disk. The total request size is capped
// separately by Storage.MaxUploadBytes via http.MaxBytesReader.
const multipartMemoryLimit = 32 << 20

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleInfo describes the service and its active configuration surface.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"service":        "docveil",
		"default_regime": s.config.Compliance.DefaultRegime,
		"strict_filter":  s.config.Compliance.StrictFilter,
		"ner_enabled":    s.config.Detection.NER.Enabled,
		"formats":        []string{"txt", "pdf", "docx", "json"},
		"regimes":        []string{"GDPR", "HIPAA", "DPDP"},
	}
	if s.hub != nil {
		info["active_subscribers"] = s.hub.ActiveSubscribers()
	}
	writeJSON(w, http.StatusOK, info)
}

// handleRedactSingle redacts one uploaded file and returns a zip holding
// the redacted output and its audit record.
func (s *Server) handleRedactSingle(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithRequestID(getRequestID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Storage.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeMultipartError(w, err)
		return
	}

	regime, ok := s.parseRegime(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	tempDir, err := os.MkdirTemp(s.config.Storage.WorkDir, "docveil-*")
	if err != nil {
		log.Error("Failed to create temp directory", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer os.RemoveAll(tempDir)

	inputPath, err := saveUpload(file, header.Filename, tempDir)
	if err != nil {
		if errors.Is(err, document.ErrUnsupportedFormat) {
			writeJSONError(w, http.StatusBadRequest, "Unsupported file type")
			return
		}
		log.Error("Failed to save upload", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	result := s.coordinator.Process(r.Context(), pipeline.Job{
		InputPath: inputPath,
		OutputDir: tempDir,
		Regime:    regime,
	})
	if result.Err != nil {
		log.Error("Processing failed", zap.String("file", header.Filename), zap.Error(result.Err))
		writeJSONError(w, http.StatusInternalServerError, "Processing failed")
		return
	}
	if result.NoFindings {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "No sensitive information detected",
		})
		return
	}

	s.serveResultZip(w, log, "redacted_result.zip", []zipItem{
		{entryName: "redacted_" + header.Filename, result: result},
	}, nil)
}

// handleRedactMultiple redacts a batch of uploads and returns one zip with
// every redacted file and audit record, plus a status.json manifest listing
// each upload's outcome. Unsupported and failed files are skipped; they
// never abort the batch.
func (s *Server) handleRedactMultiple(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithRequestID(getRequestID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Storage.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeMultipartError(w, err)
		return
	}

	regime, ok := s.parseRegime(w, r)
	if !ok {
		return
	}

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		writeJSONError(w, http.StatusBadRequest, "No files provided")
		return
	}

	tempDir, err := os.MkdirTemp(s.config.Storage.WorkDir, "docveil-*")
	if err != nil {
		log.Error("Failed to create temp directory", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer os.RemoveAll(tempDir)

	var jobs []pipeline.Job
	skipped := make([]fileStatus, 0, len(uploads))
	originals := make(map[string]string, len(uploads)) // staged path -> upload name
	for _, upload := range uploads {
		f, err := upload.Open()
		if err != nil {
			log.Warn("Failed to open upload", zap.String("file", upload.Filename), zap.Error(err))
			skipped = append(skipped, fileStatus{File: upload.Filename, Status: "failed", Error: "could not read upload"})
			continue
		}
		inputPath, err := saveUpload(f, upload.Filename, tempDir)
		f.Close()
		if err != nil {
			status := "failed"
			if errors.Is(err, document.ErrUnsupportedFormat) {
				status = "unsupported"
			}
			log.Warn("Skipping upload", zap.String("file", upload.Filename), zap.Error(err))
			skipped = append(skipped, fileStatus{File: upload.Filename, Status: status, Error: err.Error()})
			continue
		}
		originals[inputPath] = upload.Filename
		jobs = append(jobs, pipeline.Job{
			InputPath: inputPath,
			OutputDir: tempDir,
			Regime:    regime,
		})
	}
	if len(jobs) == 0 {
		writeJSONError(w, http.StatusBadRequest, "No supported files provided")
		return
	}

	batch := s.coordinator.ProcessBatch(r.Context(), jobs, s.config.Batch.Workers)
	if s.hub != nil {
		s.hub.PublishBatch(batch)
	}

	var items []zipItem
	statuses := make([]fileStatus, 0, len(uploads))
	for _, job := range jobs {
		name := originals[job.InputPath]
		fr := batch.Files[job.InputPath]
		switch {
		case fr == nil:
			statuses = append(statuses, fileStatus{File: name, Status: "failed", Error: "no result produced"})
		case fr.Err != nil:
			statuses = append(statuses, fileStatus{File: name, Status: "failed", Error: fr.Err.Error()})
		case fr.NoFindings:
			statuses = append(statuses, fileStatus{File: name, Status: "no_findings"})
		default:
			statuses = append(statuses, fileStatus{File: name, Status: "redacted"})
			items = append(items, zipItem{entryName: "redacted_" + name, result: fr})
		}
	}
	statuses = append(statuses, skipped...)

	if len(items) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "No sensitive information detected in any files",
			"files":   statuses,
		})
		return
	}

	s.serveResultZip(w, log, "redacted_batch.zip", items, statuses)
}

// parseRegime reads the complianceNum form value (1=GDPR, 2=HIPAA,
// 3=DPDP) and writes the error response itself when invalid.
func (s *Server) parseRegime(w http.ResponseWriter, r *http.Request) (compliance.Regime, bool) {
	regime, err := compliance.RegimeFromNumber(r.FormValue("complianceNum"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest,
			"Invalid compliance number. Use 1 (GDPR), 2 (HIPAA), or 3 (DPDP).")
		return "", false
	}
	return regime, true
}

// zipItem pairs a processed result with the archive entry name derived
// from the original upload filename.
type zipItem struct {
	entryName string
	result    *pipeline.FileResult
}

// fileStatus is one line of the batch outcome manifest.
type fileStatus struct {
	File   string `json:"file"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// serveResultZip streams a zip with redacted/ and audit_logs/ entries for
// each result and, when statuses are given, a status.json manifest.
func (s *Server) serveResultZip(w http.ResponseWriter, log *logger.Logger, name string, items []zipItem, statuses []fileStatus) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	zw := zip.NewWriter(w)
	if len(statuses) > 0 {
		if err := addManifestEntry(zw, statuses); err != nil {
			log.Error("Failed to add status manifest to archive", zap.Error(err))
			return
		}
	}
	for _, item := range items {
		if err := addZipEntry(zw, "redacted/"+item.entryName, item.result.OutputPath); err != nil {
			log.Error("Failed to add redacted file to archive", zap.Error(err))
			return
		}
		if fileExists(item.result.AuditPath) {
			if err := addZipEntry(zw, "audit_logs/"+filepath.Base(item.result.AuditPath), item.result.AuditPath); err != nil {
				log.Error("Failed to add audit record to archive", zap.Error(err))
				return
			}
		}
	}
	if err := zw.Close(); err != nil {
		log.Error("Failed to finalize archive", zap.Error(err))
	}
}

func addManifestEntry(zw *zip.Writer, statuses []fileStatus) error {
	body, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return err
	}
	dst, err := zw.Create("status.json")
	if err != nil {
		return err
	}
	_, err = dst.Write(body)
	return err
}

func addZipEntry(zw *zip.Writer, name, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

// saveUpload writes an uploaded file into dir under a random name that
// keeps the original extension, rejecting unsupported formats up front.
func saveUpload(src multipart.File, filename, dir string) (string, error) {
	if _, err := document.DetectFormat(filename); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(dir, uuid.NewString()+ext)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return path, nil
}

// writeMultipartError distinguishes an oversize request, rejected by
// http.MaxBytesReader, from a malformed one.
func writeMultipartError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit")
		return
	}
	writeJSONError(w, http.StatusBadRequest, "Invalid multipart request")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
