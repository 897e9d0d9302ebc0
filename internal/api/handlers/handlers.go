// Package handlers exposes the thin HTTP surface over the ingestion
// engine: uploading an exchange file, enqueueing an import, and reading
// job status. The engine itself stays transport-agnostic.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/statement-recon/internal/api/middleware"
	"github.com/dvloznov/statement-recon/internal/gcs"
	"github.com/dvloznov/statement-recon/internal/jobs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BatchesHandler handles exchange-file batch endpoints.
type BatchesHandler struct {
	publisher jobs.Publisher
	jobStore  jobs.JobStore
	bucket    string
	log       zerolog.Logger
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(publisher jobs.Publisher, jobStore jobs.JobStore, bucket string, log zerolog.Logger) *BatchesHandler {
	return &BatchesHandler{
		publisher: publisher,
		jobStore:  jobStore,
		bucket:    bucket,
		log:       log,
	}
}

// UploadBatch handles POST /api/batches/upload. The request body is the
// exchange file; it is stored in GCS and the resulting URI returned so the
// caller can enqueue an import for it.
func (h *BatchesHandler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "statement.csv"
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv"
	}

	objectName := fmt.Sprintf("uploads/%s/%s", time.Now().Format("2006/01/02"), uuid.NewString()+"-"+filename)

	uri, err := gcs.Upload(ctx, h.bucket, objectName, contentType, r.Body)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to upload batch file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	h.log.Info().Str("gcs_uri", uri).Msg("Batch file uploaded")

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"gcs_uri": uri,
		"status":  "uploaded",
	})
}

// EnqueueImport handles POST /api/batches/import.
func (h *BatchesHandler) EnqueueImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileURI  string `json:"file_uri"`
		WalletID string `json:"wallet_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FileURI == "" || req.WalletID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "file_uri and wallet_id are required")
		return
	}

	ctx := r.Context()

	job := &jobs.ImportBatchJob{
		FileURI:  req.FileURI,
		WalletID: req.WalletID,
	}

	if err := h.publisher.PublishImportBatch(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue import job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue import job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("file_uri", req.FileURI).Msg("Import job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}. A completed job carries the batch's
// SyncResult, including the alreadyImported flag for duplicate batches.
func (h *BatchesHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.jobStore.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *BatchesHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		WalletID: r.URL.Query().Get("wallet_id"),
		Status:   jobs.JobStatus(r.URL.Query().Get("status")),
	}

	list, err := h.jobStore.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}
