package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/doc-parser/constants"
	"github.com/joseph-ayodele/doc-parser/internal/async"
	"github.com/joseph-ayodele/doc-parser/internal/common"
	"github.com/joseph-ayodele/doc-parser/internal/ingest"
)

// maxUploadBytes caps multipart uploads at 50 MiB.
const maxUploadBytes = 50 << 20

type processResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	FileHash string `json:"file_hash,omitempty"`
}

type taskResponse struct {
	TaskID           string          `json:"task_id"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Error            *string         `json:"error,omitempty"`
	FileName         *string         `json:"file_name,omitempty"`
	DocumentID       *int64          `json:"document_id,omitempty"`
	StorageKey       *string         `json:"storage_key,omitempty"`
	Result           json.RawMessage `json:"result,omitempty"`
	ValidationStatus json.RawMessage `json:"validation_status,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

// handleProcessDocument accepts a multipart upload and queues it for
// extraction. Known content completes immediately.
func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.WriteJSONError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		common.WriteJSONError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	req := ingest.SubmitRequest{
		FileName: header.Filename,
		Content:  file,
	}
	if v := strings.TrimSpace(r.FormValue("callback_url")); v != "" {
		req.CallbackURL = &v
	}
	if v := strings.TrimSpace(r.FormValue("client_id")); v != "" {
		req.ClientID = &v
	}

	result, err := s.ingest.Submit(r.Context(), req)
	if err != nil {
		s.logger.Error("http.process_document_failed", "file_name", header.Filename, "error", err)
		common.WriteJSONError(w, common.StatusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, processResponse{
		TaskID:   result.Task.ID,
		Status:   string(result.Task.Status),
		Message:  result.Message,
		FileHash: result.FileHash,
	})
}

// handleGetTask reports task status, including the stored extraction result
// once the task completes.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		common.WriteJSONError(w, http.StatusBadRequest, "missing task id")
		return
	}

	view, err := s.tasks.GetView(r.Context(), id)
	if err != nil {
		common.WriteJSONError(w, common.StatusForError(err), "task not found")
		return
	}

	resp := taskResponse{
		TaskID:    view.ID,
		Status:    string(view.Status),
		CreatedAt: view.CreatedAt,
		UpdatedAt: view.UpdatedAt,
		Error:     view.Error,
		FileName:  view.FileName,
	}
	if view.Status == constants.TaskStatusCompleted {
		resp.DocumentID = view.DocumentID
		resp.StorageKey = view.StorageKey
		if len(view.ExtractedData) > 0 {
			resp.Result = view.ExtractedData
		}
		if len(view.ValidationStatus) > 0 {
			resp.ValidationStatus = view.ValidationStatus
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type internalProcessRequest struct {
	TaskID     string `json:"task_id"`
	StorageKey string `json:"storage_key"`
	FileHash   string `json:"file_hash"`
	FileName   string `json:"file_name"`
	FileSize   int64  `json:"file_size"`
}

// handleInternalProcess re-queues an already-stored document. Used by
// operators to replay a job without re-uploading the file.
func (s *Server) handleInternalProcess(w http.ResponseWriter, r *http.Request) {
	var req internalProcessRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		common.WriteJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.TaskID == "" || req.StorageKey == "" {
		common.WriteJSONError(w, http.StatusBadRequest, "task_id and storage_key are required")
		return
	}

	if _, err := s.tasks.Get(r.Context(), req.TaskID); err != nil {
		common.WriteJSONError(w, common.StatusForError(err), "task not found")
		return
	}

	err := s.queue.Enqueue(r.Context(), async.Job{
		TaskID:      req.TaskID,
		StorageKey:  req.StorageKey,
		FileHash:    req.FileHash,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		SubmittedAt: time.Now().UTC(),
		TraceID:     common.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		s.logger.Error("http.internal_process_failed", "task_id", req.TaskID, "error", err)
		common.WriteJSONError(w, http.StatusInternalServerError, "failed to queue job")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": req.TaskID, "status": "queued"})
}

// handleExportDocument streams the extraction result as an XLSX workbook.
func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		common.WriteJSONError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	data, err := s.export.ExportResultXLSX(r.Context(), id)
	if err != nil {
		common.WriteJSONError(w, common.StatusForError(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=document-%d.xlsx", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleWelcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "doc-parser",
		"message": "upload documents to /api/process-document and poll /api/task/{id}",
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context(), 2*time.Second); err != nil {
			s.logger.Error("http.healthz_db_failed", "error", err)
			common.WriteJSONError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
