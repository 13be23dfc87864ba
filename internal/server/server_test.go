package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/doc-parser/constants"
	"github.com/joseph-ayodele/doc-parser/internal/async"
	"github.com/joseph-ayodele/doc-parser/internal/entity"
	"github.com/joseph-ayodele/doc-parser/internal/ingest"
	"github.com/joseph-ayodele/doc-parser/internal/repository"
	"github.com/joseph-ayodele/doc-parser/internal/storage"
	"github.com/joseph-ayodele/doc-parser/internal/task"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Shutdown(context.Context) {}

func newTestServer(t *testing.T) (*Server, *task.Manager, *recordingQueue) {
	srv, tasks, queue, _ := newTestServerWithDocs(t)
	return srv, tasks, queue
}

func newTestServerWithDocs(t *testing.T) (*Server, *task.Manager, *recordingQueue, repository.DocumentRepository) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(repository.SQLiteSchema); err != nil {
		t.Fatal(err)
	}

	logger := slog.Default()
	docs := repository.NewDocumentRepository(db, logger)
	tasks := task.NewManager(repository.NewTaskRepository(db, logger), logger)
	store, err := storage.NewFSStorage(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	queue := &recordingQueue{}
	ingestSvc := ingest.NewService(store, docs, tasks, queue, "documents", logger)

	srv := New("127.0.0.1:0", logger, ingestSvc, tasks, queue, nil, nil)
	return srv, tasks, queue, docs
}

func doRequest(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func multipartUpload(t *testing.T, fileName string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestWelcome(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/welcome", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["service"] != "doc-parser" {
		t.Errorf("service = %v", body["service"])
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestProcessDocumentAccepted(t *testing.T) {
	srv, _, queue := newTestServer(t)

	body, contentType := multipartUpload(t, "agreement.pdf", []byte("%PDF-1.7 test"), map[string]string{
		"client_id": "acme",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/process-document", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, srv, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	taskID, _ := resp["task_id"].(string)
	if taskID == "" {
		t.Fatal("missing task_id")
	}
	if resp["status"] != string(constants.TaskStatusPending) {
		t.Errorf("status = %v", resp["status"])
	}
	if len(queue.jobs) != 1 || queue.jobs[0].TaskID != taskID {
		t.Errorf("jobs = %+v", queue.jobs)
	}

	// the new task is pollable straight away
	rec = doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/task/"+taskID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("poll status = %d", rec.Code)
	}
	poll := decodeBody(t, rec)
	if poll["task_id"] != taskID || poll["status"] != string(constants.TaskStatusPending) {
		t.Errorf("poll = %v", poll)
	}
}

func TestProcessDocumentMissingFile(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("client_id", "acme")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/process-document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := doRequest(t, srv, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["detail"] != "missing file field" {
		t.Errorf("detail = %v", body["detail"])
	}
}

func TestProcessDocumentUnsupportedExtension(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "photo.png", []byte("not a document"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/process-document", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, srv, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestGetTaskCompletedIncludesResultColumns(t *testing.T) {
	srv, tasks, _, docs := newTestServerWithDocs(t)
	ctx := context.Background()

	docID, _, err := docs.UpsertByHash(ctx, &entity.Document{
		FileHash:   "abc123",
		FileName:   "contract.pdf",
		StorageKey: "documents/abc123.pdf",
	})
	if err != nil {
		t.Fatal(err)
	}
	extracted := []byte(`{"CustomerName":"Acme"}`)
	validation := []byte(`{"is_valid":true,"errors":[],"warnings":[]}`)
	if err := docs.SetExtraction(ctx, docID, extracted, validation); err != nil {
		t.Fatal(err)
	}

	tk := tasks.Create(ctx, nil, nil)
	if _, err := tasks.Update(ctx, tk.ID, constants.TaskStatusCompleted, task.UpdateFields{DocumentID: &docID}); err != nil {
		t.Fatal(err)
	}

	rec := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/task/"+tk.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != string(constants.TaskStatusCompleted) {
		t.Fatalf("status = %v", body["status"])
	}
	if body["document_id"] != float64(docID) {
		t.Errorf("document_id = %v", body["document_id"])
	}
	if body["storage_key"] != "documents/abc123.pdf" {
		t.Errorf("storage_key = %v", body["storage_key"])
	}
	result, ok := body["result"].(map[string]any)
	if !ok || result["CustomerName"] != "Acme" {
		t.Errorf("result = %v", body["result"])
	}
	vs, ok := body["validation_status"].(map[string]any)
	if !ok || vs["is_valid"] != true {
		t.Errorf("validation_status = %v", body["validation_status"])
	}
}

func TestGetTaskNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/task/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestInternalProcessValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, httptest.NewRequest(http.MethodPost, "/internal/process-document",
		strings.NewReader(`{"task_id":""}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty ids: status = %d", rec.Code)
	}

	rec = doRequest(t, srv, httptest.NewRequest(http.MethodPost, "/internal/process-document",
		strings.NewReader(`{"task_id":"missing","storage_key":"documents/x.pdf"}`)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown task: status = %d", rec.Code)
	}
}

func TestInternalProcessRequeues(t *testing.T) {
	srv, tasks, queue := newTestServer(t)

	tk := tasks.Create(context.Background(), nil, nil)
	payload := `{"task_id":"` + tk.ID + `","storage_key":"documents/abc.pdf","file_name":"abc.pdf"}`
	rec := doRequest(t, srv, httptest.NewRequest(http.MethodPost, "/internal/process-document",
		strings.NewReader(payload)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(queue.jobs) != 1 || queue.jobs[0].StorageKey != "documents/abc.pdf" {
		t.Errorf("jobs = %+v", queue.jobs)
	}

	rec = doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/task/"+tk.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("poll status = %d", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/welcome", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	rec := doRequest(t, srv, req)
	if got := rec.Header().Get("X-Request-ID"); got != "trace-123" {
		t.Errorf("X-Request-ID = %q", got)
	}

	rec = doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/welcome", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}
}
