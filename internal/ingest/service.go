// Package ingest accepts documents, deduplicates them by content hash, and
// queues new ones for extraction.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/doc-parser/constants"
	"github.com/joseph-ayodele/doc-parser/internal/async"
	"github.com/joseph-ayodele/doc-parser/internal/common"
	"github.com/joseph-ayodele/doc-parser/internal/entity"
	"github.com/joseph-ayodele/doc-parser/internal/repository"
	"github.com/joseph-ayodele/doc-parser/internal/storage"
	"github.com/joseph-ayodele/doc-parser/internal/task"
)

// SubmitRequest is one incoming document.
type SubmitRequest struct {
	FileName    string
	Content     io.Reader
	CallbackURL *string
	ClientID    *string
	// Force enqueues even when the hash is already known.
	Force bool
}

// SubmitResult reports what happened to a submission.
type SubmitResult struct {
	Task       *entity.Task
	Dedup      bool
	FileHash   string
	StorageKey string
	Message    string
}

type Service struct {
	store       storage.Storage
	docs        repository.DocumentRepository
	tasks       *task.Manager
	queue       async.Queue
	keyPrefix   string
	allowedExts map[string]struct{}
	logger      *slog.Logger
}

func NewService(
	store storage.Storage,
	docs repository.DocumentRepository,
	tasks *task.Manager,
	queue async.Queue,
	keyPrefix string,
	logger *slog.Logger,
) *Service {
	if keyPrefix == "" {
		keyPrefix = "documents"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		docs:        docs,
		tasks:       tasks,
		queue:       queue,
		keyPrefix:   keyPrefix,
		allowedExts: constants.AllowedExtensions,
		logger:      logger,
	}
}

func (s *Service) allowed(ext string) bool {
	_, ok := s.allowedExts[constants.NormalizeExt(ext)]
	return ok
}

// Submit hashes the document, short-circuits known content, and otherwise
// uploads it and queues a processing job. A dedup hit still creates a task so
// the client has something to poll; it completes immediately against the
// existing document.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	ext := filepath.Ext(req.FileName)
	if ext == "" || !s.allowed(ext) {
		return nil, fmt.Errorf("%w: unsupported or missing extension: %q", common.ErrInvalidInput, ext)
	}

	// Spool to a temp file so the content can be hashed and then uploaded
	// without holding it in memory.
	tmp, err := os.CreateTemp("", "ingest-*")
	if err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := io.Copy(tmp, req.Content); err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	hash, size, err := Fingerprint(tmp)
	if err != nil {
		return nil, err
	}
	storageKey := fmt.Sprintf("%s/%s.%s", s.keyPrefix, hash, constants.NormalizeExt(ext))

	if !req.Force {
		if existing, err := s.docs.GetByHash(ctx, hash); err == nil {
			return s.dedupHit(ctx, req, existing, hash)
		}
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := s.store.Upload(ctx, storageKey, tmp); err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	t := s.tasks.Create(ctx, req.CallbackURL, req.ClientID)
	job := async.Job{
		TaskID:      t.ID,
		StorageKey:  storageKey,
		FileHash:    hash,
		FileName:    req.FileName,
		FileSize:    size,
		SubmittedAt: time.Now().UTC(),
		TraceID:     common.RequestIDFromContext(ctx),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		msg := fmt.Sprintf("enqueue failed: %v", err)
		_, _ = s.tasks.Update(ctx, t.ID, constants.TaskStatusFailed, task.UpdateFields{Error: &msg})
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	s.logger.Info("ingest.accepted", "task_id", t.ID, "file_name", req.FileName,
		"file_hash", hash, "file_size", size)
	return &SubmitResult{
		Task:       t,
		FileHash:   hash,
		StorageKey: storageKey,
		Message:    "document queued for processing",
	}, nil
}

// dedupHit completes a fresh task immediately against the already-processed
// document.
func (s *Service) dedupHit(ctx context.Context, req SubmitRequest, doc *entity.Document, hash string) (*SubmitResult, error) {
	t := s.tasks.Create(ctx, req.CallbackURL, req.ClientID)
	updated, err := s.tasks.Update(ctx, t.ID, constants.TaskStatusCompleted, task.UpdateFields{DocumentID: &doc.ID})
	if err != nil {
		return nil, err
	}
	s.logger.Info("ingest.dedup_hit", "task_id", t.ID, "file_name", req.FileName,
		"file_hash", hash, "document_id", doc.ID)
	return &SubmitResult{
		Task:       updated,
		Dedup:      true,
		FileHash:   hash,
		StorageKey: doc.StorageKey,
		Message:    "document already processed",
	}, nil
}

// SubmitPath submits a file from the local filesystem. Used by the directory
// watcher.
func (s *Service) SubmitPath(ctx context.Context, path string) (*SubmitResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return s.Submit(ctx, SubmitRequest{
		FileName: filepath.Base(path),
		Content:  f,
	})
}
