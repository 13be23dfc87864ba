// Package server exposes the HTTP API for document submission and task polling.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/doc-parser/internal/async"
	"github.com/joseph-ayodele/doc-parser/internal/export"
	"github.com/joseph-ayodele/doc-parser/internal/ingest"
	"github.com/joseph-ayodele/doc-parser/internal/repository"
	"github.com/joseph-ayodele/doc-parser/internal/task"
)

type Server struct {
	addr   string
	logger *slog.Logger
	ingest *ingest.Service
	tasks  *task.Manager
	queue  async.Queue
	db     *repository.DB
	export *export.Service

	httpSrv *http.Server
}

func New(
	addr string,
	logger *slog.Logger,
	ingestSvc *ingest.Service,
	tasks *task.Manager,
	queue async.Queue,
	db *repository.DB,
	exportSvc *export.Service,
) *Server {
	s := &Server{
		addr:   addr,
		logger: logger,
		ingest: ingestSvc,
		tasks:  tasks,
		queue:  queue,
		db:     db,
		export: exportSvc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process-document", s.handleProcessDocument)
	mux.HandleFunc("GET /api/task/{id}", s.handleGetTask)
	mux.HandleFunc("POST /internal/process-document", s.handleInternalProcess)
	mux.HandleFunc("GET /api/document/{id}/export", s.handleExportDocument)
	mux.HandleFunc("GET /api/welcome", s.handleWelcome)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	handler := http.Handler(mux)
	handler = accessLog(logger, handler)
	handler = requestID(handler)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the configured routes. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return s.httpSrv.Shutdown(shutdownCtx)
}
