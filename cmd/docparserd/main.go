package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/doc-parser/internal/async"
	"github.com/joseph-ayodele/doc-parser/internal/callback"
	"github.com/joseph-ayodele/doc-parser/internal/common"
	"github.com/joseph-ayodele/doc-parser/internal/entity"
	"github.com/joseph-ayodele/doc-parser/internal/export"
	"github.com/joseph-ayodele/doc-parser/internal/ingest"
	"github.com/joseph-ayodele/doc-parser/internal/llm/openai"
	"github.com/joseph-ayodele/doc-parser/internal/ocr"
	"github.com/joseph-ayodele/doc-parser/internal/pipeline"
	"github.com/joseph-ayodele/doc-parser/internal/repository"
	"github.com/joseph-ayodele/doc-parser/internal/server"
	"github.com/joseph-ayodele/doc-parser/internal/storage"
	"github.com/joseph-ayodele/doc-parser/internal/task"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx, 3*time.Second); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	if err := repository.Migrate(ctx, db.SQL); err != nil {
		logger.Error("applying schema", "error", err)
		os.Exit(1)
	}

	docsRepo := repository.NewDocumentRepository(db.SQL, logger)
	tasksRepo := repository.NewTaskRepository(db.SQL, logger)

	var store storage.Storage
	if cfg.Storage.Bucket != "" {
		gcsStore, err := storage.NewGCSStorage(ctx, cfg.Storage.Bucket, cfg.Storage.KeyPrefix, logger)
		if err != nil {
			logger.Error("opening bucket", "bucket", cfg.Storage.Bucket, "error", err)
			os.Exit(1)
		}
		store = gcsStore
	} else {
		fsStore, err := storage.NewFSStorage(cfg.Storage.LocalDir, cfg.Storage.BaseURL)
		if err != nil {
			logger.Error("opening local storage", "dir", cfg.Storage.LocalDir, "error", err)
			os.Exit(1)
		}
		store = fsStore
	}

	tasks := task.NewManager(tasksRepo, logger)

	dispatcher := callback.NewDispatcher(cfg.Callback.Timeout, logger)
	tasks.OnTerminal(func(t entity.Task) {
		if t.CallbackURL == nil || *t.CallbackURL == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Callback.Timeout)
		defer cancel()
		dispatcher.Deliver(ctx, *t.CallbackURL, buildCallbackPayload(ctx, t, docsRepo, store))
	})

	ocrExtractor := ocr.NewExtractor(ocr.Config{
		Pdftotext: cfg.OCR.Pdftotext,
		Pdftoppm:  cfg.OCR.Pdftoppm,
		Tesseract: cfg.OCR.Tesseract,
		DPI:       cfg.OCR.DPI,
		MaxPages:  cfg.OCR.MaxPages,
	}, logger)

	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		RatePerMin:  cfg.LLM.RatePerMin,
	}, logger)

	proc := pipeline.NewProcessor(logger, store, tasks, docsRepo, llmClient, ocrExtractor, "")

	var queue async.Queue
	if cfg.Queue.RedisAddr != "" {
		queue, err = async.NewStreamsQueue(ctx, async.StreamsConfig{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
			Stream:   cfg.Queue.Stream,
			Group:    cfg.Queue.Group,
			Consumer: cfg.Queue.Consumer,
			Workers:  cfg.Queue.Workers,
			Timeout:  cfg.Queue.ProcessTimeout,
		}, proc, logger)
		if err != nil {
			logger.Error("starting redis queue", "error", err)
			os.Exit(1)
		}
	} else {
		queue = async.NewProcessorQueue(proc, logger,
			async.WithWorkers(cfg.Queue.Workers),
			async.WithQueueSize(cfg.Queue.Size),
			async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		)
	}

	ingestSvc := ingest.NewService(store, docsRepo, tasks, queue, cfg.Storage.KeyPrefix, logger)
	exportSvc := export.NewService(docsRepo, logger)

	if watchDir := os.Getenv("WATCH_DIR"); watchDir != "" {
		go func() {
			err := ingestSvc.RunWatcher(ctx, ingest.WatchConfig{
				Roots:       []string{watchDir},
				InitialScan: true,
				Debounce:    2 * time.Second,
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("directory watcher stopped", "error", err)
			}
		}()
	}

	srv := server.New(cfg.Server.HTTPAddr, logger, ingestSvc, tasks, queue, db, exportSvc)
	if err := srv.Run(ctx); err != nil {
		logger.Error("http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

// buildCallbackPayload shapes the notification body for a terminal task.
func buildCallbackPayload(ctx context.Context, t entity.Task, docs repository.DocumentRepository, store storage.Storage) any {
	if t.Error != nil {
		return callback.FailedPayload(t.ID, *t.Error)
	}

	extracted := map[string]any{}
	fileName, storageURL := "", ""
	if t.DocumentID != nil {
		if doc, err := docs.GetByID(ctx, *t.DocumentID); err == nil {
			fileName = doc.FileName
			storageURL = store.PublicURL(doc.StorageKey)
			var stored struct {
				ExtractedData map[string]any `json:"extracted_data"`
			}
			if len(doc.ExtractedData) > 0 {
				_ = json.Unmarshal(doc.ExtractedData, &stored)
				if stored.ExtractedData != nil {
					extracted = stored.ExtractedData
				}
			}
		}
	}
	return callback.CompletedPayload(t.ID, extracted, fileName, storageURL, t.ClientID)
}
