// Package pipeline runs the document extraction flow for one queued job.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/doc-parser/constants"
	"github.com/joseph-ayodele/doc-parser/internal/async"
	"github.com/joseph-ayodele/doc-parser/internal/citations"
	"github.com/joseph-ayodele/doc-parser/internal/common"
	"github.com/joseph-ayodele/doc-parser/internal/entity"
	"github.com/joseph-ayodele/doc-parser/internal/llm"
	"github.com/joseph-ayodele/doc-parser/internal/ocr"
	"github.com/joseph-ayodele/doc-parser/internal/reader"
	"github.com/joseph-ayodele/doc-parser/internal/repository"
	"github.com/joseph-ayodele/doc-parser/internal/storage"
	"github.com/joseph-ayodele/doc-parser/internal/task"
	"github.com/joseph-ayodele/doc-parser/internal/validation"
)

// Result is what one pipeline run produces for a document.
type Result struct {
	DocType          constants.DocType   `json:"doc_type"`
	ExtractedData    map[string]any      `json:"extracted_data"`
	ValidationStatus validation.Result   `json:"validation_status"`
	Citations        citations.Aggregate `json:"citations"`
}

// Processor coordinates download, classification, content extraction, LLM
// parse, citation aggregation, validation, and persistence for one job.
type Processor struct {
	logger       *slog.Logger
	store        storage.Storage
	tasks        *task.Manager
	docs         repository.DocumentRepository
	llmExtractor llm.Extractor
	ocrExtractor *ocr.Extractor
	workDir      string
}

func NewProcessor(
	logger *slog.Logger,
	store storage.Storage,
	tasks *task.Manager,
	docs repository.DocumentRepository,
	llmExtractor llm.Extractor,
	ocrExtractor *ocr.Extractor,
	workDir string,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Processor{
		logger:       logger,
		store:        store,
		tasks:        tasks,
		docs:         docs,
		llmExtractor: llmExtractor,
		ocrExtractor: ocrExtractor,
		workDir:      workDir,
	}
}

// Process runs the extraction flow for one job. Any failure marks the task
// FAILED with the error message; the error is also returned for logging.
func (p *Processor) Process(ctx context.Context, job async.Job) error {
	ctx = common.WithTaskID(ctx, job.TaskID)
	start := time.Now()

	result, err := p.run(ctx, job)
	if err != nil {
		p.logger.Error("pipeline.failed", "task_id", job.TaskID, "file_name", job.FileName,
			"error", err, "elapsed_ms", time.Since(start).Milliseconds())
		msg := err.Error()
		if _, updErr := p.tasks.Update(ctx, job.TaskID, constants.TaskStatusFailed, task.UpdateFields{Error: &msg}); updErr != nil {
			p.logger.Error("pipeline.fail_status_update_failed", "task_id", job.TaskID, "error", updErr)
		}
		return err
	}

	p.logger.Info("pipeline.completed", "task_id", job.TaskID, "file_name", job.FileName,
		"doc_type", result.DocType, "fields", len(result.ExtractedData),
		"citation_coverage", result.Citations.SourceSummary.CitationCoverage,
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

func (p *Processor) run(ctx context.Context, job async.Job) (*Result, error) {
	localPath, cleanup, err := p.download(ctx, job)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if _, err := p.tasks.Update(ctx, job.TaskID, constants.TaskStatusProcessing, task.UpdateFields{}); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	docType := reader.Classify(localPath)
	if docType == constants.DocTypeUnknown {
		return nil, fmt.Errorf("%w: unrecognized document type for %s", common.ErrUnsupported, job.FileName)
	}

	rd, err := reader.ForDocument(docType, localPath, p.ocrExtractor, p.logger)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}

	chunks, err := rd.StructuredContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("read document content: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no readable content in %s", common.ErrInvalidInput, job.FileName)
	}

	extracted, _, err := p.llmExtractor.Extract(ctx, llm.ExtractRequest{
		DocName:  job.FileName,
		Metadata: rd.Metadata(),
		Content:  chunks,
	})
	if err != nil {
		return nil, fmt.Errorf("llm extract: %w", err)
	}

	aggregator := citations.NewAggregator(nil, p.logger)
	agg := aggregator.Aggregate(extracted, chunks)

	valResult := validation.Validate(extracted.ExtractedData, time.Now().UTC())
	// Citation gaps surface in the same validation report the client sees.
	valResult.Warnings = append(valResult.Warnings, agg.Validation.Warnings...)

	result := &Result{
		DocType:          docType,
		ExtractedData:    extracted.ExtractedData,
		ValidationStatus: valResult,
		Citations:        agg,
	}

	docID, err := p.persist(ctx, job, result)
	if err != nil {
		return nil, err
	}

	if _, err := p.tasks.Update(ctx, job.TaskID, constants.TaskStatusCompleted, task.UpdateFields{DocumentID: &docID}); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	return result, nil
}

// download fetches the stored object into the working directory, keeping the
// original extension so classification and readers see the right format.
func (p *Processor) download(ctx context.Context, job async.Job) (string, func(), error) {
	dir, err := os.MkdirTemp(p.workDir, "docparse-")
	if err != nil {
		return "", nil, fmt.Errorf("create work dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	localPath := filepath.Join(dir, filepath.Base(job.FileName))
	f, err := os.Create(localPath)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("create local file: %w", err)
	}
	if err := p.store.Download(ctx, job.StorageKey, f); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("download %s: %w", job.StorageKey, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return localPath, cleanup, nil
}

func (p *Processor) persist(ctx context.Context, job async.Job, result *Result) (int64, error) {
	extractedJSON, err := json.Marshal(map[string]any{
		"extracted_data": llm.ToExternalNames(result.ExtractedData),
		"citations":      result.Citations.Citations,
		"source_summary": result.Citations.SourceSummary,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal extraction: %w", err)
	}
	validationJSON, err := json.Marshal(map[string]any{
		"is_valid":            result.ValidationStatus.IsValid,
		"errors":              result.ValidationStatus.Errors,
		"warnings":            result.ValidationStatus.Warnings,
		"citation_validation": result.Citations.Validation,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal validation: %w", err)
	}

	docID, existed, err := p.docs.UpsertByHash(ctx, &entity.Document{
		FileHash:   job.FileHash,
		FileName:   job.FileName,
		FileSize:   job.FileSize,
		StorageKey: job.StorageKey,
	})
	if err != nil {
		return 0, fmt.Errorf("upsert document: %w", err)
	}
	if existed {
		p.logger.Debug("pipeline.document_refreshed", "document_id", docID, "file_hash", job.FileHash)
	}
	if err := p.docs.SetExtraction(ctx, docID, extractedJSON, validationJSON); err != nil {
		return 0, fmt.Errorf("store extraction: %w", err)
	}
	return docID, nil
}
