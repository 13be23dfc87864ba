package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/doc-parser/internal/common"
	"github.com/joseph-ayodele/doc-parser/internal/entity"
)

type DocumentRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Document, error)
	GetByHash(ctx context.Context, fileHash string) (*entity.Document, error)
	// UpsertByHash inserts a document row or refreshes an existing one with
	// the same content hash. The bool reports whether the row already existed.
	UpsertByHash(ctx context.Context, doc *entity.Document) (int64, bool, error)
	SetExtraction(ctx context.Context, id int64, extracted, validation []byte) error
}

type documentRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewDocumentRepository(db *sql.DB, logger *slog.Logger) DocumentRepository {
	return &documentRepo{
		db:     db,
		logger: logger,
	}
}

const documentColumns = `id, file_hash, file_name, file_size, storage_key, extracted_data, validation_status, created_at, updated_at`

func (r *documentRepo) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (r *documentRepo) GetByHash(ctx context.Context, fileHash string) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE file_hash = $1`, fileHash)
	doc, err := scanDocument(row)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		r.logger.Error("failed to get document by hash", "file_hash", fileHash, "error", err)
	}
	return doc, err
}

func (r *documentRepo) UpsertByHash(ctx context.Context, doc *entity.Document) (int64, bool, error) {
	if existing, err := r.GetByHash(ctx, doc.FileHash); err == nil {
		_, err = r.db.ExecContext(ctx,
			`UPDATE documents SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), existing.ID)
		if err != nil {
			r.logger.Error("failed to touch existing document", "document_id", existing.ID, "error", err)
			return 0, false, common.WrapError(common.ErrDatabase, err)
		}
		return existing.ID, true, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return 0, false, err
	}

	now := time.Now().UTC()
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO documents (file_hash, file_name, file_size, storage_key, extracted_data, validation_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (file_hash) DO UPDATE SET updated_at = excluded.updated_at
		 RETURNING id`,
		doc.FileHash, doc.FileName, doc.FileSize, doc.StorageKey,
		nullableJSON(doc.ExtractedData), nullableJSON(doc.ValidationStatus), now, now,
	).Scan(&id)
	if err != nil {
		r.logger.Error("failed to upsert document", "file_hash", doc.FileHash, "file_name", doc.FileName, "error", err)
		return 0, false, common.WrapError(common.ErrDatabase, err)
	}
	return id, false, nil
}

func (r *documentRepo) SetExtraction(ctx context.Context, id int64, extracted, validation []byte) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET extracted_data = $1, validation_status = $2, updated_at = $3 WHERE id = $4`,
		nullableJSON(extracted), nullableJSON(validation), time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("failed to store extraction result", "document_id", id, "error", err)
		return common.WrapError(common.ErrDatabase, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanDocument(row *sql.Row) (*entity.Document, error) {
	var d entity.Document
	var extracted, validation sql.NullString
	err := row.Scan(&d.ID, &d.FileHash, &d.FileName, &d.FileSize, &d.StorageKey,
		&extracted, &validation, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err)
	}
	if extracted.Valid {
		d.ExtractedData = []byte(extracted.String)
	}
	if validation.Valid {
		d.ValidationStatus = []byte(validation.String)
	}
	return &d, nil
}

// nullableJSON stores empty payloads as NULL rather than empty strings.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
