package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/doc-parser/internal/common"
	"github.com/joseph-ayodele/doc-parser/internal/entity"
)

type TaskRepository interface {
	Save(ctx context.Context, task *entity.Task) error
	Update(ctx context.Context, task *entity.Task) error
	GetByID(ctx context.Context, id string) (*entity.Task, error)
	// GetWithDocument joins the task with its document row, if linked.
	GetWithDocument(ctx context.Context, id string) (*entity.TaskView, error)
}

type taskRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewTaskRepository(db *sql.DB, logger *slog.Logger) TaskRepository {
	return &taskRepo{
		db:     db,
		logger: logger,
	}
}

func (r *taskRepo) Save(ctx context.Context, task *entity.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, status, document_id, error, callback_url, client_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			document_id = excluded.document_id,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		task.ID, task.Status, task.DocumentID, task.Error, task.CallbackURL, task.ClientID,
		task.CreatedAt, task.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to save task", "task_id", task.ID, "error", err)
		return common.WrapError(common.ErrDatabase, err)
	}
	return nil
}

func (r *taskRepo) Update(ctx context.Context, task *entity.Task) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = $1, document_id = $2, error = $3, updated_at = $4 WHERE id = $5`,
		task.Status, task.DocumentID, task.Error, task.UpdatedAt, task.ID)
	if err != nil {
		r.logger.Error("failed to update task", "task_id", task.ID, "error", err)
		return common.WrapError(common.ErrDatabase, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *taskRepo) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, status, document_id, error, callback_url, client_id, created_at, updated_at
		 FROM tasks WHERE id = $1`, id)
	var t entity.Task
	err := row.Scan(&t.ID, &t.Status, &t.DocumentID, &t.Error, &t.CallbackURL, &t.ClientID,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get task", "task_id", id, "error", err)
		return nil, common.WrapError(common.ErrDatabase, err)
	}
	return &t, nil
}

func (r *taskRepo) GetWithDocument(ctx context.Context, id string) (*entity.TaskView, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.status, t.document_id, t.error, t.callback_url, t.client_id, t.created_at, t.updated_at,
			d.extracted_data, d.validation_status, d.storage_key, d.file_name
		 FROM tasks t
		 LEFT JOIN documents d ON d.id = t.document_id
		 WHERE t.id = $1`, id)
	var v entity.TaskView
	var extracted, validation sql.NullString
	err := row.Scan(&v.ID, &v.Status, &v.DocumentID, &v.Error, &v.CallbackURL, &v.ClientID,
		&v.CreatedAt, &v.UpdatedAt, &extracted, &validation, &v.StorageKey, &v.FileName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get task with document", "task_id", id, "error", err)
		return nil, common.WrapError(common.ErrDatabase, err)
	}
	if extracted.Valid {
		v.ExtractedData = []byte(extracted.String)
	}
	if validation.Valid {
		v.ValidationStatus = []byte(validation.String)
	}
	return &v, nil
}
