// Package task tracks processing tasks through their lifecycle.
package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-parser/constants"
	"github.com/joseph-ayodele/doc-parser/internal/common"
	"github.com/joseph-ayodele/doc-parser/internal/entity"
	"github.com/joseph-ayodele/doc-parser/internal/repository"
)

const defaultCacheSize = 1024

// UpdateFields carries the optional mutations applied alongside a status
// transition. Nil fields are left unchanged.
type UpdateFields struct {
	DocumentID *int64
	Error      *string
}

// Manager owns the task state machine. Tasks live in the store; a bounded
// in-memory cache keeps recent tasks readable when the store is briefly
// unavailable. Terminal statuses (COMPLETED, FAILED) are immutable.
type Manager struct {
	repo   repository.TaskRepository
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*entity.Task
	order []string
	limit int

	// terminalHook fires once per terminal transition, after the durable
	// write. Used for callback dispatch.
	terminalHook func(entity.Task)
}

func NewManager(repo repository.TaskRepository, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		repo:   repo,
		logger: logger,
		cache:  make(map[string]*entity.Task),
		limit:  defaultCacheSize,
	}
}

// OnTerminal registers the hook invoked after a task reaches a terminal
// status. The hook runs on its own goroutine with a copy of the task.
func (m *Manager) OnTerminal(hook func(entity.Task)) {
	m.terminalHook = hook
}

// Create registers a new PENDING task. A storage failure is logged but does
// not block creation: the task stays trackable through the cache.
func (m *Manager) Create(ctx context.Context, callbackURL, clientID *string) *entity.Task {
	now := time.Now().UTC()
	t := &entity.Task{
		ID:          uuid.NewString(),
		Status:      constants.TaskStatusPending,
		CallbackURL: callbackURL,
		ClientID:    clientID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.repo.Save(ctx, t); err != nil {
		m.logger.Warn("task.persist_failed", "task_id", t.ID, "error", err)
	}
	m.put(t)
	m.logger.Info("task.created", "task_id", t.ID, "status", t.Status)
	return t
}

// Get returns the task, preferring the store over the cache.
func (m *Manager) Get(ctx context.Context, id string) (*entity.Task, error) {
	t, err := m.repo.GetByID(ctx, id)
	if err == nil {
		m.put(t)
		return t, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		if cached := m.cached(id); cached != nil {
			m.logger.Warn("task.store_unavailable", "task_id", id, "error", err)
			return cached, nil
		}
	}
	return nil, err
}

// GetView returns the task joined with its document data. When the store is
// unavailable the cached task is served with empty document columns, so a
// task whose creation-time persist failed stays pollable.
func (m *Manager) GetView(ctx context.Context, id string) (*entity.TaskView, error) {
	view, err := m.repo.GetWithDocument(ctx, id)
	if err == nil {
		return view, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		if cached := m.cached(id); cached != nil {
			m.logger.Warn("task.store_unavailable", "task_id", id, "error", err)
			return &entity.TaskView{Task: *cached}, nil
		}
	}
	return nil, err
}

// Update transitions the task to status. Terminal tasks reject further
// transitions, except that re-applying the same terminal status is an
// idempotent no-op. updated_at only moves forward.
func (m *Manager) Update(ctx context.Context, id string, status constants.TaskStatus, fields UpdateFields) (*entity.Task, error) {
	if !constants.ValidStatus(status) {
		return nil, common.WrapError(common.ErrInvalidInput, errors.New("unknown task status: "+string(status)))
	}

	current := m.cached(id)
	if current == nil {
		stored, err := m.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		current = stored
	}

	if current.Status.IsTerminal() {
		if current.Status == status {
			return current, nil
		}
		m.logger.Warn("task.terminal_rejected", "task_id", id, "status", current.Status, "requested", status)
		return nil, common.ErrTerminalState
	}

	next := *current
	next.Status = status
	if fields.DocumentID != nil {
		next.DocumentID = fields.DocumentID
	}
	if fields.Error != nil {
		next.Error = fields.Error
	}
	now := time.Now().UTC()
	if !now.After(next.UpdatedAt) {
		now = next.UpdatedAt.Add(time.Millisecond)
	}
	next.UpdatedAt = now

	if err := m.repo.Update(ctx, &next); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			err = m.repo.Save(ctx, &next)
		}
		if err != nil {
			m.logger.Error("task.update_failed", "task_id", id, "status", status, "error", err)
			return nil, err
		}
	}
	m.put(&next)
	m.logger.Info("task.updated", "task_id", id, "status", status)

	if status.IsTerminal() && m.terminalHook != nil {
		go m.terminalHook(next)
	}
	return &next, nil
}

func (m *Manager) cached(id string) *entity.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.cache[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

func (m *Manager) put(t *entity.Task) {
	cp := *t
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cache[cp.ID]; !ok {
		m.order = append(m.order, cp.ID)
		for len(m.order) > m.limit {
			evict := m.order[0]
			m.order = m.order[1:]
			delete(m.cache, evict)
		}
	}
	m.cache[cp.ID] = &cp
}
