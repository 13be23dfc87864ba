package entity

import (
	"encoding/json"
	"time"

	"github.com/joseph-ayodele/doc-parser/constants"
)

// Task is the unit of asynchronous work. The id is generated at creation and
// never changes; callback URL and client id are set at creation only.
type Task struct {
	ID          string               `json:"task_id"`
	Status      constants.TaskStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	DocumentID  *int64               `json:"document_id,omitempty"`
	Error       *string              `json:"error,omitempty"`
	CallbackURL *string              `json:"callback_url,omitempty"`
	ClientID    *string              `json:"client_id,omitempty"`
}

// TaskView is a task joined with its document's result columns, when present.
// This is what the status-poll surface returns.
type TaskView struct {
	Task
	ExtractedData    json.RawMessage `json:"extracted_data,omitempty"`
	ValidationStatus json.RawMessage `json:"validation_status,omitempty"`
	StorageKey       *string         `json:"storage_key,omitempty"`
	FileName         *string         `json:"file_name,omitempty"`
}
