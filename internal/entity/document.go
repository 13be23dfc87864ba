package entity

import (
	"encoding/json"
	"time"
)

// Document is a de-duplicated, persisted extraction result keyed by content
// hash. Immutable once written except for updated_at touches on duplicate
// submissions.
type Document struct {
	ID               int64           `json:"id"`
	FileHash         string          `json:"file_hash"`
	FileName         string          `json:"file_name"`
	FileSize         int64           `json:"file_size"`
	StorageKey       string          `json:"storage_key"`
	ExtractedData    json.RawMessage `json:"extracted_data,omitempty"`
	ValidationStatus json.RawMessage `json:"validation_status,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
