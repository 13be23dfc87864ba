package constants

// TaskStatus is the canonical status for rows in tasks.
type TaskStatus string

// Stable values (store these exact strings in DB).
const (
	TaskStatusPending    TaskStatus = "PENDING"    // created, not yet picked up
	TaskStatusProcessing TaskStatus = "PROCESSING" // extraction in progress
	TaskStatusCompleted  TaskStatus = "COMPLETED"  // terminal success
	TaskStatusFailed     TaskStatus = "FAILED"     // terminal failure
)

// IsTerminal reports whether no further status transitions are permitted.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	}
	return false
}
