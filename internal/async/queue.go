package async

import (
	"context"
	"time"
)

// Job is the unit of work handed to the pipeline. Extend as needed later
// (priority, retry count, etc).
type Job struct {
	TaskID      string
	StorageKey  string
	FileHash    string
	FileName    string
	FileSize    int64
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor is what a queue drives. The pipeline implements it.
type Processor interface {
	Process(ctx context.Context, job Job) error
}
