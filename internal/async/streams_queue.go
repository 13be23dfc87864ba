package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type StreamsConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
	Workers  int
	Timeout  time.Duration
}

// StreamsQueue implements Queue on Redis Streams, for deployments where
// jobs must survive a process restart. Messages are acked only after the
// processor finishes; failed jobs stay in the store as FAILED tasks.
type StreamsQueue struct {
	client   *redis.Client
	proc     Processor
	logger   *slog.Logger
	stream   string
	group    string
	consumer string
	workers  int
	timeout  time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStreamsQueue(ctx context.Context, cfg StreamsConfig, proc Processor, logger *slog.Logger) (*StreamsQueue, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.Stream == "" {
		cfg.Stream = "doc_jobs"
	}
	if cfg.Group == "" {
		cfg.Group = "doc_workers"
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "worker-1"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	q := &StreamsQueue{
		client:   client,
		proc:     proc,
		logger:   logger,
		stream:   cfg.Stream,
		group:    cfg.Group,
		consumer: cfg.Consumer,
		workers:  cfg.Workers,
		timeout:  cfg.Timeout,
	}
	if err := q.ensureGroup(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	q.start()
	return q, nil
}

func (q *StreamsQueue) ensureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err()
	if err == nil || strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	return fmt.Errorf("ensure stream group: %w", err)
}

func (q *StreamsQueue) Enqueue(ctx context.Context, job Job) error {
	_, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{
			"task_id":      job.TaskID,
			"storage_key":  job.StorageKey,
			"file_hash":    job.FileHash,
			"file_name":    job.FileName,
			"file_size":    job.FileSize,
			"trace_id":     job.TraceID,
			"submitted_at": job.SubmittedAt.Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue to stream: %w", err)
	}
	q.logger.Info("queued document for processing", "task_id", job.TaskID, "file_name", job.FileName)
	return nil
}

func (q *StreamsQueue) start() {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(workerID int) {
			defer q.wg.Done()
			q.logger.Info("worker started", "worker_id", workerID)
			q.consume(ctx, workerID)
			q.logger.Info("worker stopped", "worker_id", workerID)
		}(i + 1)
	}
}

func (q *StreamsQueue) consume(ctx context.Context, workerID int) {
	consumer := fmt.Sprintf("%s-%d", q.consumer, workerID)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{q.stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			q.logger.Error("xreadgroup failed", "worker_id", workerID, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, item := range stream.Messages {
				job, parseErr := parseStreamJob(item)
				if parseErr != nil {
					q.logger.Error("dropping malformed stream message", "stream_id", item.ID, "error", parseErr)
					q.ackAndDelete(ctx, item.ID)
					continue
				}

				jobCtx, cancel := context.WithTimeout(context.Background(), q.timeout)
				err := q.proc.Process(jobCtx, job)
				cancel()
				if err != nil {
					q.logger.Error("processing failed", "worker_id", workerID, "task_id", job.TaskID, "error", err)
				} else {
					q.logger.Info("processed document successfully", "worker_id", workerID, "task_id", job.TaskID)
				}
				q.ackAndDelete(ctx, item.ID)
			}
		}
	}
}

func (q *StreamsQueue) ackAndDelete(ctx context.Context, streamID string) {
	if err := q.client.XAck(ctx, q.stream, q.group, streamID).Err(); err != nil {
		q.logger.Error("xack failed", "stream_id", streamID, "error", err)
		return
	}
	if err := q.client.XDel(ctx, q.stream, streamID).Err(); err != nil {
		q.logger.Error("xdel failed", "stream_id", streamID, "error", err)
	}
}

func (q *StreamsQueue) Shutdown(ctx context.Context) {
	if q.cancel != nil {
		q.cancel()
	}
	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()
	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
	if err := q.client.Close(); err != nil {
		q.logger.Error("failed to close redis client", "error", err)
	}
}

func parseStreamJob(item redis.XMessage) (Job, error) {
	getString := func(key string) (string, error) {
		value, ok := item.Values[key]
		if !ok {
			return "", fmt.Errorf("missing field %s", key)
		}
		switch casted := value.(type) {
		case string:
			return casted, nil
		case []byte:
			return string(casted), nil
		default:
			return fmt.Sprintf("%v", casted), nil
		}
	}

	taskID, err := getString("task_id")
	if err != nil {
		return Job{}, err
	}
	storageKey, err := getString("storage_key")
	if err != nil {
		return Job{}, err
	}
	fileHash, err := getString("file_hash")
	if err != nil {
		return Job{}, err
	}
	fileName, err := getString("file_name")
	if err != nil {
		return Job{}, err
	}
	traceID, _ := getString("trace_id")

	job := Job{
		TaskID:     taskID,
		StorageKey: storageKey,
		FileHash:   fileHash,
		FileName:   fileName,
		TraceID:    traceID,
	}
	if s, err := getString("file_size"); err == nil {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			job.FileSize = n
		}
	}
	if s, err := getString("submitted_at"); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			job.SubmittedAt = t
		}
	}
	return job, nil
}
