// Package callback posts task completion notifications to client-supplied URLs.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/doc-parser/constants"
)

const defaultTimeout = 30 * time.Second

// Dispatcher delivers a single notification per terminal task. Delivery is
// best effort: one attempt, no retries, failures are logged and swallowed.
type Dispatcher struct {
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewDispatcher(timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

// Deliver posts the payload to url. A blank url is a no-op success. Returns
// whether the callback was accepted with a 2xx status.
func (d *Dispatcher) Deliver(ctx context.Context, url string, payload any) bool {
	if url == "" {
		return true
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("callback.marshal_failed", "url", url, "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		d.logger.Error("callback.request_failed", "url", url, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.http.Do(req)
	if err != nil {
		d.logger.Warn("callback.delivery_failed", "url", url, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Warn("callback.rejected", "url", url, "status", resp.StatusCode,
			"elapsed_ms", time.Since(start).Milliseconds())
		return false
	}

	d.logger.Info("callback.delivered", "url", url, "status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds())
	return true
}

// CompletedPayload is the notification body for a successfully processed task.
func CompletedPayload(taskID string, extracted map[string]any, fileName, storageURL string, clientID *string) map[string]any {
	payload := make(map[string]any, len(extracted)+4)
	for k, v := range extracted {
		payload[k] = v
	}
	payload["task_id"] = taskID
	payload["status"] = string(constants.TaskStatusCompleted)
	payload["file_name"] = fileName
	payload["storage_url"] = storageURL
	if clientID != nil {
		payload["client_id"] = *clientID
	}
	return payload
}

// FailedPayload is the notification body for a failed task.
func FailedPayload(taskID, errMsg string) map[string]any {
	return map[string]any{
		"task_id": taskID,
		"status":  string(constants.TaskStatusFailed),
		"error":   errMsg,
	}
}
