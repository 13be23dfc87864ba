package callback

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDeliverBlankURLIsNoOp(t *testing.T) {
	d := NewDispatcher(time.Second, nil)
	if !d.Deliver(context.Background(), "", map[string]string{"a": "b"}) {
		t.Fatal("blank url must be a trivial success")
	}
}

func TestDeliverSuccess(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(time.Second, nil)
	payload := map[string]any{"task_id": "t1", "status": "COMPLETED"}
	if !d.Deliver(context.Background(), srv.URL, payload) {
		t.Fatal("2xx response should report delivered")
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	var decoded map[string]any
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if decoded["task_id"] != "t1" {
		t.Errorf("payload = %v", decoded)
	}
}

func TestDeliverNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(time.Second, nil)
	if d.Deliver(context.Background(), srv.URL, map[string]string{}) {
		t.Fatal("5xx response should report failure")
	}
}

func TestDeliverConnectionErrorFails(t *testing.T) {
	d := NewDispatcher(200*time.Millisecond, nil)
	if d.Deliver(context.Background(), "http://127.0.0.1:1/unreachable", map[string]string{}) {
		t.Fatal("connection failure should report failure")
	}
}

func TestDeliverSingleAttempt(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(time.Second, nil)
	d.Deliver(context.Background(), srv.URL, map[string]string{})
	if attempts != 1 {
		t.Fatalf("expected exactly one delivery attempt, got %d", attempts)
	}
}

func TestCompletedPayload(t *testing.T) {
	client := "acme-1"
	p := CompletedPayload("t1", map[string]any{"CustomerName": "Acme"}, "contract.pdf", "https://bucket/doc.pdf", &client)
	if p["task_id"] != "t1" || p["status"] != "COMPLETED" {
		t.Errorf("payload identity fields: %v", p)
	}
	if p["CustomerName"] != "Acme" {
		t.Errorf("extracted fields must be inlined")
	}
	if p["file_name"] != "contract.pdf" || p["storage_url"] != "https://bucket/doc.pdf" {
		t.Errorf("file fields: %v", p)
	}
	if p["client_id"] != "acme-1" {
		t.Errorf("client id: %v", p)
	}

	// no client id key at all when unset
	p = CompletedPayload("t1", nil, "f", "u", nil)
	if _, ok := p["client_id"]; ok {
		t.Errorf("client_id should be absent when nil")
	}
}

func TestFailedPayload(t *testing.T) {
	p := FailedPayload("t2", "no readable content")
	if p["status"] != "FAILED" || p["error"] != "no readable content" || p["task_id"] != "t2" {
		t.Errorf("payload = %v", p)
	}
}
