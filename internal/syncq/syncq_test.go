package syncq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestCollection(t *testing.T) {
	tests := []struct {
		task string
		want string
	}{
		{TaskSyncBookings, "bookings"},
		{TaskSyncPayments, "payments"},
		{TaskSyncMapTiles, "mapTiles"},
		{"sync-unknown", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Collection(tt.task); got != tt.want {
			t.Errorf("Collection(%q) = %q, want %q", tt.task, got, tt.want)
		}
	}
}

func TestLogFlusherFlush(t *testing.T) {
	f := LogFlusher{Pending: func(_ context.Context, collection string) (int, error) {
		if collection == "bookings" {
			return 4, nil
		}
		return 0, errors.New("unknown collection")
	}}

	n, err := f.Flush(context.Background(), "bookings")
	if err != nil || n != 4 {
		t.Errorf("Flush = %d, %v, want 4", n, err)
	}
	if _, err := f.Flush(context.Background(), "other"); err == nil {
		t.Error("Flush swallowed the pending error")
	}

	// A zero-value flusher is usable.
	if n, err := (LogFlusher{}).Flush(context.Background(), "bookings"); err != nil || n != 0 {
		t.Errorf("zero-value Flush = %d, %v", n, err)
	}
}

type countFlusher struct {
	flushed []string
}

func (c *countFlusher) Flush(_ context.Context, collection string) (int, error) {
	c.flushed = append(c.flushed, collection)
	return 1, nil
}

func TestHandleMessage(t *testing.T) {
	f := &countFlusher{}

	body, _ := json.Marshal(taskMessage{Task: TaskSyncBookings})
	if err := handleMessage(body, f); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(f.flushed) != 1 || f.flushed[0] != "bookings" {
		t.Errorf("flushed = %v, want [bookings]", f.flushed)
	}

	// Unknown tasks and malformed bodies are rejected.
	body, _ = json.Marshal(taskMessage{Task: "sync-unknown"})
	if err := handleMessage(body, f); err == nil {
		t.Error("unknown task accepted")
	}
	if err := handleMessage([]byte("not json"), f); err == nil {
		t.Error("malformed body accepted")
	}
}
