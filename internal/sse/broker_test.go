package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/jera/internal/models"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishNotification(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	reminder := "09:00"
	b.PublishNotification(models.Notification{
		TopicID:      "t1",
		Title:        "Calc",
		ReminderTime: &reminder,
	})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: notification") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"topicId":"t1"`) {
			t.Errorf("missing payload in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChangeThrottlesDBUpdated(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First change triggers db.updated; the immediate second does not.
	b.PublishChange("topic.created", "t1")
	b.PublishChange("topic.updated", "t2")

	deadline := time.After(time.Second)
	var dbUpdated, changes int
	for changes < 2 {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "event: db.updated") {
				dbUpdated++
			}
			if strings.Contains(s, "event: topic.") {
				changes++
			}
		case <-deadline:
			t.Fatalf("timeout; changes=%d dbUpdated=%d", changes, dbUpdated)
		}
	}
	if dbUpdated != 1 {
		t.Errorf("db.updated = %d, want 1 (throttled)", dbUpdated)
	}
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the subscriber to register, then publish.
	for i := 0; i < 50 && b.ClientCount() == 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	b.PublishChange("category.deleted", "c1")
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: category.deleted") {
		t.Errorf("stream missing change event: %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBroker(time.Second)
	b.Close()
	b.Close()
	// Operations after close are no-ops.
	b.PublishChange("topic.created", "x")
	if b.ClientCount() != 0 {
		t.Error("closed broker should report 0 clients")
	}
}
