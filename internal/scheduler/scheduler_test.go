package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/jera/internal/models"
)

type fakeSource struct {
	topics []models.Topic
	err    error
}

func (f *fakeSource) DueTopics() ([]models.Topic, error) {
	return f.topics, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dueTopic(id, reminder string) models.Topic {
	return models.Topic{
		ID:           id,
		Title:        "Topic " + id,
		ReminderTime: &reminder,
	}
}

// at builds a local time with the given clock reading.
func at(day int, hhmm string) time.Time {
	parsed, _ := time.ParseInLocation("15:04", hhmm, time.Local)
	return time.Date(2025, 3, day, parsed.Hour(), parsed.Minute(), 0, 0, time.Local)
}

func collectScheduler(src TopicSource) (*Scheduler, *[]models.Notification) {
	var got []models.Notification
	s := New(src, 30*time.Second, func(n models.Notification) {
		got = append(got, n)
	}, discardLogger())
	return s, &got
}

func TestEvaluateEmitsAtMatchingMinute(t *testing.T) {
	src := &fakeSource{topics: []models.Topic{dueTopic("t1", "09:00")}}
	s, got := collectScheduler(src)

	s.evaluate(at(10, "08:59"))
	if len(*got) != 0 {
		t.Fatalf("emitted before reminder minute: %v", *got)
	}

	s.evaluate(at(10, "09:00"))
	if len(*got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(*got))
	}
	n := (*got)[0]
	if n.TopicID != "t1" || n.ReminderTime == nil || *n.ReminderTime != "09:00" {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestEvaluateDedupsWithinSameMinute(t *testing.T) {
	src := &fakeSource{topics: []models.Topic{dueTopic("t1", "09:00")}}
	s, got := collectScheduler(src)

	s.evaluate(at(10, "09:00"))
	s.evaluate(at(10, "09:00"))
	if len(*got) != 1 {
		t.Fatalf("notifications = %d, want 1 (dedup)", len(*got))
	}
}

func TestEvaluateNotifiesAgainNextDay(t *testing.T) {
	src := &fakeSource{topics: []models.Topic{dueTopic("t1", "09:00")}}
	s, got := collectScheduler(src)

	s.evaluate(at(10, "09:00"))
	s.evaluate(at(11, "09:00"))
	if len(*got) != 2 {
		t.Fatalf("notifications = %d, want 2 (next day resets cache)", len(*got))
	}
}

func TestEvaluateSkipsTopicsWithoutReminder(t *testing.T) {
	topic := models.Topic{ID: "t1", Title: "no reminder"}
	src := &fakeSource{topics: []models.Topic{topic}}
	s, got := collectScheduler(src)

	s.evaluate(at(10, "09:00"))
	if len(*got) != 0 {
		t.Fatalf("notifications = %d, want 0", len(*got))
	}
}

func TestEvaluateSurvivesSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	s, got := collectScheduler(src)

	s.evaluate(at(10, "09:00"))
	if len(*got) != 0 {
		t.Fatalf("notifications = %d, want 0", len(*got))
	}

	// Loop recovers once the source does.
	src.err = nil
	src.topics = []models.Topic{dueTopic("t1", "09:00")}
	s.evaluate(at(10, "09:00"))
	if len(*got) != 1 {
		t.Fatalf("notifications after recovery = %d, want 1", len(*got))
	}
}

func TestRefreshWakesRunPromptly(t *testing.T) {
	reminder := time.Now().Local().Format("15:04")
	src := &fakeSource{topics: []models.Topic{dueTopic("t1", reminder)}}

	emitted := make(chan models.Notification, 4)
	s := New(src, time.Minute, func(n models.Notification) {
		emitted <- n
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	// The initial pass fires without waiting for the poll interval.
	select {
	case <-emitted:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for initial evaluation")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}

func TestRefreshCoalesces(t *testing.T) {
	s := New(&fakeSource{}, time.Minute, func(models.Notification) {}, discardLogger())
	// Both calls must return immediately even though nothing is draining
	// the wake channel.
	s.Refresh()
	s.Refresh()
	if len(s.wake) != 1 {
		t.Errorf("wake signals = %d, want 1 (coalesced)", len(s.wake))
	}
}
