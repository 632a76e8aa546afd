// Package scheduler runs the background reminder loop: it wakes on a
// bounded timer or an explicit refresh signal, matches due topics against
// the current local minute, and emits at most one notification per topic
// per time-slot per day.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/jera/internal/models"
)

// TopicSource supplies the topics currently due for review.
type TopicSource interface {
	DueTopics() ([]models.Topic, error)
}

// EmitFunc delivers one notification to the presentation layer.
type EmitFunc func(models.Notification)

// Scheduler is the reminder loop. Its wake channel and dedup cache are
// guarded independently of the store's lock.
type Scheduler struct {
	src    TopicSource
	emit   EmitFunc
	logger *slog.Logger
	poll   time.Duration

	wake chan struct{}

	mu         sync.Mutex
	dayKey     string
	dispatched map[string]string // topic id -> "id-HH:MM" slot key
}

// New creates a scheduler polling at the given interval. The interval
// must not exceed one minute or reminders on a minute boundary could be
// missed between passes.
func New(src TopicSource, poll time.Duration, emit EmitFunc, logger *slog.Logger) *Scheduler {
	if poll <= 0 || poll > time.Minute {
		poll = time.Minute
	}
	return &Scheduler{
		src:        src,
		emit:       emit,
		logger:     logger,
		poll:       poll,
		wake:       make(chan struct{}, 1),
		dispatched: make(map[string]string),
	}
}

// Refresh wakes the loop for an immediate evaluation pass. Signals are
// coalesced: refreshing an already-woken scheduler is a no-op.
func (s *Scheduler) Refresh() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run evaluates once immediately, then blocks until either the poll
// interval elapses or Refresh is called, evaluating after each wake.
// It returns only when ctx is cancelled; per-pass errors are logged and
// never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		s.evaluate(time.Now())

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-s.wake:
		}
	}
}

// evaluate executes one pass at the given wall-clock instant.
func (s *Scheduler) evaluate(now time.Time) {
	local := now.Local()
	timeKey := local.Format("15:04")
	today := local.Format("2006-01-02")

	s.mu.Lock()
	if s.dayKey != today {
		s.dayKey = today
		s.dispatched = make(map[string]string)
	}
	s.mu.Unlock()

	due, err := s.src.DueTopics()
	if err != nil {
		s.logger.Warn("scheduler: due topics failed", slog.String("error", err.Error()))
		return
	}

	for _, topic := range due {
		if topic.ReminderTime == nil || *topic.ReminderTime != timeKey {
			continue
		}

		slotKey := topic.ID + "-" + timeKey
		s.mu.Lock()
		if s.dispatched[topic.ID] == slotKey {
			s.mu.Unlock()
			continue
		}
		s.dispatched[topic.ID] = slotKey
		s.mu.Unlock()

		s.emit(models.Notification{
			TopicID:       topic.ID,
			Title:         topic.Title,
			CategoryLabel: topic.CategoryLabel,
			ReminderTime:  topic.ReminderTime,
		})
	}
}
