// Package store implements the persisted state store: the in-memory
// topic/category collections guarded by a reader/writer lock, atomic
// JSON-file persistence, and the backup lifecycle.
package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/jera/internal/apperr"
	"github.com/starford/jera/internal/ident"
	"github.com/starford/jera/internal/models"
	"github.com/starford/jera/internal/review"
)

// Store is the single writable owner of all topic and category records.
// Reads return clones; no caller ever holds a reference into the
// internal state.
//
// Every mutating operation persists the full state before returning. A
// failed persist is surfaced to the caller but the in-memory mutation is
// not rolled back, so on such errors memory may be ahead of disk.
type Store struct {
	mu    sync.RWMutex
	state persistedState

	// persistMu serializes disk writes so a later mutation can never be
	// overwritten on disk by an earlier one still in flight.
	persistMu sync.Mutex
	lastSum   atomic.Value // checksum of the last payload this process wrote

	paths Paths
}

// Load opens the database at paths, seeding a default state when no file
// exists yet. A present but malformed file is a fatal error. The loaded
// state is persisted immediately and the daily backup is rotated.
func Load(paths Paths) (*Store, error) {
	state, err := readState(paths.DatabasePath)
	if err != nil {
		if !isNotExist(err) {
			return nil, err
		}
		state = defaultState()
	}

	s := &Store{state: state, paths: paths}
	if err := s.persist(); err != nil {
		return nil, err
	}
	if err := s.rotateDailyBackup(); err != nil {
		return nil, err
	}
	return s, nil
}

// Paths returns the resolved storage locations.
func (s *Store) Paths() Paths {
	return s.paths
}

// SchemaVersion returns the version tag of the current state.
func (s *Store) SchemaVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Version
}

// Snapshot returns a full clone of the current state.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cloned := s.state.clone()
	return models.Snapshot{
		Topics:        cloned.Topics,
		Categories:    cloned.Categories,
		SchemaVersion: cloned.Version,
	}
}

// CreateCategory validates the label, rejects case-insensitive
// duplicates, and appends a new category.
func (s *Store) CreateCategory(payload models.CategoryPayload) (models.Category, error) {
	label := strings.TrimSpace(payload.Label)
	if label == "" {
		return models.Category{}, fmt.Errorf("category label cannot be empty: %w", apperr.ErrValidation)
	}

	s.mu.Lock()
	for _, c := range s.state.Categories {
		if strings.EqualFold(c.Label, label) {
			s.mu.Unlock()
			return models.Category{}, fmt.Errorf("category %q already exists: %w", label, apperr.ErrConflict)
		}
	}
	now := time.Now().UTC()
	category := models.Category{
		ID:        ident.New(),
		Label:     label,
		Color:     payload.Color,
		Icon:      payload.Icon,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.state.Categories = append(s.state.Categories, category)
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return models.Category{}, err
	}
	return category.Clone(), nil
}

// DeleteCategory removes a category and clears the category reference on
// any topic that pointed at it. Deleting an absent id is a no-op.
func (s *Store) DeleteCategory(id string) error {
	s.mu.Lock()
	kept := s.state.Categories[:0]
	for _, c := range s.state.Categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.state.Categories = kept
	now := time.Now().UTC()
	for i := range s.state.Topics {
		t := &s.state.Topics[i]
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
			t.CategoryLabel = nil
			t.UpdatedAt = now
		}
	}
	s.mu.Unlock()

	return s.persist()
}

// CreateTopic creates a topic from the payload. If id is empty a new one
// is generated. The interval ladder is normalized and the first review
// is scheduled intervals[0] days from now.
func (s *Store) CreateTopic(id string, payload models.TopicPayload) (models.Topic, error) {
	if id == "" {
		id = ident.New()
	}
	now := time.Now().UTC()
	intervals := review.Normalize(payload.Intervals)

	s.mu.Lock()
	topic := models.Topic{
		ID:             id,
		Title:          strings.TrimSpace(payload.Title),
		Notes:          payload.Notes,
		CategoryID:     payload.CategoryID,
		CategoryLabel:  resolveCategoryLabel(s.state.Categories, payload.CategoryID),
		Icon:           payload.Icon,
		Color:          payload.Color,
		ReminderTime:   payload.ReminderTime,
		Intervals:      intervals,
		IntervalIndex:  0,
		NextReviewDate: review.NextReview(nil, intervals, 0, now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.state.Topics = append(s.state.Topics, topic)
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return models.Topic{}, err
	}
	return topic.Clone(), nil
}

// UpdateTopic replaces the editable fields of a topic. The ladder is
// re-normalized and the next review re-anchored on the existing
// last-review time and interval index; editing never advances progress.
func (s *Store) UpdateTopic(id string, payload models.TopicPayload) (models.Topic, error) {
	now := time.Now().UTC()
	intervals := review.Normalize(payload.Intervals)

	s.mu.Lock()
	t := findTopic(s.state.Topics, id)
	if t == nil {
		s.mu.Unlock()
		return models.Topic{}, apperr.ErrNotFound
	}
	t.Title = strings.TrimSpace(payload.Title)
	t.Notes = payload.Notes
	t.CategoryID = payload.CategoryID
	t.CategoryLabel = resolveCategoryLabel(s.state.Categories, payload.CategoryID)
	t.Icon = payload.Icon
	t.Color = payload.Color
	t.ReminderTime = payload.ReminderTime
	t.Intervals = intervals
	t.IntervalIndex = review.ClampIndex(intervals, t.IntervalIndex)
	t.NextReviewDate = review.NextReview(t.LastReviewedAt, intervals, t.IntervalIndex, now)
	t.UpdatedAt = now
	updated := t.Clone()
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return models.Topic{}, err
	}
	return updated, nil
}

// DeleteTopic removes a topic. Deleting an absent id is a no-op.
func (s *Store) DeleteTopic(id string) error {
	s.mu.Lock()
	kept := s.state.Topics[:0]
	for _, t := range s.state.Topics {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.state.Topics = kept
	s.mu.Unlock()

	return s.persist()
}

// MarkReviewed records a review now: the ladder index advances (saturating
// at the last rung), the next review is scheduled from the review moment,
// and any snooze is cleared.
func (s *Store) MarkReviewed(id string) (models.Topic, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	t := findTopic(s.state.Topics, id)
	if t == nil {
		s.mu.Unlock()
		return models.Topic{}, apperr.ErrNotFound
	}
	intervals := review.Normalize(t.Intervals)
	next := review.Advance(intervals, t.IntervalIndex)
	t.Intervals = intervals
	t.IntervalIndex = next
	t.LastReviewedAt = &now
	t.NextReviewDate = review.NextReview(&now, intervals, next, now)
	t.SnoozedUntil = nil
	t.UpdatedAt = now
	updated := t.Clone()
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return models.Topic{}, err
	}
	return updated, nil
}

// Snooze suppresses reminders for the topic until now + d.
func (s *Store) Snooze(id string, d time.Duration) error {
	now := time.Now().UTC()
	until := now.Add(d)

	s.mu.Lock()
	t := findTopic(s.state.Topics, id)
	if t == nil {
		s.mu.Unlock()
		return apperr.ErrNotFound
	}
	t.SnoozedUntil = &until
	t.UpdatedAt = now
	s.mu.Unlock()

	return s.persist()
}

// ClearSnooze removes an active snooze from the topic.
func (s *Store) ClearSnooze(id string) error {
	now := time.Now().UTC()

	s.mu.Lock()
	t := findTopic(s.state.Topics, id)
	if t == nil {
		s.mu.Unlock()
		return apperr.ErrNotFound
	}
	t.SnoozedUntil = nil
	t.UpdatedAt = now
	s.mu.Unlock()

	return s.persist()
}

// DueTopics returns clones of every topic with a reminder time set whose
// next review has passed and which is not currently snoozed.
func (s *Store) DueTopics() ([]models.Topic, error) {
	now := time.Now().UTC()

	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []models.Topic
	for _, t := range s.state.Topics {
		if t.ReminderTime == nil {
			continue
		}
		if t.NextReviewDate.After(now) {
			continue
		}
		if t.SnoozedUntil != nil && t.SnoozedUntil.After(now) {
			continue
		}
		due = append(due, t.Clone())
	}
	return due, nil
}

// Reload replaces the in-memory state with whatever is on disk, without
// writing anything back. Used when the database file changed out-of-band.
func (s *Store) Reload() error {
	state, err := readState(s.paths.DatabasePath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// persist serializes the state under a read lock and atomically replaces
// the database file. Disk writes are serialized among themselves so the
// last writer's file always reflects every earlier mutation.
func (s *Store) persist() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	out := s.state
	out.Version = SchemaVersion
	payload, err := json.MarshalIndent(out, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}

	if err := writeAtomic(s.paths.DatabasePath, payload); err != nil {
		return err
	}
	s.lastSum.Store(checksum(payload))
	return nil
}

// lastWrittenChecksum reports the checksum of the most recent payload
// this process persisted; empty before the first write.
func (s *Store) lastWrittenChecksum() string {
	if v, ok := s.lastSum.Load().(string); ok {
		return v
	}
	return ""
}

func findTopic(topics []models.Topic, id string) *models.Topic {
	for i := range topics {
		if topics[i].ID == id {
			return &topics[i]
		}
	}
	return nil
}

func resolveCategoryLabel(categories []models.Category, id *string) *string {
	if id == nil {
		return nil
	}
	for _, c := range categories {
		if c.ID == *id {
			label := c.Label
			return &label
		}
	}
	return nil
}
