// Package models defines the domain types for Jera.
package models

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// reminderTimeRe matches a 24-hour wall-clock time ("HH:MM", local time).
var reminderTimeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Category is a named tag a topic may belong to.
type Category struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Color     *string   `json:"color,omitempty"`
	Icon      *string   `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the category.
func (c Category) Clone() Category {
	out := c
	out.Color = clonePtr(c.Color)
	out.Icon = clonePtr(c.Icon)
	return out
}

// Topic is a trackable review item with its own spaced-repetition schedule.
//
// CategoryLabel is a denormalized snapshot of the category's label taken
// when the topic is created or updated. It is not re-resolved afterwards.
type Topic struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Notes          string     `json:"notes"`
	CategoryID     *string    `json:"categoryId,omitempty"`
	CategoryLabel  *string    `json:"categoryLabel,omitempty"`
	Icon           string     `json:"icon"`
	Color          string     `json:"color"`
	ReminderTime   *string    `json:"reminderTime,omitempty"`
	Intervals      []int      `json:"intervals"`
	IntervalIndex  int        `json:"intervalIndex"`
	NextReviewDate time.Time  `json:"nextReviewDate"`
	LastReviewedAt *time.Time `json:"lastReviewedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	SnoozedUntil   *time.Time `json:"snoozedUntil,omitempty"`
}

// Clone returns a deep copy of the topic.
func (t Topic) Clone() Topic {
	out := t
	out.CategoryID = clonePtr(t.CategoryID)
	out.CategoryLabel = clonePtr(t.CategoryLabel)
	out.ReminderTime = clonePtr(t.ReminderTime)
	out.LastReviewedAt = clonePtr(t.LastReviewedAt)
	out.SnoozedUntil = clonePtr(t.SnoozedUntil)
	out.Intervals = append([]int(nil), t.Intervals...)
	return out
}

// TopicPayload carries the caller-supplied fields for creating or
// updating a topic.
type TopicPayload struct {
	Title        string  `json:"title"`
	Notes        string  `json:"notes"`
	CategoryID   *string `json:"categoryId,omitempty"`
	Icon         string  `json:"icon"`
	Color        string  `json:"color"`
	ReminderTime *string `json:"reminderTime,omitempty"`
	Intervals    []int   `json:"intervals"`
}

// Validate validates the topic payload.
func (p TopicPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.ReminderTime, validation.Match(reminderTimeRe)),
	)
}

// CategoryPayload carries the caller-supplied fields for creating a
// category.
type CategoryPayload struct {
	Label string  `json:"label"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

// Validate validates the category payload.
func (p CategoryPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Label, validation.Required),
	)
}

// Snapshot is a full, consistent copy of all topics and categories.
type Snapshot struct {
	Topics        []Topic    `json:"topics"`
	Categories    []Category `json:"categories"`
	SchemaVersion int        `json:"schemaVersion"`
}

// ExportEnvelope wraps a snapshot for backup/import interchange.
type ExportEnvelope struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Snapshot   Snapshot  `json:"snapshot"`
}

// Notification is the event emitted when a topic's reminder fires.
type Notification struct {
	TopicID       string  `json:"topicId"`
	Title         string  `json:"title"`
	CategoryLabel *string `json:"categoryLabel,omitempty"`
	ReminderTime  *string `json:"reminderTime,omitempty"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
