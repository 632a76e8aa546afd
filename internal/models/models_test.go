package models

import (
	"testing"
	"time"
)

func TestTopicCloneIsDeep(t *testing.T) {
	cat := "cat"
	when := time.Now()
	orig := Topic{
		ID:             "t1",
		Title:          "Original",
		CategoryID:     &cat,
		Intervals:      []int{1, 3, 7},
		LastReviewedAt: &when,
	}

	clone := orig.Clone()
	*clone.CategoryID = "other"
	clone.Intervals[0] = 99
	*clone.LastReviewedAt = when.Add(time.Hour)

	if *orig.CategoryID != "cat" {
		t.Errorf("category id mutated through clone: %q", *orig.CategoryID)
	}
	if orig.Intervals[0] != 1 {
		t.Errorf("intervals mutated through clone: %v", orig.Intervals)
	}
	if !orig.LastReviewedAt.Equal(when) {
		t.Error("lastReviewedAt mutated through clone")
	}
}

func TestTopicCloneNilPointers(t *testing.T) {
	clone := Topic{ID: "t1", Title: "Bare"}.Clone()
	if clone.CategoryID != nil || clone.SnoozedUntil != nil {
		t.Error("nil pointers should stay nil")
	}
}

func TestTopicPayloadValidate(t *testing.T) {
	good := "08:30"
	p := TopicPayload{Title: "Algebra", ReminderTime: &good}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	if err := (TopicPayload{}).Validate(); err == nil {
		t.Error("missing title should fail")
	}

	for _, bad := range []string{"25:00", "8:30", "12:60", "noon"} {
		rt := bad
		p := TopicPayload{Title: "Algebra", ReminderTime: &rt}
		if err := p.Validate(); err == nil {
			t.Errorf("reminder time %q should fail", bad)
		}
	}
}

func TestCategoryPayloadValidate(t *testing.T) {
	if err := (CategoryPayload{Label: "Math"}).Validate(); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if err := (CategoryPayload{}).Validate(); err == nil {
		t.Error("missing label should fail")
	}
}
