// Package review implements the spaced-repetition interval arithmetic.
package review

import (
	"sort"
	"time"
)

// Normalize filters intervals to strictly positive values, sorts them
// ascending, and removes duplicates. An input that normalizes to nothing
// yields [1] so a topic always has at least a one-day ladder.
func Normalize(intervals []int) []int {
	out := make([]int, 0, len(intervals))
	for _, v := range intervals {
		if v > 0 {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []int{1}
	}
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[i-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

// NextReview computes the next review timestamp: the base time (the last
// review if there was one, otherwise now) plus intervals[index] days.
// The index is clamped into the valid range of the ladder.
func NextReview(lastReviewedAt *time.Time, intervals []int, index int, now time.Time) time.Time {
	base := now
	if lastReviewedAt != nil {
		base = *lastReviewedAt
	}
	index = ClampIndex(intervals, index)
	return base.AddDate(0, 0, intervals[index])
}

// Advance returns the next ladder index after a review. The ladder
// saturates at its last interval; it never cycles.
func Advance(intervals []int, index int) int {
	if index+1 >= len(intervals) {
		return len(intervals) - 1
	}
	return index + 1
}

// ClampIndex clamps index into [0, len(intervals)-1].
func ClampIndex(intervals []int, index int) int {
	if index < 0 {
		return 0
	}
	if index >= len(intervals) {
		return len(intervals) - 1
	}
	return index
}
