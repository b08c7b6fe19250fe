package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ayakoji/noteshare/store"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	daysAgo := func(n int) int64 {
		return now.AddDate(0, 0, -n).Unix()
	}

	t.Run("Empty input", func(t *testing.T) {
		summary := Summarize(nil, nil, now)
		assert.Equal(t, 0, summary.TotalNotes)
		assert.Equal(t, 0, summary.TotalQuizzes)
		assert.Equal(t, 0, summary.ActiveDays)
		assert.Equal(t, 0, summary.StreakDays)
		assert.Zero(t, summary.LastActivityTs)
	})

	t.Run("Note time windows", func(t *testing.T) {
		notes := []*store.Note{
			{CreatedTs: daysAgo(2), UpdatedTs: daysAgo(2)},
			{CreatedTs: daysAgo(10), UpdatedTs: daysAgo(10)},
			{CreatedTs: daysAgo(40), UpdatedTs: daysAgo(40)},
		}

		summary := Summarize(notes, nil, now)
		assert.Equal(t, 3, summary.TotalNotes)
		assert.Equal(t, 1, summary.NotesLastWeek)
		assert.Equal(t, 2, summary.NotesLastMonth)
	})

	t.Run("Review accuracy over reviewed quizzes", func(t *testing.T) {
		quizzes := []*store.Quiz{
			{CreatedTs: daysAgo(1), ReviewCount: 4, CorrectCount: 3},
			{CreatedTs: daysAgo(1), ReviewCount: 0},
			{CreatedTs: daysAgo(1), ReviewCount: 2, CorrectCount: 1},
		}

		summary := Summarize(nil, quizzes, now)
		assert.Equal(t, 3, summary.TotalQuizzes)
		assert.Equal(t, 2, summary.QuizzesReviewed)
		assert.InDelta(t, 4.0/6.0, summary.ReviewAccuracy, 0.0001)
	})

	t.Run("Streak breaks on a gap", func(t *testing.T) {
		notes := []*store.Note{
			{CreatedTs: daysAgo(0), UpdatedTs: daysAgo(0)},
			{CreatedTs: daysAgo(1), UpdatedTs: daysAgo(1)},
			{CreatedTs: daysAgo(2), UpdatedTs: daysAgo(2)},
			{CreatedTs: daysAgo(4), UpdatedTs: daysAgo(4)},
		}

		summary := Summarize(notes, nil, now)
		assert.Equal(t, 4, summary.ActiveDays)
		assert.Equal(t, 3, summary.StreakDays)
	})

	t.Run("Quiet today does not break the streak", func(t *testing.T) {
		notes := []*store.Note{
			{CreatedTs: daysAgo(1), UpdatedTs: daysAgo(1)},
			{CreatedTs: daysAgo(2), UpdatedTs: daysAgo(2)},
		}

		summary := Summarize(notes, nil, now)
		assert.Equal(t, 2, summary.StreakDays)
	})

	t.Run("Editing and reviewing count as activity", func(t *testing.T) {
		reviewed := daysAgo(0)
		notes := []*store.Note{
			{CreatedTs: daysAgo(10), UpdatedTs: daysAgo(1)},
		}
		quizzes := []*store.Quiz{
			{CreatedTs: daysAgo(10), ReviewCount: 1, CorrectCount: 1, LastReviewedTs: &reviewed},
		}

		summary := Summarize(notes, quizzes, now)
		assert.Equal(t, 2, summary.StreakDays)
		assert.Equal(t, reviewed, summary.LastActivityTs)
	})
}
