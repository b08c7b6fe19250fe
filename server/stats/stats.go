// Package stats summarizes a user's study activity.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/ayakoji/noteshare/store"
)

// collectScanLimit caps how many rows one summary reads per table.
const collectScanLimit = 10000

// Summary is a user's study activity at a glance.
type Summary struct {
	TotalNotes     int `json:"totalNotes"`
	NotesLastWeek  int `json:"notesLastWeek"`
	NotesLastMonth int `json:"notesLastMonth"`

	TotalQuizzes    int     `json:"totalQuizzes"`
	QuizzesReviewed int     `json:"quizzesReviewed"`
	ReviewAccuracy  float64 `json:"reviewAccuracy"`

	// ActiveDays counts days with any activity in the last 30 days,
	// StreakDays the consecutive active days ending now.
	ActiveDays     int   `json:"activeDays"`
	StreakDays     int   `json:"streakDays"`
	LastActivityTs int64 `json:"lastActivityTs,omitempty"`
}

// Collect gathers the study summary for one user.
func Collect(ctx context.Context, s *store.Store, userID int32) (*Summary, error) {
	limit := collectScanLimit
	normal := store.Normal

	notes, err := s.ListNotes(ctx, &store.FindNote{
		CreatorID:      &userID,
		RowStatus:      &normal,
		ExcludeContent: true,
		Limit:          &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	quizzes, err := s.ListQuizzes(ctx, &store.FindQuiz{
		CreatorID: &userID,
		Limit:     &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	return Summarize(notes, quizzes, time.Now()), nil
}

// Summarize computes the summary from already loaded rows. Days are counted
// in the timezone of now.
func Summarize(notes []*store.Note, quizzes []*store.Quiz, now time.Time) *Summary {
	weekAgo := now.AddDate(0, 0, -7).Unix()
	monthAgo := now.AddDate(0, 0, -30).Unix()

	summary := &Summary{
		TotalNotes:   len(notes),
		TotalQuizzes: len(quizzes),
	}

	activeDays := make(map[string]bool)
	var lastActivity int64
	markActivity := func(ts int64) {
		if ts <= 0 {
			return
		}
		if ts > lastActivity {
			lastActivity = ts
		}
		activeDays[time.Unix(ts, 0).In(now.Location()).Format("2006-01-02")] = true
	}

	for _, note := range notes {
		if note.CreatedTs >= weekAgo {
			summary.NotesLastWeek++
		}
		if note.CreatedTs >= monthAgo {
			summary.NotesLastMonth++
		}
		markActivity(note.CreatedTs)
		markActivity(note.UpdatedTs)
	}

	var reviews, correct int
	for _, quiz := range quizzes {
		if quiz.ReviewCount > 0 {
			summary.QuizzesReviewed++
			reviews += int(quiz.ReviewCount)
			correct += int(quiz.CorrectCount)
		}
		markActivity(quiz.CreatedTs)
		if quiz.LastReviewedTs != nil {
			markActivity(*quiz.LastReviewedTs)
		}
	}
	if reviews > 0 {
		summary.ReviewAccuracy = float64(correct) / float64(reviews)
	}

	for i := 0; i < 30; i++ {
		if activeDays[now.AddDate(0, 0, -i).Format("2006-01-02")] {
			summary.ActiveDays++
		}
	}

	for i := 0; i < 365; i++ {
		if activeDays[now.AddDate(0, 0, -i).Format("2006-01-02")] {
			summary.StreakDays++
			continue
		}
		if i == 0 {
			// Today is not over yet, an empty day so far does not
			// break the streak.
			continue
		}
		break
	}

	summary.LastActivityTs = lastActivity
	return summary
}
