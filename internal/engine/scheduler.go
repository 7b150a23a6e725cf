package engine

import "time"

// ReviewState is a learner's spaced-repetition state for one card.
type ReviewState struct {
	CardID          string     `json:"card_id"`
	Box             int        `json:"box"`
	DueAt           time.Time  `json:"due_at"`
	CorrectStreak   int        `json:"correct_streak"`
	IncorrectStreak int        `json:"incorrect_streak"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at,omitempty"`
}

// ReviewOutcome is the result of applying one answer to a card's state.
type ReviewOutcome struct {
	Box             int
	IntervalDays    int
	DueAt           time.Time
	CorrectStreak   int
	IncorrectStreak int
}

// IntervalForBox returns the review interval in days for a box. Out-of-range
// boxes are clamped rather than rejected, so stale stored state can never
// make scheduling fail.
func IntervalForBox(box int) int {
	return BoxIntervals[clampInt(box, 1, BoxCount)-1]
}

// ApplyReviewOutcome computes the next box, interval, due date, and streaks
// after one answer. Correct answers move the card up a box (capped at
// BoxCount); incorrect answers move it down (floored at 1). The due date is
// normalized to DueHour local time so due-card checks compare by date.
func ApplyReviewOutcome(currentBox int, correct bool, now time.Time, correctStreak, incorrectStreak int) ReviewOutcome {
	box := clampInt(currentBox, 1, BoxCount)

	if correct {
		box = clampInt(box+1, 1, BoxCount)
		correctStreak++
		incorrectStreak = 0
	} else {
		box = clampInt(box-1, 1, BoxCount)
		incorrectStreak++
		correctStreak = 0
	}

	interval := IntervalForBox(box)
	return ReviewOutcome{
		Box:             box,
		IntervalDays:    interval,
		DueAt:           NextDueAt(now, interval),
		CorrectStreak:   correctStreak,
		IncorrectStreak: incorrectStreak,
	}
}

// NextDueAt returns now + intervalDays, normalized to DueHour local time.
func NextDueAt(now time.Time, intervalDays int) time.Time {
	d := now.AddDate(0, 0, intervalDays)
	return time.Date(d.Year(), d.Month(), d.Day(), DueHour, 0, 0, 0, d.Location())
}

// IsDue reports whether a state's due date has passed relative to now.
func (s ReviewState) IsDue(now time.Time) bool {
	return !s.DueAt.After(now)
}

// DaysSinceReview returns whole days since the last review, or -1 if the
// card has never been reviewed.
func (s ReviewState) DaysSinceReview(now time.Time) int {
	if s.LastReviewedAt == nil {
		return -1
	}
	return int(now.Sub(*s.LastReviewedAt).Hours() / 24)
}
