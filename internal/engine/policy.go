// Package engine implements the Daily Dose learning core: spaced-repetition
// scheduling, question extraction, session composition, and quiz assembly.
// Every function in this package is pure — callers supply a catalog/state
// snapshot and persist whatever comes back.
package engine

import "time"

// BoxIntervals holds the review interval, in days, for each mastery box.
// Box b (1-based) maps to BoxIntervals[b-1]. Tuned for a short daily
// session; not validated against learning-outcome data yet.
var BoxIntervals = [...]int{1, 3, 7, 14, 30}

// BoxCount is the number of mastery boxes.
const BoxCount = len(BoxIntervals)

// DueHour is the local hour of day all due dates are normalized to, so
// that "due today" comparisons work by date rather than by timestamp.
const DueHour = 8

// Session composition bounds.
const (
	MinSessionCards     = 3
	MaxSessionCards     = 5
	DefaultSessionCards = 4
)

// Quiz length bounds.
const (
	MinQuizLength     = 4
	MaxQuizLength     = 6
	DefaultQuizLength = 5
)

// Variety constraints on the quiz: at most MaxTrueFalse true/false
// questions, relaxed to RelaxedMaxTrueFalse when the pool runs short.
const (
	MaxTrueFalse        = 1
	RelaxedMaxTrueFalse = 2
)

// Warm-up recall policy.
const (
	MaxRecallCards = 2
	// MaxRecallQuestions bounds how many quiz questions may come from
	// recall cards rather than session cards.
	MaxRecallQuestions = 2
	// RecallStaleDays is the days-since-review threshold past which a
	// card becomes recall-eligible even without errors.
	RecallStaleDays = 7
)

// ExcludeLastNSessions is how many recently completed sessions feed the
// recent-question exclusion set.
const ExcludeLastNSessions = 3

// ResumeWindow is how long an open session remains resumable. Older open
// sessions are abandoned and a fresh one is started.
const ResumeWindow = 6 * time.Hour

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
