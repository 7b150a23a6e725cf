package engine

import "time"

// ResumeDecision says what to do with a learner's most recent session
// before any card selection runs.
type ResumeDecision int

const (
	// StartNew means no usable open session exists; select fresh cards.
	StartNew ResumeDecision = iota
	// Resume means the open session is recent enough to continue.
	Resume
	// Abandon means an open session exists but fell outside the
	// resumability window; it should be closed out, then a new one started.
	Abandon
)

// ShouldResume gates the selector pipeline. completedAt nil means the
// session is still open; open sessions started within ResumeWindow are
// resumed, older ones abandoned.
func ShouldResume(now, startedAt time.Time, completedAt *time.Time) ResumeDecision {
	if completedAt != nil {
		return StartNew
	}
	if now.Sub(startedAt) <= ResumeWindow {
		return Resume
	}
	return Abandon
}
