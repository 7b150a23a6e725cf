// Package pathway evaluates curriculum progress: per-unit mastery status,
// theme-level red/amber/green health, and the single next unit a learner
// should study. All functions are pure; status values are always derived
// from the raw counters, never stored.
package pathway

import (
	"math"

	"github.com/surgeryos/dailydose/internal/catalog"
)

// UnitStatus is the derived mastery state of a unit.
type UnitStatus string

const (
	StatusNotStarted UnitStatus = "not_started"
	StatusInProgress UnitStatus = "in_progress"
	StatusSecure     UnitStatus = "secure"
)

// RAG is the aggregate health of a theme's units.
type RAG string

const (
	RAGNotStarted RAG = "not_started"
	RAGGreen      RAG = "green"
	RAGAmber      RAG = "amber"
	RAGRed        RAG = "red"
)

// Mastery thresholds. A unit is secure once the learner has completed at
// least SecureMinSessions sessions at SecureAccuracy or better; a theme is
// green/amber by the share of its units that are secure.
const (
	SecureAccuracy    = 0.80
	SecureMinSessions = 2
	GreenShare        = 0.80
	AmberShare        = 0.40
)

// UnitProgress is a learner's accumulated counters for one pathway unit.
type UnitProgress struct {
	UnitID            string
	Level             catalog.PathwayLevel
	Order             int
	SessionsCompleted int
	CorrectCount      int
	TotalQuestions    int
}

// Accuracy returns the unit's answer accuracy in [0,1]. Zero attempted
// questions count as zero accuracy rather than dividing by zero.
func (u UnitProgress) Accuracy() float64 {
	if u.TotalQuestions == 0 {
		return 0
	}
	return float64(u.CorrectCount) / float64(u.TotalQuestions)
}

// Status derives the unit's mastery status from its counters.
func (u UnitProgress) Status() UnitStatus {
	return ComputeUnitStatus(u.SessionsCompleted, u.CorrectCount, u.TotalQuestions)
}

// ComputeUnitStatus maps raw counters to a mastery status. The 80% accuracy
// boundary is inclusive.
func ComputeUnitStatus(sessionsCompleted, correctCount, totalQuestions int) UnitStatus {
	if sessionsCompleted == 0 {
		return StatusNotStarted
	}
	accuracy := 0.0
	if totalQuestions > 0 {
		accuracy = float64(correctCount) / float64(totalQuestions)
	}
	if accuracy >= SecureAccuracy && sessionsCompleted >= SecureMinSessions {
		return StatusSecure
	}
	return StatusInProgress
}

// ComputeThemeRAG aggregates unit statuses into a theme health indicator.
// An empty or fully not-started theme reports not-started; otherwise green
// at >=80% secure, amber at >=40%, red below.
func ComputeThemeRAG(units []UnitProgress) RAG {
	started := false
	secure := 0
	for _, u := range units {
		s := u.Status()
		if s != StatusNotStarted {
			started = true
		}
		if s == StatusSecure {
			secure++
		}
	}
	if !started {
		return RAGNotStarted
	}
	share := float64(secure) / float64(len(units))
	switch {
	case share >= GreenShare:
		return RAGGreen
	case share >= AmberShare:
		return RAGAmber
	default:
		return RAGRed
	}
}

// ComputeSecurePercentage returns the rounded percentage of secure units,
// 0 for an empty list.
func ComputeSecurePercentage(units []UnitProgress) int {
	if len(units) == 0 {
		return 0
	}
	secure := 0
	for _, u := range units {
		if u.Status() == StatusSecure {
			secure++
		}
	}
	return int(math.Round(float64(secure) / float64(len(units)) * 100))
}

// RecommendNextUnit picks the single unit a learner should study next:
//
//  1. the first not-secure intro unit, in pathway order;
//  2. else the weakest (lowest accuracy) not-secure core unit;
//  3. else the first not-secure stretch unit, in pathway order;
//  4. else — everything secure, maintenance mode — the lowest-accuracy
//     unit overall, earliest listed winning ties.
//
// Returns nil only for an empty unit list.
func RecommendNextUnit(units []UnitProgress) *UnitProgress {
	if len(units) == 0 {
		return nil
	}

	if u := firstNotSecureByOrder(units, catalog.LevelIntro); u != nil {
		return u
	}
	if u := weakestNotSecure(units, catalog.LevelCore); u != nil {
		return u
	}
	if u := firstNotSecureByOrder(units, catalog.LevelStretch); u != nil {
		return u
	}

	weakest := 0
	for i := 1; i < len(units); i++ {
		if units[i].Accuracy() < units[weakest].Accuracy() {
			weakest = i
		}
	}
	return &units[weakest]
}

func firstNotSecureByOrder(units []UnitProgress, level catalog.PathwayLevel) *UnitProgress {
	best := -1
	for i, u := range units {
		if u.Level != level || u.Status() == StatusSecure {
			continue
		}
		if best == -1 || u.Order < units[best].Order {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	return &units[best]
}

func weakestNotSecure(units []UnitProgress, level catalog.PathwayLevel) *UnitProgress {
	best := -1
	for i, u := range units {
		if u.Level != level || u.Status() == StatusSecure {
			continue
		}
		if best == -1 || u.Accuracy() < units[best].Accuracy() {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	return &units[best]
}
