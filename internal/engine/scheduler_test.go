package engine_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surgeryos/dailydose/internal/engine"
)

var testNow = time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)

func TestApplyReviewOutcome_Correct(t *testing.T) {
	for box := 1; box <= engine.BoxCount; box++ {
		t.Run(fmt.Sprintf("box%d", box), func(t *testing.T) {
			out := engine.ApplyReviewOutcome(box, true, testNow, 2, 1)

			wantBox := box + 1
			if wantBox > engine.BoxCount {
				wantBox = engine.BoxCount
			}
			assert.Equal(t, wantBox, out.Box)
			assert.Equal(t, 3, out.CorrectStreak)
			assert.Equal(t, 0, out.IncorrectStreak)
			assert.Equal(t, engine.IntervalForBox(wantBox), out.IntervalDays)
		})
	}
}

func TestApplyReviewOutcome_Incorrect(t *testing.T) {
	for box := 1; box <= engine.BoxCount; box++ {
		t.Run(fmt.Sprintf("box%d", box), func(t *testing.T) {
			out := engine.ApplyReviewOutcome(box, false, testNow, 4, 0)

			wantBox := box - 1
			if wantBox < 1 {
				wantBox = 1
			}
			assert.Equal(t, wantBox, out.Box)
			assert.Equal(t, 0, out.CorrectStreak)
			assert.Equal(t, 1, out.IncorrectStreak)
		})
	}
}

func TestApplyReviewOutcome_ClampsInvalidBox(t *testing.T) {
	tests := []struct {
		name    string
		box     int
		correct bool
		want    int
	}{
		{"below range correct", -3, true, 2},
		{"below range incorrect", 0, false, 1},
		{"above range correct", 99, true, engine.BoxCount},
		{"above range incorrect", 99, false, engine.BoxCount - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := engine.ApplyReviewOutcome(tt.box, tt.correct, testNow, 0, 0)
			assert.Equal(t, tt.want, out.Box)
		})
	}
}

func TestApplyReviewOutcome_DueAtNormalized(t *testing.T) {
	out := engine.ApplyReviewOutcome(1, true, testNow, 0, 0)

	want := testNow.AddDate(0, 0, out.IntervalDays)
	assert.Equal(t, want.Year(), out.DueAt.Year())
	assert.Equal(t, want.Month(), out.DueAt.Month())
	assert.Equal(t, want.Day(), out.DueAt.Day())
	assert.Equal(t, engine.DueHour, out.DueAt.Hour())
	assert.Equal(t, 0, out.DueAt.Minute())
}

func TestApplyReviewOutcome_IntervalRoundTrip(t *testing.T) {
	for box := 0; box <= engine.BoxCount+1; box++ {
		for _, correct := range []bool{true, false} {
			out := engine.ApplyReviewOutcome(box, correct, testNow, 1, 1)
			require.Equal(t, engine.IntervalForBox(out.Box), out.IntervalDays,
				"box %d correct %v", box, correct)
		}
	}
}

func TestIntervalForBox_Clamps(t *testing.T) {
	assert.Equal(t, engine.BoxIntervals[0], engine.IntervalForBox(-1))
	assert.Equal(t, engine.BoxIntervals[engine.BoxCount-1], engine.IntervalForBox(engine.BoxCount+5))
}

func TestReviewState_IsDue(t *testing.T) {
	due := engine.ReviewState{DueAt: testNow.Add(-time.Hour)}
	assert.True(t, due.IsDue(testNow))

	exact := engine.ReviewState{DueAt: testNow}
	assert.True(t, exact.IsDue(testNow))

	future := engine.ReviewState{DueAt: testNow.Add(time.Hour)}
	assert.False(t, future.IsDue(testNow))
}

func TestReviewState_DaysSinceReview(t *testing.T) {
	never := engine.ReviewState{}
	assert.Equal(t, -1, never.DaysSinceReview(testNow))

	then := testNow.AddDate(0, 0, -9)
	reviewed := engine.ReviewState{LastReviewedAt: &then}
	assert.Equal(t, 9, reviewed.DaysSinceReview(testNow))
}
