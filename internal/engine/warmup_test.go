package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surgeryos/dailydose/internal/catalog"
	"github.com/surgeryos/dailydose/internal/engine"
)

func reviewedState(id string, streakWrong int, reviewedDaysAgo int, now time.Time) engine.ReviewState {
	reviewed := now.AddDate(0, 0, -reviewedDaysAgo)
	return engine.ReviewState{
		CardID:          id,
		Box:             2,
		DueAt:           now.AddDate(0, 0, 1),
		IncorrectStreak: streakWrong,
		LastReviewedAt:  &reviewed,
	}
}

func TestSelectWarmupRecallCards_NoStateNeverEligible(t *testing.T) {
	eligible := []catalog.Card{card("new1", ""), card("new2", "")}
	got := engine.SelectWarmupRecallCards(eligible, nil, engine.MaxRecallCards, testNow)
	assert.Empty(t, got)
}

func TestSelectWarmupRecallCards_EligibilityRules(t *testing.T) {
	now := testNow
	eligible := []catalog.Card{card("wrong", ""), card("stale", ""), card("fresh", "")}
	states := map[string]engine.ReviewState{
		"wrong": reviewedState("wrong", 1, 2, now),
		"stale": reviewedState("stale", 0, engine.RecallStaleDays, now),
		"fresh": reviewedState("fresh", 0, 1, now),
	}

	got := engine.SelectWarmupRecallCards(eligible, states, 3, now)
	require.Len(t, got, 2)
	ids := []string{got[0].ID, got[1].ID}
	assert.Contains(t, ids, "wrong")
	assert.Contains(t, ids, "stale")
}

func TestSelectWarmupRecallCards_SortOrder(t *testing.T) {
	now := testNow
	eligible := []catalog.Card{card("older", ""), card("worst", ""), card("newer", "")}
	states := map[string]engine.ReviewState{
		"worst": reviewedState("worst", 3, 1, now),
		"older": reviewedState("older", 1, 20, now),
		"newer": reviewedState("newer", 1, 8, now),
	}

	got := engine.SelectWarmupRecallCards(eligible, states, 3, now)
	require.Len(t, got, 3)
	assert.Equal(t, "worst", got[0].ID)
	assert.Equal(t, "older", got[1].ID)
	assert.Equal(t, "newer", got[2].ID)
}

func TestSelectWarmupRecallCards_NeverReviewedSortsLast(t *testing.T) {
	now := testNow
	noDate := engine.ReviewState{CardID: "nodate", Box: 1, IncorrectStreak: 1}
	eligible := []catalog.Card{card("nodate", ""), card("dated", "")}
	states := map[string]engine.ReviewState{
		"nodate": noDate,
		"dated":  reviewedState("dated", 1, 5, now),
	}

	got := engine.SelectWarmupRecallCards(eligible, states, 2, now)
	require.Len(t, got, 2)
	assert.Equal(t, "dated", got[0].ID)
	assert.Equal(t, "nodate", got[1].ID)
}

func TestSelectWarmupRecallCards_Truncates(t *testing.T) {
	now := testNow
	eligible := []catalog.Card{card("a", ""), card("b", ""), card("c", "")}
	states := map[string]engine.ReviewState{
		"a": reviewedState("a", 2, 1, now),
		"b": reviewedState("b", 1, 1, now),
		"c": reviewedState("c", 1, 2, now),
	}

	got := engine.SelectWarmupRecallCards(eligible, states, engine.MaxRecallCards, now)
	assert.Len(t, got, engine.MaxRecallCards)
}
