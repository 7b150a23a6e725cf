package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surgeryos/dailydose/internal/catalog"
	"github.com/surgeryos/dailydose/internal/engine"
	"github.com/surgeryos/dailydose/internal/session"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := session.NewMemoryStore()

	id, err := store.CreateSession(session.Session{
		UserID:  "user-1",
		Scope:   "practice-a",
		CardIDs: []string{"c1", "c2"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, session.StateOpen, got.State)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, []string{"c1", "c2"}, got.CardIDs)
	assert.False(t, got.StartedAt.IsZero())
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	store := session.NewMemoryStore()
	_, err := store.GetSession("nope")
	assert.Error(t, err)
}

func TestMemoryStore_OpenSession(t *testing.T) {
	store := session.NewMemoryStore()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := store.CreateSession(session.Session{UserID: "u", Scope: "s", StartedAt: base})
	require.NoError(t, err)
	newer, err := store.CreateSession(session.Session{UserID: "u", Scope: "s", StartedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	_, err = store.CreateSession(session.Session{UserID: "u", Scope: "other", StartedAt: base.Add(2 * time.Hour)})
	require.NoError(t, err)

	got, ok := store.OpenSession("u", "s")
	require.True(t, ok)
	assert.Equal(t, newer, got.ID)

	_, ok = store.OpenSession("u", "missing-scope")
	assert.False(t, ok)
	_, ok = store.OpenSession("someone-else", "s")
	assert.False(t, ok)
}

func TestMemoryStore_CompleteSession(t *testing.T) {
	store := session.NewMemoryStore()
	id, err := store.CreateSession(session.Session{UserID: "u", Scope: "s", UnitID: "unit-1"})
	require.NoError(t, err)

	due := time.Date(2025, 3, 13, 8, 0, 0, 0, time.UTC)
	update := session.CompletionUpdate{
		Results: []session.CardResult{
			{CardID: "c1", CorrectCount: 2, QuestionCount: 2, QuestionIDs: []string{"q1", "q2"}},
		},
		States: []engine.ReviewState{
			{CardID: "c1", Box: 2, DueAt: due, CorrectStreak: 1},
		},
		Unit: &session.UnitDelta{
			UnitID:       "unit-1",
			Level:        catalog.LevelIntro,
			Order:        1,
			CorrectCount: 2,
			TotalCount:   2,
		},
	}
	require.NoError(t, store.CompleteSession(id, update))

	got, err := store.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, session.StateCompleted, got.State)
	require.NotNil(t, got.CompletedAt)
	require.Len(t, got.Results, 1)

	states, err := store.ReviewStates("u", []string{"c1", "c2"})
	require.NoError(t, err)
	require.Contains(t, states, "c1")
	assert.Equal(t, 2, states["c1"].Box)
	assert.NotContains(t, states, "c2")

	units, err := store.UnitProgress("u")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, 1, units[0].SessionsCompleted)
	assert.Equal(t, 2, units[0].CorrectCount)
	assert.Equal(t, 2, units[0].TotalQuestions)

	// Unit counters accumulate across sessions.
	id2, err := store.CreateSession(session.Session{UserID: "u", Scope: "s", UnitID: "unit-1"})
	require.NoError(t, err)
	require.NoError(t, store.CompleteSession(id2, update))
	units, err = store.UnitProgress("u")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, 2, units[0].SessionsCompleted)
	assert.Equal(t, 4, units[0].CorrectCount)
}

func TestMemoryStore_CompleteTwice(t *testing.T) {
	store := session.NewMemoryStore()
	id, err := store.CreateSession(session.Session{UserID: "u", Scope: "s"})
	require.NoError(t, err)

	require.NoError(t, store.CompleteSession(id, session.CompletionUpdate{}))
	assert.Error(t, store.CompleteSession(id, session.CompletionUpdate{}))
}

func TestMemoryStore_AbandonSession(t *testing.T) {
	store := session.NewMemoryStore()
	id, err := store.CreateSession(session.Session{UserID: "u", Scope: "s"})
	require.NoError(t, err)

	require.NoError(t, store.AbandonSession(id))

	got, err := store.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, session.StateAbandoned, got.State)

	assert.Error(t, store.AbandonSession(id))
	assert.Error(t, store.CompleteSession(id, session.CompletionUpdate{}))
}

func TestMemoryStore_RecentCompletedSessions(t *testing.T) {
	store := session.NewMemoryStore()

	for i := 0; i < 5; i++ {
		id, err := store.CreateSession(session.Session{UserID: "u", Scope: "s"})
		require.NoError(t, err)
		require.NoError(t, store.CompleteSession(id, session.CompletionUpdate{
			Results: []session.CardResult{{CardID: "c", QuestionIDs: []string{id}}},
		}))
	}
	// One still open, never returned.
	_, err := store.CreateSession(session.Session{UserID: "u", Scope: "s"})
	require.NoError(t, err)

	recent, err := store.RecentCompletedSessions("u", "s", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	for _, sess := range recent {
		assert.Equal(t, session.StateCompleted, sess.State)
	}
}
