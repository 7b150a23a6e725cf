// Package session orchestrates Daily Dose practice sessions: starting and
// resuming them, assembling their quiz, and applying completion results to
// the learner's review state and pathway progress.
package session

import (
	"crypto/rand"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/surgeryos/dailydose/internal/catalog"
	"github.com/surgeryos/dailydose/internal/engine"
	"github.com/surgeryos/dailydose/internal/pathway"
)

// Session state values.
const (
	StateOpen      = "open"
	StateCompleted = "completed"
	StateAbandoned = "abandoned"
)

// CardResult records one card's quiz outcome at session completion.
type CardResult struct {
	CardID        string   `json:"card_id"`
	CorrectCount  int      `json:"correct_count"`
	QuestionCount int      `json:"question_count"`
	QuestionIDs   []string `json:"question_ids"`
}

// Session is one practice instance for a learner within a scope (one
// practice/surgery context). Completed sessions are never reopened.
type Session struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	Scope         string       `json:"scope"`
	UnitID        string       `json:"unit_id,omitempty"`
	CardIDs       []string     `json:"card_ids"`
	WarmupCardIDs []string     `json:"warmup_card_ids,omitempty"`
	State         string       `json:"state"`
	Results       []CardResult `json:"results,omitempty"`
	StartedAt     time.Time    `json:"started_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}

// UnitDelta bumps a learner's pathway counters for one unit as part of
// session completion.
type UnitDelta struct {
	UnitID       string
	Level        catalog.PathwayLevel
	Order        int
	CorrectCount int
	TotalCount   int
}

// CompletionUpdate is everything a completed session writes, applied
// atomically so overlapping completions cannot lose card-state updates.
type CompletionUpdate struct {
	Results []CardResult
	States  []engine.ReviewState
	Unit    *UnitDelta
}

// Store persists sessions, per-card review state, and pathway progress.
type Store interface {
	CreateSession(s Session) (string, error)
	GetSession(id string) (*Session, error)
	OpenSession(userID, scope string) (*Session, bool)
	CompleteSession(id string, update CompletionUpdate) error
	AbandonSession(id string) error
	RecentCompletedSessions(userID, scope string, n int) ([]Session, error)
	ReviewStates(userID string, cardIDs []string) (map[string]engine.ReviewState, error)
	UnitProgress(userID string) ([]pathway.UnitProgress, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	sessions map[string]*Session
	states   map[string]map[string]engine.ReviewState    // userID -> cardID -> state
	units    map[string]map[string]*pathway.UnitProgress // userID -> unitID -> progress
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		states:   make(map[string]map[string]engine.ReviewState),
		units:    make(map[string]map[string]*pathway.UnitProgress),
	}
}

func (s *MemoryStore) CreateSession(sess Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := generateID()
	sess.ID = id
	sess.State = StateOpen
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	s.sessions[id] = &sess
	return id, nil
}

func (s *MemoryStore) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	copied := *sess
	return &copied, nil
}

func (s *MemoryStore) OpenSession(userID, scope string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *Session
	for _, sess := range s.sessions {
		if sess.UserID != userID || sess.Scope != scope || sess.State != StateOpen {
			continue
		}
		if newest == nil || sess.StartedAt.After(newest.StartedAt) {
			newest = sess
		}
	}
	if newest == nil {
		return nil, false
	}
	copied := *newest
	return &copied, true
}

func (s *MemoryStore) CompleteSession(id string, update CompletionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	if sess.State != StateOpen {
		return fmt.Errorf("session %s is %s, not open", id, sess.State)
	}

	now := time.Now()
	sess.State = StateCompleted
	sess.CompletedAt = &now
	sess.Results = update.Results

	userStates := s.states[sess.UserID]
	if userStates == nil {
		userStates = make(map[string]engine.ReviewState)
		s.states[sess.UserID] = userStates
	}
	for _, st := range update.States {
		userStates[st.CardID] = st
	}

	if update.Unit != nil {
		s.applyUnitDelta(sess.UserID, *update.Unit)
	}
	return nil
}

func (s *MemoryStore) applyUnitDelta(userID string, d UnitDelta) {
	userUnits := s.units[userID]
	if userUnits == nil {
		userUnits = make(map[string]*pathway.UnitProgress)
		s.units[userID] = userUnits
	}
	up := userUnits[d.UnitID]
	if up == nil {
		up = &pathway.UnitProgress{UnitID: d.UnitID, Level: d.Level, Order: d.Order}
		userUnits[d.UnitID] = up
	}
	up.SessionsCompleted++
	up.CorrectCount += d.CorrectCount
	up.TotalQuestions += d.TotalCount
}

func (s *MemoryStore) AbandonSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	if sess.State != StateOpen {
		return fmt.Errorf("session %s is %s, not open", id, sess.State)
	}
	sess.State = StateAbandoned
	return nil
}

func (s *MemoryStore) RecentCompletedSessions(userID, scope string, n int) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var completed []Session
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.Scope == scope && sess.State == StateCompleted {
			completed = append(completed, *sess)
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].CompletedAt.After(*completed[j].CompletedAt)
	})
	if len(completed) > n {
		completed = completed[:n]
	}
	return completed, nil
}

func (s *MemoryStore) ReviewStates(userID string, cardIDs []string) (map[string]engine.ReviewState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]engine.ReviewState)
	userStates := s.states[userID]
	if userStates == nil {
		return out, nil
	}
	for _, id := range cardIDs {
		if st, ok := userStates[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

func (s *MemoryStore) UnitProgress(userID string) ([]pathway.UnitProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []pathway.UnitProgress
	for _, up := range s.units[userID] {
		out = append(out, *up)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
