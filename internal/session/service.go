package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/surgeryos/dailydose/internal/catalog"
	"github.com/surgeryos/dailydose/internal/engine"
	"github.com/surgeryos/dailydose/internal/pathway"
)

// ErrNoEligibleContent is returned when the catalog has nothing to serve
// the learner; callers surface a user-facing message for it.
var ErrNoEligibleContent = errors.New("no eligible content")

// ErrSessionNotOpen is returned for completion of a session that is
// already completed or abandoned. Sessions are never reopened.
var ErrSessionNotOpen = errors.New("session not open")

// CatalogReader is the read contract onto the published card catalog.
type CatalogReader interface {
	PublishedForRole(role string, topicIDs []string) []catalog.Card
	GetCard(id string) (catalog.Card, bool)
	Pathway() catalog.Pathway
}

// ServiceConfig holds dependencies for the session service.
type ServiceConfig struct {
	Catalog CatalogReader
	Store   Store
	Recent  *RecentQuestionCache // optional
	Events  EventLogger          // optional, defaults to nop
	Now     func() time.Time     // optional, defaults to time.Now
}

// Service runs the Daily Dose session lifecycle over the pure engine.
type Service struct {
	catalog CatalogReader
	store   Store
	recent  *RecentQuestionCache
	events  EventLogger
	now     func() time.Time
}

// NewService creates a session service.
func NewService(cfg ServiceConfig) *Service {
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		catalog: cfg.Catalog,
		store:   cfg.Store,
		recent:  cfg.Recent,
		events:  events,
		now:     now,
	}
}

// StartRequest describes a session-start call.
type StartRequest struct {
	UserID     string
	Scope      string
	Role       string
	TopicIDs   []string
	UnitID     string
	CardCount  int // 0 means the policy default
	QuizLength int // 0 means the policy default
}

// Plan is the assembled session handed back to the caller: the cards to
// show, the warm-up cards, and the end-of-session quiz.
type Plan struct {
	SessionID   string
	Resumed     bool
	Cards       []catalog.Card
	WarmupCards []catalog.Card
	Quiz        []engine.Question
}

// StartSession resumes a recent open session or assembles and persists a
// new one. Returns ErrNoEligibleContent when the catalog offers nothing
// for this learner.
func (s *Service) StartSession(ctx context.Context, req StartRequest) (*Plan, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	now := s.now()

	if open, ok := s.store.OpenSession(req.UserID, req.Scope); ok {
		switch engine.ShouldResume(now, open.StartedAt, open.CompletedAt) {
		case engine.Resume:
			return s.resume(ctx, req, open)
		case engine.Abandon:
			if err := s.store.AbandonSession(open.ID); err != nil {
				slog.Warn("failed to abandon stale session", "session_id", open.ID, "error", err)
			}
			s.logEvent(Event{SessionID: open.ID, UserID: req.UserID, EventType: EventSessionAbandoned})
		}
	}

	eligible := s.catalog.PublishedForRole(req.Role, req.TopicIDs)
	if len(eligible) == 0 {
		return nil, ErrNoEligibleContent
	}

	cardIDs := make([]string, len(eligible))
	for i, c := range eligible {
		cardIDs[i] = c.ID
	}
	states, err := s.store.ReviewStates(req.UserID, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("reading review states: %w", err)
	}

	cardCount := req.CardCount
	if cardCount == 0 {
		cardCount = engine.DefaultSessionCards
	}
	cards := engine.SelectSessionCards(eligible, states, cardCount, now)
	if len(cards) == 0 {
		return nil, ErrNoEligibleContent
	}

	selected := map[string]bool{}
	for _, c := range cards {
		selected[c.ID] = true
	}
	var warmupPool []catalog.Card
	for _, c := range eligible {
		if !selected[c.ID] {
			warmupPool = append(warmupPool, c)
		}
	}
	warmup := engine.SelectWarmupRecallCards(warmupPool, states, engine.MaxRecallCards, now)

	recentIDs, err := s.recentQuestionIDs(ctx, req.UserID, req.Scope)
	if err != nil {
		return nil, err
	}

	quizLen := req.QuizLength
	if quizLen == 0 {
		quizLen = engine.DefaultQuizLength
	}
	quiz := engine.BuildSessionQuiz(cards, warmup, recentIDs, quizLen)

	sess := Session{
		UserID:        req.UserID,
		Scope:         req.Scope,
		UnitID:        req.UnitID,
		CardIDs:       idsOf(cards),
		WarmupCardIDs: idsOf(warmup),
		StartedAt:     now,
	}
	id, err := s.store.CreateSession(sess)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logEvent(Event{
		SessionID: id,
		UserID:    req.UserID,
		EventType: EventSessionStarted,
		Data: map[string]any{
			"cards":     len(cards),
			"warmup":    len(warmup),
			"questions": len(quiz),
		},
	})
	slog.Info("session started",
		"session_id", id,
		"user_id", req.UserID,
		"cards", len(cards),
		"warmup", len(warmup),
		"questions", len(quiz),
	)

	return &Plan{
		SessionID:   id,
		Cards:       cards,
		WarmupCards: warmup,
		Quiz:        quiz,
	}, nil
}

// resume rebuilds the plan for an open session from its stored card lists.
func (s *Service) resume(ctx context.Context, req StartRequest, open *Session) (*Plan, error) {
	cards := s.cardsByID(open.CardIDs)
	warmup := s.cardsByID(open.WarmupCardIDs)
	if len(cards) == 0 {
		// Catalog changed underneath the open session; abandon and
		// let the caller start over.
		if err := s.store.AbandonSession(open.ID); err != nil {
			slog.Warn("failed to abandon orphaned session", "session_id", open.ID, "error", err)
		}
		return nil, ErrNoEligibleContent
	}

	recentIDs, err := s.recentQuestionIDs(ctx, req.UserID, req.Scope)
	if err != nil {
		return nil, err
	}

	quizLen := req.QuizLength
	if quizLen == 0 {
		quizLen = engine.DefaultQuizLength
	}
	quiz := engine.BuildSessionQuiz(cards, warmup, recentIDs, quizLen)

	s.logEvent(Event{SessionID: open.ID, UserID: req.UserID, EventType: EventSessionResumed})
	slog.Info("session resumed", "session_id", open.ID, "user_id", req.UserID)

	return &Plan{
		SessionID:   open.ID,
		Resumed:     true,
		Cards:       cards,
		WarmupCards: warmup,
		Quiz:        quiz,
	}, nil
}

// CompleteRequest carries a session's final results.
type CompleteRequest struct {
	SessionID string
	Results   []CardResult
}

// CompleteSession records results, advances each answered card's review
// state, bumps the session's pathway unit counters, and invalidates the
// recent-question cache. The whole card-result batch is persisted through
// one Store call so overlapping completions cannot lose updates.
func (s *Service) CompleteSession(ctx context.Context, req CompleteRequest) error {
	sess, err := s.store.GetSession(req.SessionID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if sess.State != StateOpen {
		return fmt.Errorf("%w: %s is %s", ErrSessionNotOpen, sess.ID, sess.State)
	}

	now := s.now()

	cardIDs := make([]string, len(req.Results))
	for i, r := range req.Results {
		cardIDs[i] = r.CardID
	}
	states, err := s.store.ReviewStates(sess.UserID, cardIDs)
	if err != nil {
		return fmt.Errorf("reading review states: %w", err)
	}

	update := CompletionUpdate{Results: req.Results}
	correctTotal, questionTotal := 0, 0
	for _, r := range req.Results {
		prev := states[r.CardID] // zero value for first review
		outcome := engine.ApplyReviewOutcome(prev.Box, cardAnsweredCorrectly(r), now, prev.CorrectStreak, prev.IncorrectStreak)

		reviewedAt := now
		update.States = append(update.States, engine.ReviewState{
			CardID:          r.CardID,
			Box:             outcome.Box,
			DueAt:           outcome.DueAt,
			CorrectStreak:   outcome.CorrectStreak,
			IncorrectStreak: outcome.IncorrectStreak,
			LastReviewedAt:  &reviewedAt,
		})

		correctTotal += r.CorrectCount
		questionTotal += r.QuestionCount
	}

	if sess.UnitID != "" {
		if unit, ok := s.findUnit(sess.UnitID); ok {
			update.Unit = &UnitDelta{
				UnitID:       unit.ID,
				Level:        unit.Level,
				Order:        unit.Order,
				CorrectCount: correctTotal,
				TotalCount:   questionTotal,
			}
		}
	}

	if err := s.store.CompleteSession(sess.ID, update); err != nil {
		return fmt.Errorf("completing session: %w", err)
	}

	s.recent.Invalidate(ctx, sess.UserID, sess.Scope)
	s.logEvent(Event{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		EventType: EventSessionCompleted,
		Data: map[string]any{
			"correct": correctTotal,
			"total":   questionTotal,
		},
	})
	slog.Info("session completed",
		"session_id", sess.ID,
		"user_id", sess.UserID,
		"correct", correctTotal,
		"total", questionTotal,
	)
	return nil
}

// UnitProgress returns the learner's progress across every pathway unit,
// including units they have not started yet.
func (s *Service) UnitProgress(userID string) ([]pathway.UnitProgress, error) {
	stored, err := s.store.UnitProgress(userID)
	if err != nil {
		return nil, fmt.Errorf("reading unit progress: %w", err)
	}

	byID := make(map[string]pathway.UnitProgress, len(stored))
	for _, up := range stored {
		byID[up.UnitID] = up
	}

	defn := s.catalog.Pathway()
	out := make([]pathway.UnitProgress, 0, len(defn.Units))
	for _, u := range defn.Units {
		if up, ok := byID[u.ID]; ok {
			out = append(out, up)
			continue
		}
		out = append(out, pathway.UnitProgress{UnitID: u.ID, Level: u.Level, Order: u.Order})
	}
	return out, nil
}

// NextUnit recommends what the learner should study next, or nil when the
// pathway is empty.
func (s *Service) NextUnit(userID string) (*pathway.UnitProgress, error) {
	units, err := s.UnitProgress(userID)
	if err != nil {
		return nil, err
	}
	return pathway.RecommendNextUnit(units), nil
}

// recentQuestionIDs unions the recorded question ids of the last
// ExcludeLastNSessions completed sessions, read through the cache.
func (s *Service) recentQuestionIDs(ctx context.Context, userID, scope string) (map[string]bool, error) {
	if set, ok := s.recent.Get(ctx, userID, scope); ok {
		return set, nil
	}

	sessions, err := s.store.RecentCompletedSessions(userID, scope, engine.ExcludeLastNSessions)
	if err != nil {
		return nil, fmt.Errorf("reading session history: %w", err)
	}

	set := map[string]bool{}
	for _, sess := range sessions {
		for _, r := range sess.Results {
			for _, id := range r.QuestionIDs {
				set[id] = true
			}
		}
	}
	s.recent.Set(ctx, userID, scope, set)
	return set, nil
}

// cardAnsweredCorrectly maps a card's quiz tally to the scheduler's binary
// outcome: a card passes when at least half its questions were right.
func cardAnsweredCorrectly(r CardResult) bool {
	if r.QuestionCount == 0 {
		return false
	}
	return r.CorrectCount*2 >= r.QuestionCount
}

func (s *Service) findUnit(id string) (catalog.Unit, bool) {
	for _, u := range s.catalog.Pathway().Units {
		if u.ID == id {
			return u, true
		}
	}
	return catalog.Unit{}, false
}

func (s *Service) cardsByID(ids []string) []catalog.Card {
	var cards []catalog.Card
	for _, id := range ids {
		if c, ok := s.catalog.GetCard(id); ok {
			cards = append(cards, c)
		}
	}
	return cards
}

func idsOf(cards []catalog.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func (s *Service) logEvent(e Event) {
	if err := s.events.LogEvent(e); err != nil {
		slog.Warn("failed to log event", "type", e.EventType, "error", err)
	}
}
