package engine

import (
	"sort"
	"time"

	"github.com/surgeryos/dailydose/internal/catalog"
)

// SelectWarmupRecallCards picks up to maxCount cards for retrieval-practice
// warm-up. A card qualifies if it has review state and either carries an
// incorrect streak or has not been reviewed for RecallStaleDays. Cards with
// no state have nothing to recall and are never eligible.
//
// Priority: higher incorrect streak first; among equal streaks, the card
// reviewed longest ago first, with never-reviewed dates sorting last.
func SelectWarmupRecallCards(eligible []catalog.Card, states map[string]ReviewState, maxCount int, now time.Time) []catalog.Card {
	if maxCount <= 0 {
		return nil
	}

	type candidate struct {
		card  catalog.Card
		state ReviewState
	}
	var candidates []candidate
	for _, c := range eligible {
		st, ok := states[c.ID]
		if !ok {
			continue
		}
		stale := st.LastReviewedAt != nil && st.DaysSinceReview(now) >= RecallStaleDays
		if st.IncorrectStreak > 0 || stale {
			candidates = append(candidates, candidate{card: c, state: st})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].state, candidates[j].state
		if a.IncorrectStreak != b.IncorrectStreak {
			return a.IncorrectStreak > b.IncorrectStreak
		}
		switch {
		case a.LastReviewedAt == nil:
			return false
		case b.LastReviewedAt == nil:
			return true
		default:
			return a.LastReviewedAt.Before(*b.LastReviewedAt)
		}
	})

	if len(candidates) > maxCount {
		candidates = candidates[:maxCount]
	}
	cards := make([]catalog.Card, len(candidates))
	for i, c := range candidates {
		cards[i] = c.card
	}
	return cards
}
