package engine

import (
	"time"

	"github.com/surgeryos/dailydose/internal/catalog"
)

// SelectSessionCards chooses the cards for today's learning block.
// targetCount is clamped to [MinSessionCards, MaxSessionCards].
//
// Priority order is due cards, then new cards (no state), then cards with
// an incorrect streak. Cards sharing a batch are preferred as a whole:
// a batch that can fill the session on its own wins outright, otherwise
// the largest batch is taken and topped up from the priority list, and
// failing that, from the full eligible set. Returns fewer than targetCount
// only when the eligible set itself is smaller.
func SelectSessionCards(eligible []catalog.Card, states map[string]ReviewState, targetCount int, now time.Time) []catalog.Card {
	targetCount = clampInt(targetCount, MinSessionCards, MaxSessionCards)
	if len(eligible) == 0 {
		return nil
	}

	priority := prioritizeCards(eligible, states, now)

	// Group the priority list by batch. Cards without a batch never form
	// a first-choice group of their own.
	batchOrder := []string{}
	batches := map[string][]catalog.Card{}
	for _, c := range priority {
		if c.BatchID == "" {
			continue
		}
		if _, seen := batches[c.BatchID]; !seen {
			batchOrder = append(batchOrder, c.BatchID)
		}
		batches[c.BatchID] = append(batches[c.BatchID], c)
	}

	// A batch big enough to fill the whole session keeps the unit together.
	for _, id := range batchOrder {
		if len(batches[id]) >= targetCount {
			return batches[id][:targetCount]
		}
	}

	var selected []catalog.Card
	picked := map[string]bool{}

	// Otherwise start from the largest batch and top up globally.
	if largest := largestBatch(batchOrder, batches); largest != "" {
		for _, c := range batches[largest] {
			selected = append(selected, c)
			picked[c.ID] = true
		}
	}

	selected = fillFrom(selected, priority, picked, targetCount)
	selected = fillFrom(selected, eligible, picked, targetCount)
	return selected
}

// prioritizeCards orders eligible cards as due, then new, then cards with
// a standing incorrect streak. Cards matching none of those are left out;
// the final fallback in SelectSessionCards can still reach them.
func prioritizeCards(eligible []catalog.Card, states map[string]ReviewState, now time.Time) []catalog.Card {
	var due, fresh, struggling []catalog.Card
	for _, c := range eligible {
		st, ok := states[c.ID]
		switch {
		case ok && st.IsDue(now):
			due = append(due, c)
		case !ok:
			fresh = append(fresh, c)
		case st.IncorrectStreak > 0:
			struggling = append(struggling, c)
		}
	}
	out := make([]catalog.Card, 0, len(due)+len(fresh)+len(struggling))
	out = append(out, due...)
	out = append(out, fresh...)
	out = append(out, struggling...)
	return out
}

func largestBatch(order []string, batches map[string][]catalog.Card) string {
	best := ""
	for _, id := range order {
		if best == "" || len(batches[id]) > len(batches[best]) {
			best = id
		}
	}
	return best
}

func fillFrom(selected, pool []catalog.Card, picked map[string]bool, target int) []catalog.Card {
	for _, c := range pool {
		if len(selected) >= target {
			break
		}
		if picked[c.ID] {
			continue
		}
		selected = append(selected, c)
		picked[c.ID] = true
	}
	if len(selected) > target {
		selected = selected[:target]
	}
	return selected
}
