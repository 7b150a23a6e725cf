package engine

import "github.com/surgeryos/dailydose/internal/catalog"

// BuildSessionQuiz assembles the end-of-session quiz. The primary pool is
// every question on the session cards; recall cards may contribute at most
// MaxRecallQuestions as top-up. Recency exclusion and type variety are soft
// constraints that relax, in that order, before the quiz is allowed to come
// up short — the only hard rule is never under-filling below the material
// that exists.
//
// targetLength is clamped to [MinQuizLength, MaxQuizLength]. The returned
// questions carry a 1-based Order.
func BuildSessionQuiz(sessionCards, recallCards []catalog.Card, recentIDs map[string]bool, targetLength int) []Question {
	targetLength = clampInt(targetLength, MinQuizLength, MaxQuizLength)

	var primary []Question
	for _, c := range sessionCards {
		primary = append(primary, ExtractAll(c)...)
	}
	primary = dedupeByID(primary)

	pool := ExcludeRecent(primary, recentIDs)

	// Top up from recall cards, bounded so recall stays a minority of the
	// quiz.
	if len(pool) < targetLength && len(recallCards) > 0 {
		var recallPool []Question
		for _, c := range recallCards {
			recallPool = append(recallPool, ExtractAll(c)...)
		}
		recallPool = ExcludeRecent(dedupeByID(recallPool), recentIDs)

		added := 0
		have := idSet(pool)
		for _, q := range recallPool {
			if added >= MaxRecallQuestions || len(pool) >= targetLength {
				break
			}
			if have[q.ID] {
				continue
			}
			pool = append(pool, q)
			have[q.ID] = true
			added++
		}
	}

	// Variety: cap true/false, relaxing the cap before sacrificing length.
	maxTF := MaxTrueFalse
	if len(pool) < targetLength {
		maxTF = RelaxedMaxTrueFalse
	}
	pool = ApplyVarietyConstraints(pool, maxTF)

	// Last resort: re-admit recently-seen questions rather than run a
	// short quiz while material exists.
	if len(pool) < targetLength {
		have := idSet(pool)
		for _, q := range primary {
			if len(pool) >= targetLength {
				break
			}
			if have[q.ID] {
				continue
			}
			pool = append(pool, q)
			have[q.ID] = true
		}
	}

	if len(pool) > targetLength {
		pool = pool[:targetLength]
	}

	quiz := make([]Question, len(pool))
	for i, q := range pool {
		q.Order = i + 1
		quiz[i] = q
	}
	return quiz
}

func dedupeByID(questions []Question) []Question {
	seen := map[string]bool{}
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out
}

func idSet(questions []Question) map[string]bool {
	s := make(map[string]bool, len(questions))
	for _, q := range questions {
		s[q.ID] = true
	}
	return s
}
