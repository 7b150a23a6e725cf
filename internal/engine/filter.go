package engine

import "github.com/surgeryos/dailydose/internal/catalog"

// ExcludeRecent removes questions whose ids appear in recentIDs. With an
// empty exclusion set the input comes back unchanged.
func ExcludeRecent(questions []Question, recentIDs map[string]bool) []Question {
	if len(recentIDs) == 0 {
		return questions
	}
	kept := make([]Question, 0, len(questions))
	for _, q := range questions {
		if !recentIDs[q.ID] {
			kept = append(kept, q)
		}
	}
	return kept
}

// ApplyVarietyConstraints rebalances a question pool by type: at most
// maxTrueFalse true/false questions lead, then everything else. Variety is
// a soft preference — if capping true/false would shrink the pool while
// more true/false remain, the surplus is backfilled past the cap rather
// than under-filling the set.
func ApplyVarietyConstraints(questions []Question, maxTrueFalse int) []Question {
	var trueFalse, others []Question
	for _, q := range questions {
		if q.Type == catalog.QuestionTrueFalse {
			trueFalse = append(trueFalse, q)
		} else {
			others = append(others, q)
		}
	}

	capped := trueFalse
	if maxTrueFalse < len(trueFalse) {
		capped = trueFalse[:maxTrueFalse]
	}

	result := make([]Question, 0, len(questions))
	result = append(result, capped...)
	result = append(result, others...)

	// Completeness beats variety: restore capped true/false questions
	// rather than return fewer than we were given.
	if len(result) < len(questions) {
		result = append(result, trueFalse[len(capped):]...)
	}
	return result
}
