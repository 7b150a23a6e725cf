package pathway

import "github.com/surgeryos/dailydose/internal/catalog"

// LevelSummary rolls a level's units up for reporting screens and exports.
type LevelSummary struct {
	Level            catalog.PathwayLevel
	Units            int
	Secure           int
	SecurePercentage int
	RAG              RAG
}

// SummarizeLevels groups units by level and summarizes each, in the fixed
// intro/core/stretch order. Levels with no units are omitted.
func SummarizeLevels(units []UnitProgress) []LevelSummary {
	byLevel := map[catalog.PathwayLevel][]UnitProgress{}
	for _, u := range units {
		byLevel[u.Level] = append(byLevel[u.Level], u)
	}

	var summaries []LevelSummary
	for _, level := range []catalog.PathwayLevel{catalog.LevelIntro, catalog.LevelCore, catalog.LevelStretch} {
		group := byLevel[level]
		if len(group) == 0 {
			continue
		}
		secure := 0
		for _, u := range group {
			if u.Status() == StatusSecure {
				secure++
			}
		}
		summaries = append(summaries, LevelSummary{
			Level:            level,
			Units:            len(group),
			Secure:           secure,
			SecurePercentage: ComputeSecurePercentage(group),
			RAG:              ComputeThemeRAG(group),
		})
	}
	return summaries
}
