package pathway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surgeryos/dailydose/internal/catalog"
	"github.com/surgeryos/dailydose/internal/pathway"
)

// unit builds a UnitProgress whose counters yield the given accuracy out of
// ten questions per session.
func unit(id string, level catalog.PathwayLevel, order, sessions, correct, total int) pathway.UnitProgress {
	return pathway.UnitProgress{
		UnitID:            id,
		Level:             level,
		Order:             order,
		SessionsCompleted: sessions,
		CorrectCount:      correct,
		TotalQuestions:    total,
	}
}

func secureUnit(id string, level catalog.PathwayLevel, order int) pathway.UnitProgress {
	return unit(id, level, order, 3, 9, 10)
}

func TestComputeUnitStatus(t *testing.T) {
	tests := []struct {
		name     string
		sessions int
		correct  int
		total    int
		want     pathway.UnitStatus
	}{
		{"no sessions", 0, 0, 0, pathway.StatusNotStarted},
		{"no sessions ignores counters", 0, 8, 10, pathway.StatusNotStarted},
		{"one session below minimum", 1, 10, 10, pathway.StatusInProgress},
		{"accuracy below threshold", 3, 7, 10, pathway.StatusInProgress},
		{"exactly at threshold", 2, 8, 10, pathway.StatusSecure},
		{"threshold inclusive on odd totals", 2, 4, 5, pathway.StatusSecure},
		{"above threshold", 4, 19, 20, pathway.StatusSecure},
		{"sessions but zero questions", 2, 0, 0, pathway.StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pathway.ComputeUnitStatus(tt.sessions, tt.correct, tt.total)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnitProgress_Accuracy(t *testing.T) {
	assert.Zero(t, unit("u", catalog.LevelIntro, 1, 1, 0, 0).Accuracy())
	assert.InDelta(t, 0.75, unit("u", catalog.LevelIntro, 1, 1, 3, 4).Accuracy(), 1e-9)
}

func TestComputeThemeRAG(t *testing.T) {
	secure := secureUnit("s", catalog.LevelCore, 1)
	inProgress := unit("p", catalog.LevelCore, 2, 1, 5, 10)
	fresh := unit("n", catalog.LevelCore, 3, 0, 0, 0)

	tests := []struct {
		name  string
		units []pathway.UnitProgress
		want  pathway.RAG
	}{
		{"empty theme", nil, pathway.RAGNotStarted},
		{"all fresh", []pathway.UnitProgress{fresh, fresh}, pathway.RAGNotStarted},
		{"all secure", []pathway.UnitProgress{secure, secure}, pathway.RAGGreen},
		{"four of five secure is green", []pathway.UnitProgress{secure, secure, secure, secure, inProgress}, pathway.RAGGreen},
		{"two of five secure is amber", []pathway.UnitProgress{secure, secure, inProgress, inProgress, fresh}, pathway.RAGAmber},
		{"one of five secure is red", []pathway.UnitProgress{secure, inProgress, inProgress, fresh, fresh}, pathway.RAGRed},
		{"started but none secure is red", []pathway.UnitProgress{inProgress, fresh}, pathway.RAGRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pathway.ComputeThemeRAG(tt.units))
		})
	}
}

func TestComputeSecurePercentage(t *testing.T) {
	secure := secureUnit("s", catalog.LevelCore, 1)
	fresh := unit("n", catalog.LevelCore, 2, 0, 0, 0)

	assert.Equal(t, 0, pathway.ComputeSecurePercentage(nil))
	assert.Equal(t, 100, pathway.ComputeSecurePercentage([]pathway.UnitProgress{secure}))
	assert.Equal(t, 33, pathway.ComputeSecurePercentage([]pathway.UnitProgress{secure, fresh, fresh}))
	assert.Equal(t, 67, pathway.ComputeSecurePercentage([]pathway.UnitProgress{secure, secure, fresh}))
}

func TestRecommendNextUnit_EmptyList(t *testing.T) {
	assert.Nil(t, pathway.RecommendNextUnit(nil))
}

func TestRecommendNextUnit_IntroFirstByOrder(t *testing.T) {
	units := []pathway.UnitProgress{
		unit("intro-2", catalog.LevelIntro, 2, 0, 0, 0),
		unit("intro-1", catalog.LevelIntro, 1, 1, 2, 10),
		unit("core-1", catalog.LevelCore, 1, 0, 0, 0),
	}

	got := pathway.RecommendNextUnit(units)
	require.NotNil(t, got)
	assert.Equal(t, "intro-1", got.UnitID)
}

func TestRecommendNextUnit_WeakestCoreAfterIntroSecure(t *testing.T) {
	units := []pathway.UnitProgress{
		secureUnit("intro-1", catalog.LevelIntro, 1),
		unit("core-strong", catalog.LevelCore, 1, 2, 7, 10),
		unit("core-weak", catalog.LevelCore, 2, 2, 3, 10),
	}

	got := pathway.RecommendNextUnit(units)
	require.NotNil(t, got)
	assert.Equal(t, "core-weak", got.UnitID)
}

func TestRecommendNextUnit_StretchAfterCoreSecure(t *testing.T) {
	units := []pathway.UnitProgress{
		secureUnit("intro-1", catalog.LevelIntro, 1),
		secureUnit("core-1", catalog.LevelCore, 1),
		unit("stretch-2", catalog.LevelStretch, 2, 0, 0, 0),
		unit("stretch-1", catalog.LevelStretch, 1, 0, 0, 0),
	}

	got := pathway.RecommendNextUnit(units)
	require.NotNil(t, got)
	assert.Equal(t, "stretch-1", got.UnitID)
}

func TestRecommendNextUnit_MaintenanceMode(t *testing.T) {
	units := []pathway.UnitProgress{
		unit("intro-1", catalog.LevelIntro, 1, 3, 10, 10),
		unit("core-1", catalog.LevelCore, 1, 3, 8, 10),
		unit("stretch-1", catalog.LevelStretch, 1, 3, 9, 10),
	}

	got := pathway.RecommendNextUnit(units)
	require.NotNil(t, got)
	assert.Equal(t, "core-1", got.UnitID)
}

func TestSummarizeLevels(t *testing.T) {
	units := []pathway.UnitProgress{
		unit("stretch-1", catalog.LevelStretch, 1, 0, 0, 0),
		secureUnit("intro-1", catalog.LevelIntro, 1),
		secureUnit("intro-2", catalog.LevelIntro, 2),
		unit("intro-3", catalog.LevelIntro, 3, 1, 5, 10),
	}

	summaries := pathway.SummarizeLevels(units)
	require.Len(t, summaries, 2) // no core units

	assert.Equal(t, catalog.LevelIntro, summaries[0].Level)
	assert.Equal(t, 3, summaries[0].Units)
	assert.Equal(t, 2, summaries[0].Secure)
	assert.Equal(t, 67, summaries[0].SecurePercentage)
	assert.Equal(t, pathway.RAGAmber, summaries[0].RAG)

	assert.Equal(t, catalog.LevelStretch, summaries[1].Level)
	assert.Equal(t, pathway.RAGNotStarted, summaries[1].RAG)
}
