package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surgeryos/dailydose/internal/catalog"
	"github.com/surgeryos/dailydose/internal/engine"
)

func q(id string, qtype catalog.QuestionType) engine.Question {
	return engine.Question{ID: id, Type: qtype}
}

func TestExcludeRecent(t *testing.T) {
	questions := []engine.Question{
		q("a", catalog.QuestionMultipleChoice),
		q("b", catalog.QuestionTrueFalse),
		q("c", catalog.QuestionMultipleChoice),
	}

	t.Run("empty set returns input", func(t *testing.T) {
		got := engine.ExcludeRecent(questions, nil)
		assert.Equal(t, questions, got)
	})

	t.Run("removes excluded ids", func(t *testing.T) {
		got := engine.ExcludeRecent(questions, map[string]bool{"b": true})
		require.Len(t, got, 2)
		for _, question := range got {
			assert.NotEqual(t, "b", question.ID)
		}
	})

	t.Run("excluding everything yields empty", func(t *testing.T) {
		got := engine.ExcludeRecent(questions, map[string]bool{"a": true, "b": true, "c": true})
		assert.Empty(t, got)
	})
}

func TestApplyVarietyConstraints_CapsTrueFalseUpFront(t *testing.T) {
	questions := []engine.Question{
		q("tf1", catalog.QuestionTrueFalse),
		q("tf2", catalog.QuestionTrueFalse),
		q("mc1", catalog.QuestionMultipleChoice),
		q("mc2", catalog.QuestionMultipleChoice),
	}

	got := engine.ApplyVarietyConstraints(questions, 1)

	// Same material, reordered: one true/false leads, the surplus moves
	// behind the multiple choice so truncation drops it first.
	require.Len(t, got, len(questions))
	assert.Equal(t, "tf1", got[0].ID)
	assert.Equal(t, "mc1", got[1].ID)
	assert.Equal(t, "mc2", got[2].ID)
	assert.Equal(t, "tf2", got[3].ID)
}

func TestApplyVarietyConstraints_NoTrueFalse(t *testing.T) {
	questions := []engine.Question{
		q("mc1", catalog.QuestionMultipleChoice),
		q("mc2", catalog.QuestionMultipleChoice),
	}
	got := engine.ApplyVarietyConstraints(questions, 1)
	assert.Equal(t, questions, got)
}

func TestApplyVarietyConstraints_UnderCap(t *testing.T) {
	questions := []engine.Question{
		q("tf1", catalog.QuestionTrueFalse),
		q("mc1", catalog.QuestionMultipleChoice),
	}
	got := engine.ApplyVarietyConstraints(questions, 2)
	assert.Equal(t, questions, got)
}

func TestApplyVarietyConstraints_NeverShrinks(t *testing.T) {
	questions := []engine.Question{
		q("tf1", catalog.QuestionTrueFalse),
		q("tf2", catalog.QuestionTrueFalse),
		q("tf3", catalog.QuestionTrueFalse),
	}
	got := engine.ApplyVarietyConstraints(questions, 1)
	assert.Len(t, got, 3)
}
