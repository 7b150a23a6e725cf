package engine

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/surgeryos/dailydose/internal/catalog"
)

// QuestionSource records where a question came from on its card.
type QuestionSource string

const (
	SourceContentBlock QuestionSource = "content_block"
	SourceInteraction  QuestionSource = "interaction"
)

// Question is an answerable question derived from a card. Identity is a
// content hash, so structurally identical questions — even on different
// cards — collapse to one id for exclusion purposes.
type Question struct {
	ID      string
	CardID  string
	Prompt  string
	Options []string
	Answer  string
	Type    catalog.QuestionType
	Context string
	Source  QuestionSource
	Order   int // 1-based position in the final quiz; 0 until assigned
}

var foldCaser = cases.Fold()

// normalizeText lowercases (Unicode case folding), NFC-normalizes, trims,
// and collapses internal whitespace. Hash inputs must survive cosmetic
// editing of the source card.
func normalizeText(s string) string {
	s = norm.NFC.String(foldCaser.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// GenerateQuestionID derives a stable id from the question's normalized
// prompt, sorted normalized options, normalized answer, and type. Option
// reordering and case/whitespace differences do not change the id.
func GenerateQuestionID(prompt string, options []string, answer string, qtype catalog.QuestionType) string {
	normOpts := make([]string, len(options))
	for i, o := range options {
		normOpts[i] = normalizeText(o)
	}
	sort.Strings(normOpts)

	payload := fmt.Sprintf("%s\x1f%s\x1f%s\x1f%s",
		normalizeText(prompt),
		strings.Join(normOpts, "\x1e"),
		normalizeText(answer),
		qtype,
	)
	sum := blake2b.Sum256([]byte(payload))
	return fmt.Sprintf("%x", sum[:16])
}

// ExtractFromBlocks walks a card's content blocks in order and returns one
// Question per question block. Each question's context is the card title
// plus all non-question prose that precedes it, so a question shown out of
// its card still reads sensibly.
func ExtractFromBlocks(card catalog.Card) []Question {
	var questions []Question
	contextParts := []string{card.Title}

	for _, block := range card.Blocks {
		switch b := block.(type) {
		case catalog.TextBlock:
			contextParts = append(contextParts, b.Text)
		case catalog.RevealBlock:
			contextParts = append(contextParts, b.Prompt, b.Answer)
		case catalog.StepsBlock:
			contextParts = append(contextParts, b.Title)
			contextParts = append(contextParts, b.Steps...)
		case catalog.DoDontBlock:
			contextParts = append(contextParts, b.Dos...)
			contextParts = append(contextParts, b.Donts...)
		case catalog.QuestionBlock:
			questions = append(questions, Question{
				ID:      GenerateQuestionID(b.Prompt, b.Options, b.Answer, b.Type),
				CardID:  card.ID,
				Prompt:  b.Prompt,
				Options: b.Options,
				Answer:  b.Answer,
				Type:    b.Type,
				Context: joinContext(contextParts),
				Source:  SourceContentBlock,
			})
		}
	}
	return questions
}

// ExtractFromInteractions returns one Question per structured interaction.
// Interactions are not interleaved with the block flow, so their context is
// the whole card's prose rather than a position-dependent prefix.
func ExtractFromInteractions(card catalog.Card) []Question {
	if len(card.Interactions) == 0 {
		return nil
	}

	contextParts := []string{card.Title}
	for _, block := range card.Blocks {
		switch b := block.(type) {
		case catalog.TextBlock:
			contextParts = append(contextParts, b.Text)
		case catalog.RevealBlock:
			contextParts = append(contextParts, b.Prompt, b.Answer)
		case catalog.StepsBlock:
			contextParts = append(contextParts, b.Title)
			contextParts = append(contextParts, b.Steps...)
		case catalog.DoDontBlock:
			contextParts = append(contextParts, b.Dos...)
			contextParts = append(contextParts, b.Donts...)
		case catalog.QuestionBlock:
			// question blocks contribute no prose context
		}
	}
	context := joinContext(contextParts)

	questions := make([]Question, 0, len(card.Interactions))
	for _, in := range card.Interactions {
		questions = append(questions, Question{
			ID:      GenerateQuestionID(in.Prompt, in.Options, in.Answer, in.Type),
			CardID:  card.ID,
			Prompt:  in.Prompt,
			Options: in.Options,
			Answer:  in.Answer,
			Type:    in.Type,
			Context: context,
			Source:  SourceInteraction,
		})
	}
	return questions
}

// ExtractAll returns a card's content-block questions followed by its
// interaction questions.
func ExtractAll(card catalog.Card) []Question {
	return append(ExtractFromBlocks(card), ExtractFromInteractions(card)...)
}

func joinContext(parts []string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, "\n")
}
