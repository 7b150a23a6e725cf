// Package catalog holds the learning-card content model and the loader that
// reads published cards and the pathway definition from a content directory.
package catalog

import "time"

// CardStatus is the editorial lifecycle state of a card. Only published
// cards are ever served to learners.
type CardStatus string

const (
	StatusDraft     CardStatus = "draft"
	StatusInReview  CardStatus = "in_review"
	StatusApproved  CardStatus = "approved"
	StatusPublished CardStatus = "published"
	StatusArchived  CardStatus = "archived"
	StatusRetired   CardStatus = "retired"
)

// QuestionType distinguishes question formats for variety balancing.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
)

// Card is one learning card. Published cards are immutable except via an
// explicit version bump.
type Card struct {
	ID           string
	Title        string
	TopicID      string
	BatchID      string // cards sharing a batch are studied together where possible
	Roles        []string
	Blocks       []Block
	Interactions []Interaction
	Sources      []Source
	Tags         []string
	Status       CardStatus
	Version      int
	ReviewBy     *time.Time
}

// Source is a citation backing a card's content.
type Source struct {
	Title string
	URL   string
}

// Interaction is a structured question attached to a card, separate from
// its content blocks.
type Interaction struct {
	Prompt  string
	Options []string
	Answer  string
	Type    QuestionType
}

// Block is one content block of a card. The set of implementations is
// closed: the unexported marker method keeps other packages from adding
// variants, so the question extractor's type switch covers every case.
type Block interface {
	isBlock()
}

// TextBlock is plain instructional prose.
type TextBlock struct {
	Text string
}

// RevealBlock is a prompt with a hidden answer the learner reveals.
type RevealBlock struct {
	Prompt string
	Answer string
}

// StepsBlock is an ordered procedure.
type StepsBlock struct {
	Title string
	Steps []string
}

// DoDontBlock contrasts recommended and discouraged practice.
type DoDontBlock struct {
	Dos   []string
	Donts []string
}

// QuestionBlock is an inline question embedded in the card's flow.
type QuestionBlock struct {
	Prompt  string
	Options []string
	Answer  string
	Type    QuestionType
}

func (TextBlock) isBlock()     {}
func (RevealBlock) isBlock()   {}
func (StepsBlock) isBlock()    {}
func (DoDontBlock) isBlock()   {}
func (QuestionBlock) isBlock() {}

// PathwayLevel is one of the three curriculum levels.
type PathwayLevel string

const (
	LevelIntro   PathwayLevel = "intro"
	LevelCore    PathwayLevel = "core"
	LevelStretch PathwayLevel = "stretch"
)

// Unit is one pathway unit: a themed group of cards at a level.
type Unit struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Level   PathwayLevel `yaml:"level"`
	Order   int          `yaml:"order"`
	Theme   string       `yaml:"theme"`
	TopicID string       `yaml:"topic_id"`
}

// Pathway is the full three-level curriculum definition.
type Pathway struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Units []Unit `yaml:"units"`
}
