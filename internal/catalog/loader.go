package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads and caches card content and the pathway definition from the
// content directory.
type Loader struct {
	rootDir string
	cards   map[string]Card
	pathway Pathway
	mu      sync.RWMutex
}

// NewLoader creates a loader and reads all content under rootDir.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		cards:   make(map[string]Card),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	slog.Info("catalog loaded", "cards", len(l.cards), "units", len(l.pathway.Units))
	return l, nil
}

// GetCard returns a card by id.
func (l *Loader) GetCard(id string) (Card, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.cards[id]
	return c, ok
}

// Pathway returns the loaded pathway definition.
func (l *Loader) Pathway() Pathway {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pathway
}

// PublishedForRole returns published cards whose role scope includes role
// and whose topic is in topicIDs. An empty topicIDs means all topics; a
// card with an empty role scope is relevant to everyone.
func (l *Loader) PublishedForRole(role string, topicIDs []string) []Card {
	l.mu.RLock()
	defer l.mu.RUnlock()

	wantTopic := map[string]bool{}
	for _, t := range topicIDs {
		wantTopic[t] = true
	}

	var out []Card
	for _, c := range l.cards {
		if c.Status != StatusPublished {
			continue
		}
		if len(wantTopic) > 0 && !wantTopic[c.TopicID] {
			continue
		}
		if !roleInScope(role, c.Roles) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func roleInScope(role string, scope []string) bool {
	if len(scope) == 0 {
		return true
	}
	for _, r := range scope {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		if filepath.Base(path) == "pathway.yaml" || filepath.Base(path) == "pathway.yml" {
			return l.loadPathway(path)
		}
		return l.loadCard(path)
	})
}

func (l *Loader) loadPathway(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var p Pathway
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding pathway %s: %w", path, err)
	}

	l.mu.Lock()
	l.pathway = p
	l.mu.Unlock()
	return nil
}

func (l *Loader) loadCard(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Warn("skipping unreadable card YAML", "path", path, "error", err)
		return nil
	}
	if _, ok := doc["id"]; !ok {
		return nil // Not a card file
	}

	if err := validateCardDocument(doc); err != nil {
		slog.Warn("skipping invalid card", "path", path, "error", err)
		return nil
	}

	var raw rawCard
	if err := yaml.Unmarshal(data, &raw); err != nil {
		slog.Warn("skipping undecodable card", "path", path, "error", err)
		return nil
	}

	card, err := raw.toCard()
	if err != nil {
		slog.Warn("skipping malformed card", "path", path, "error", err)
		return nil
	}

	l.mu.Lock()
	l.cards[card.ID] = card
	l.mu.Unlock()
	return nil
}

// rawCard mirrors the YAML card layout before the block union is resolved.
type rawCard struct {
	ID           string           `yaml:"id"`
	Title        string           `yaml:"title"`
	TopicID      string           `yaml:"topic_id"`
	BatchID      string           `yaml:"batch_id"`
	Roles        []string         `yaml:"roles"`
	Status       string           `yaml:"status"`
	Version      int              `yaml:"version"`
	ReviewBy     string           `yaml:"review_by"`
	Tags         []string         `yaml:"tags"`
	Sources      []rawSource      `yaml:"sources"`
	Blocks       []rawBlock       `yaml:"blocks"`
	Interactions []rawInteraction `yaml:"interactions"`
}

type rawSource struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

type rawInteraction struct {
	Prompt  string   `yaml:"prompt"`
	Options []string `yaml:"options"`
	Answer  string   `yaml:"answer"`
	Type    string   `yaml:"type"`
}

type rawBlock struct {
	Kind    string   `yaml:"kind"`
	Text    string   `yaml:"text"`
	Title   string   `yaml:"title"`
	Prompt  string   `yaml:"prompt"`
	Answer  string   `yaml:"answer"`
	Options []string `yaml:"options"`
	Steps   []string `yaml:"steps"`
	Dos     []string `yaml:"dos"`
	Donts   []string `yaml:"donts"`
	Type    string   `yaml:"type"`
}

func (r rawCard) toCard() (Card, error) {
	card := Card{
		ID:      r.ID,
		Title:   r.Title,
		TopicID: r.TopicID,
		BatchID: r.BatchID,
		Roles:   r.Roles,
		Tags:    r.Tags,
		Status:  CardStatus(r.Status),
		Version: r.Version,
	}

	if r.ReviewBy != "" {
		t, err := time.Parse("2006-01-02", r.ReviewBy)
		if err != nil {
			return Card{}, fmt.Errorf("review_by: %w", err)
		}
		card.ReviewBy = &t
	}

	for _, s := range r.Sources {
		card.Sources = append(card.Sources, Source{Title: s.Title, URL: s.URL})
	}

	for i, b := range r.Blocks {
		block, err := b.toBlock()
		if err != nil {
			return Card{}, fmt.Errorf("block %d: %w", i, err)
		}
		card.Blocks = append(card.Blocks, block)
	}

	for _, in := range r.Interactions {
		card.Interactions = append(card.Interactions, Interaction{
			Prompt:  in.Prompt,
			Options: in.Options,
			Answer:  in.Answer,
			Type:    QuestionType(in.Type),
		})
	}

	return card, nil
}

func (b rawBlock) toBlock() (Block, error) {
	switch b.Kind {
	case "text":
		return TextBlock{Text: b.Text}, nil
	case "reveal":
		return RevealBlock{Prompt: b.Prompt, Answer: b.Answer}, nil
	case "steps":
		return StepsBlock{Title: b.Title, Steps: b.Steps}, nil
	case "do_dont":
		return DoDontBlock{Dos: b.Dos, Donts: b.Donts}, nil
	case "question":
		return QuestionBlock{
			Prompt:  b.Prompt,
			Options: b.Options,
			Answer:  b.Answer,
			Type:    QuestionType(b.Type),
		}, nil
	default:
		return nil, fmt.Errorf("unknown block kind %q", b.Kind)
	}
}
