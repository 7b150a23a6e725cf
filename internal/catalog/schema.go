package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// cardSchema is the structural contract every card file must satisfy
// before decoding. It guards the closed block set: a block with an unknown
// kind is rejected at the boundary instead of silently extracting nothing.
const cardSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "topic_id", "status", "version", "blocks"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1},
    "topic_id": {"type": "string", "minLength": 1},
    "batch_id": {"type": "string"},
    "roles": {"type": "array", "items": {"type": "string"}},
    "status": {"enum": ["draft", "in_review", "approved", "published", "archived", "retired"]},
    "version": {"type": "integer", "minimum": 1},
    "review_by": {"type": "string"},
    "tags": {"type": "array", "items": {"type": "string"}},
    "sources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": {"type": "string"},
          "url": {"type": "string"}
        }
      }
    },
    "blocks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind"],
        "properties": {
          "kind": {"enum": ["text", "reveal", "steps", "do_dont", "question"]}
        }
      }
    },
    "interactions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["prompt", "answer", "type"],
        "properties": {
          "prompt": {"type": "string", "minLength": 1},
          "options": {"type": "array", "items": {"type": "string"}},
          "answer": {"type": "string", "minLength": 1},
          "type": {"enum": ["multiple_choice", "true_false"]}
        }
      }
    }
  }
}`

var compiledCardSchema = gojsonschema.NewStringLoader(cardSchema)

// validateCardDocument checks a decoded YAML document against the card
// schema. The document is round-tripped through JSON because the schema
// validator speaks JSON, not YAML.
func validateCardDocument(doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding card for validation: %w", err)
	}

	result, err := gojsonschema.Validate(compiledCardSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validating card: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("card fails schema: %v", msgs)
	}
	return nil
}
