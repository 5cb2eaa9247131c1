package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://ai-risk-eval.local/schemas/catalog.schema.json"

// documentSchema describes the structure of a catalog document. Semantic
// checks (unique IDs, regex compilation, policy ordering) happen in build.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "rules", "profiles"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string"},
    "version": {"type": "string", "minLength": 1},
    "policy": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "high_threshold": {"type": "integer", "minimum": 0, "maximum": 100},
        "limited_threshold": {"type": "integer", "minimum": 0, "maximum": 100},
        "high_floor": {"type": "integer", "minimum": 0, "maximum": 100},
        "limited_floor": {"type": "integer", "minimum": 0, "maximum": 100}
      }
    },
    "rules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "category", "patterns", "severity"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "category": {"type": "string"},
          "domain": {"type": "string"},
          "description": {"type": "string"},
          "patterns": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
          "weight": {"type": "integer", "minimum": 0},
          "severity": {"type": "string"},
          "clauses": {"type": "array", "items": {"type": "string"}},
          "trigger": {"type": "boolean"}
        }
      }
    },
    "requirement_sets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "requirements"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "category": {"type": "string"},
          "flags": {"type": "array", "items": {"type": "string"}},
          "requirements": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["key", "severity"],
              "additionalProperties": false,
              "properties": {
                "key": {"type": "string", "minLength": 1},
                "description": {"type": "string"},
                "clauses": {"type": "array", "items": {"type": "string"}},
                "severity": {"type": "string"}
              }
            }
          }
        }
      }
    },
    "profiles": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["explanation"],
        "additionalProperties": false,
        "properties": {
          "recommendations": {"type": "array", "items": {"type": "string"}},
          "explanation": {"type": "string"},
          "clauses": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("catalog schema load failed: %w", err)
	}
	return c.Compile(schemaURL)
})

func validateSchema(raw []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
