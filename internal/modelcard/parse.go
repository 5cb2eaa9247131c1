// Package modelcard reads the plain-text model card format used by the
// checker CLI and the /api/check endpoint.
package modelcard

import (
	"bufio"
	"strings"
)

// Card holds the recognised fields of a model card.
type Card struct {
	Name     string `json:"name"`
	Purpose  string `json:"purpose"`
	Datasets string `json:"datasets"`
	License  string `json:"license"`
	Notes    string `json:"notes"`
}

// Parse extracts "Model:", "Purpose:", "Data:", "License:" and "Notes:" lines.
// Keys are case-insensitive, blank and unrecognised lines are skipped, and a
// repeated key keeps its last value.
func Parse(text string) Card {
	var card Card
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "model":
			card.Name = value
		case "purpose":
			card.Purpose = value
		case "data":
			card.Datasets = value
		case "license":
			card.License = value
		case "notes":
			card.Notes = value
		}
	}
	return card
}

// Capabilities derives the provided-requirement map for a card. Oversight
// and bias monitoring cannot be read from the card and are reported false.
func (c Card) Capabilities(isLLM bool) map[string]bool {
	hasName := c.Name != ""
	hasData := c.Datasets != ""
	return map[string]bool{
		"is_llm":             isLLM,
		"data_governance":    hasData,
		"data_documentation": hasData,
		"transparency":       hasName,
		"model_card":         hasName,
		"human_oversight":    false,
		"bias_monitoring":    false,
	}
}

// Merge overlays explicit onto derived. Explicit entries win.
func Merge(derived, explicit map[string]bool) map[string]bool {
	out := make(map[string]bool, len(derived)+len(explicit))
	for k, v := range derived {
		out[k] = v
	}
	for k, v := range explicit {
		out[k] = v
	}
	return out
}
