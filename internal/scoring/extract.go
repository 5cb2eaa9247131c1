package scoring

import (
	"ai-risk-eval/backend/internal/catalog"
	"ai-risk-eval/backend/internal/match"
)

// Signal is the evidence that one catalog rule matched the description.
type Signal struct {
	RuleID   string
	Category catalog.Category
	Domain   string
	Weight   int
	Label    string
	Clauses  []string
	Trigger  bool
}

// Extract normalizes text and returns one signal per matching rule, in
// catalog declaration order. Empty or whitespace-only text yields no signals.
func Extract(text string, cat *catalog.Catalog) []Signal {
	if cat == nil {
		return nil
	}
	normalized := match.NormalizeText(text)
	if normalized == "" {
		return nil
	}

	var signals []Signal
	for _, rule := range cat.Rules() {
		if !rule.Matches(normalized) {
			continue
		}
		signals = append(signals, Signal{
			RuleID:   rule.ID,
			Category: rule.Category,
			Domain:   rule.Domain,
			Weight:   rule.Weight,
			Label:    rule.Label(),
			Clauses:  append([]string(nil), rule.Clauses...),
			Trigger:  rule.Trigger,
		})
	}
	return signals
}
