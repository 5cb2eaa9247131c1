package catalog

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"ai-risk-eval/backend/internal/match"
)

// Category is the regulatory bucket a rule belongs to.
type Category string

const (
	Prohibited  Category = "prohibited"
	HighRisk    Category = "high-risk"
	LimitedRisk Category = "limited-risk"
	MinimalRisk Category = "minimal-risk"
	// Domain rules belong to a named regulated area (Annex III style) and
	// are eligible for the high-risk verdict.
	Domain Category = "domain"
)

// VerdictCategories lists the categories a verdict can take, most severe first.
var VerdictCategories = []Category{Prohibited, HighRisk, LimitedRisk, MinimalRisk}

// ParseCategory maps a catalog string onto a Category. Underscored spellings
// ("high_risk") are accepted.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	switch c {
	case Prohibited, HighRisk, LimitedRisk, MinimalRisk, Domain:
		return c, true
	}
	return "", false
}

// IsVerdict reports whether c can be the outcome of a classification.
func (c Category) IsVerdict() bool {
	return c != Domain && c != ""
}

// Severity ranks rules and requirements.
type Severity string

const (
	Low    Severity = "low"
	Medium Severity = "medium"
	High   Severity = "high"
)

// ParseSeverity maps a catalog string onto a Severity.
func ParseSeverity(s string) (Severity, bool) {
	switch v := Severity(strings.ToLower(strings.TrimSpace(s))); v {
	case Low, Medium, High:
		return v, true
	}
	return "", false
}

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// Rule maps keyword patterns onto a category with a weight and citations.
type Rule struct {
	ID          string
	Category    Category
	Domain      string
	Patterns    []string
	Weight      int
	Severity    Severity
	Clauses     []string
	Description string
	// Trigger marks a limited-risk rule whose match alone decides the
	// limited-risk verdict.
	Trigger bool

	compiled []match.Pattern
}

// Matches reports whether any of the rule's patterns occurs in the
// normalized text, testing them in declaration order.
func (r *Rule) Matches(normalized string) bool {
	return match.FirstMatch(r.compiled, normalized) >= 0
}

// Label is the human-readable factor name reported when the rule fires.
func (r *Rule) Label() string {
	if r.Description != "" {
		return r.Description
	}
	if r.Domain != "" {
		return r.Domain
	}
	return r.ID
}

// Requirement is a regulatory obligation evidenced by a capability key.
type Requirement struct {
	Key         string
	Description string
	Clauses     []string
	Severity    Severity
}

// RequirementSet is either the baseline for a verdict category or an overlay
// activated by domain flags.
type RequirementSet struct {
	Name         string
	Category     Category
	Flags        []string
	Requirements []Requirement
}

// IsOverlay reports whether the set is activated by flags instead of a category.
func (s *RequirementSet) IsOverlay() bool {
	return s.Category == ""
}

// Profile holds the fixed text rendered for a verdict category.
type Profile struct {
	Recommendations []string
	Explanation     string
	Clauses         []string
}

// Policy carries the thresholds and floors applied by the classifier.
type Policy struct {
	HighThreshold    int `json:"high_threshold"`
	LimitedThreshold int `json:"limited_threshold"`
	HighFloor        int `json:"high_floor"`
	LimitedFloor     int `json:"limited_floor"`
}

// DefaultPolicy is applied for any policy field a catalog leaves unset.
func DefaultPolicy() Policy {
	return Policy{
		HighThreshold:    60,
		LimitedThreshold: 30,
		HighFloor:        75,
		LimitedFloor:     40,
	}
}

// Catalog is an immutable, validated rule set. Build one with Load, Parse
// or Default; the zero value is not usable.
type Catalog struct {
	name        string
	version     *semver.Version
	fingerprint string
	policy      Policy
	rules       []Rule
	byCategory  map[Category][]*Rule
	sets        []RequirementSet
	profiles    map[Category]Profile
}

// Name returns the catalog's display name.
func (c *Catalog) Name() string { return c.name }

// Version returns the catalog's semantic version.
func (c *Catalog) Version() string { return c.version.String() }

// Fingerprint is the hex SHA-256 of the canonical JSON form of the catalog.
func (c *Catalog) Fingerprint() string { return c.fingerprint }

// Policy returns the classifier thresholds.
func (c *Catalog) Policy() Policy { return c.policy }

// Rules returns every rule in evaluation order. Callers must not modify the
// returned rules.
func (c *Catalog) Rules() []*Rule {
	out := make([]*Rule, 0, len(c.rules))
	for i := range c.rules {
		out = append(out, &c.rules[i])
	}
	return out
}

// RulesFor returns the rules of one category in declaration order.
func (c *Catalog) RulesFor(category Category) []*Rule {
	return c.byCategory[category]
}

// Rule looks up a rule by ID.
func (c *Catalog) Rule(id string) (*Rule, bool) {
	for i := range c.rules {
		if c.rules[i].ID == id {
			return &c.rules[i], true
		}
	}
	return nil, false
}

// RequirementSets returns baseline and overlay sets in declaration order.
func (c *Catalog) RequirementSets() []RequirementSet {
	return c.sets
}

// OverlayFlags returns the normalized flags that activate the overlay named
// name, or nil when no such overlay exists.
func (c *Catalog) OverlayFlags(name string) []string {
	for _, set := range c.sets {
		if set.IsOverlay() && set.Name == name {
			return set.Flags
		}
	}
	return nil
}

// Profile returns the fixed text for a verdict category.
func (c *Catalog) Profile(category Category) Profile {
	return c.profiles[category]
}

// Counts returns the number of rules per category.
func (c *Catalog) Counts() map[Category]int {
	out := make(map[Category]int, len(c.byCategory))
	for cat, rules := range c.byCategory {
		out[cat] = len(rules)
	}
	return out
}
