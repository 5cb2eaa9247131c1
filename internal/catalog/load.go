package catalog

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gowebpki/jcs"
	"gopkg.in/yaml.v3"

	"ai-risk-eval/backend/internal/match"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// DefaultSource names the embedded catalog in errors and logs.
const DefaultSource = "embedded:default_catalog.yaml"

// LoadError reports a catalog that could not be loaded. No partial catalog is
// ever returned alongside it.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type document struct {
	Name            string                `json:"name"`
	Version         string                `json:"version"`
	Policy          policyDocument        `json:"policy"`
	Rules           []ruleDocument        `json:"rules"`
	RequirementSets []requirementSetDoc   `json:"requirement_sets"`
	Profiles        map[string]profileDoc `json:"profiles"`
}

type policyDocument struct {
	HighThreshold    *int `json:"high_threshold"`
	LimitedThreshold *int `json:"limited_threshold"`
	HighFloor        *int `json:"high_floor"`
	LimitedFloor     *int `json:"limited_floor"`
}

type ruleDocument struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Domain      string   `json:"domain"`
	Description string   `json:"description"`
	Patterns    []string `json:"patterns"`
	Weight      int      `json:"weight"`
	Severity    string   `json:"severity"`
	Clauses     []string `json:"clauses"`
	Trigger     bool     `json:"trigger"`
}

type requirementSetDoc struct {
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Flags        []string         `json:"flags"`
	Requirements []requirementDoc `json:"requirements"`
}

type requirementDoc struct {
	Key         string   `json:"key"`
	Description string   `json:"description"`
	Clauses     []string `json:"clauses"`
	Severity    string   `json:"severity"`
}

type profileDoc struct {
	Recommendations []string `json:"recommendations"`
	Explanation     string   `json:"explanation"`
	Clauses         []string `json:"clauses"`
}

// Load reads and validates a YAML or JSON catalog from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, &LoadError{Source: path, Err: fmt.Errorf("read file: %w", err)}
	}
	return parse(path, data)
}

// Parse validates a catalog held in memory.
func Parse(data []byte) (*Catalog, error) {
	return parse("<inline>", data)
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return parse(DefaultSource, defaultCatalog)
}

// Open loads path, or the embedded catalog when path is empty.
func Open(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return Load(path)
}

func parse(source string, data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{Source: source, Err: errors.New("catalog is empty")}
	}

	// YAML is a superset of JSON, so both formats go through the same decoder
	// and are re-encoded to JSON for schema validation and fingerprinting.
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("decode document: %w", err)}
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("encode document: %w", err)}
	}
	if err := validateSchema(raw); err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("decode catalog: %w", err)}
	}

	cat, err := build(doc)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("canonicalize document: %w", err)}
	}
	sum := sha256.Sum256(canonical)
	cat.fingerprint = hex.EncodeToString(sum[:])
	return cat, nil
}

func build(doc document) (*Catalog, error) {
	var errs []error

	version, err := semver.NewVersion(strings.TrimSpace(doc.Version))
	if err != nil {
		errs = append(errs, fmt.Errorf("version %q: %w", doc.Version, err))
	}

	policy, err := buildPolicy(doc.Policy)
	if err != nil {
		errs = append(errs, err)
	}

	rules, err := buildRules(doc.Rules)
	if err != nil {
		errs = append(errs, err)
	}

	sets, err := buildRequirementSets(doc.RequirementSets)
	if err != nil {
		errs = append(errs, err)
	}

	profiles, err := buildProfiles(doc.Profiles)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cat := &Catalog{
		name:       strings.TrimSpace(doc.Name),
		version:    version,
		policy:     policy,
		rules:      rules,
		byCategory: make(map[Category][]*Rule),
		sets:       sets,
		profiles:   profiles,
	}
	for i := range cat.rules {
		r := &cat.rules[i]
		cat.byCategory[r.Category] = append(cat.byCategory[r.Category], r)
	}
	return cat, nil
}

func buildPolicy(doc policyDocument) (Policy, error) {
	p := DefaultPolicy()
	if doc.HighThreshold != nil {
		p.HighThreshold = *doc.HighThreshold
	}
	if doc.LimitedThreshold != nil {
		p.LimitedThreshold = *doc.LimitedThreshold
	}
	if doc.HighFloor != nil {
		p.HighFloor = *doc.HighFloor
	}
	if doc.LimitedFloor != nil {
		p.LimitedFloor = *doc.LimitedFloor
	}

	bounds := []struct {
		name  string
		value int
	}{
		{"high_threshold", p.HighThreshold},
		{"limited_threshold", p.LimitedThreshold},
		{"high_floor", p.HighFloor},
		{"limited_floor", p.LimitedFloor},
	}
	for _, b := range bounds {
		if b.value < 0 || b.value > 100 {
			return Policy{}, fmt.Errorf("policy %s must be within 0..100, got %d", b.name, b.value)
		}
	}
	if p.LimitedThreshold > p.HighThreshold {
		return Policy{}, fmt.Errorf("policy limited_threshold %d exceeds high_threshold %d", p.LimitedThreshold, p.HighThreshold)
	}
	if p.LimitedFloor > p.HighFloor {
		return Policy{}, fmt.Errorf("policy limited_floor %d exceeds high_floor %d", p.LimitedFloor, p.HighFloor)
	}
	return p, nil
}

func buildRules(docs []ruleDocument) ([]Rule, error) {
	if len(docs) == 0 {
		return nil, errors.New("catalog declares no rules")
	}
	var errs []error
	seen := make(map[string]struct{}, len(docs))
	rules := make([]Rule, 0, len(docs))

	for i, d := range docs {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			errs = append(errs, fmt.Errorf("rule #%d: id is required", i))
			continue
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("rule %q: duplicate id", id))
			continue
		}
		seen[id] = struct{}{}

		category, ok := ParseCategory(d.Category)
		if !ok {
			errs = append(errs, fmt.Errorf("rule %q: unknown category %q", id, d.Category))
			continue
		}
		domain := strings.TrimSpace(d.Domain)
		if category == Domain && domain == "" {
			errs = append(errs, fmt.Errorf("rule %q: domain rules must name their area", id))
			continue
		}
		if category != Domain && domain != "" {
			errs = append(errs, fmt.Errorf("rule %q: only domain rules may name an area", id))
			continue
		}
		if d.Trigger && category != LimitedRisk {
			errs = append(errs, fmt.Errorf("rule %q: trigger is only valid on limited-risk rules", id))
			continue
		}
		if d.Weight < 0 {
			errs = append(errs, fmt.Errorf("rule %q: weight must be non-negative, got %d", id, d.Weight))
			continue
		}
		severity, ok := ParseSeverity(d.Severity)
		if !ok {
			errs = append(errs, fmt.Errorf("rule %q: unknown severity %q", id, d.Severity))
			continue
		}
		if len(d.Patterns) == 0 {
			errs = append(errs, fmt.Errorf("rule %q: at least one pattern is required", id))
			continue
		}

		compiled := make([]match.Pattern, 0, len(d.Patterns))
		var patternErr error
		for _, src := range d.Patterns {
			p, err := match.Compile(src)
			if err != nil {
				patternErr = fmt.Errorf("rule %q: pattern %q: %w", id, src, err)
				break
			}
			compiled = append(compiled, p)
		}
		if patternErr != nil {
			errs = append(errs, patternErr)
			continue
		}

		rules = append(rules, Rule{
			ID:          id,
			Category:    category,
			Domain:      domain,
			Patterns:    append([]string(nil), d.Patterns...),
			Weight:      d.Weight,
			Severity:    severity,
			Clauses:     cleanStrings(d.Clauses),
			Description: strings.TrimSpace(d.Description),
			Trigger:     d.Trigger,
			compiled:    compiled,
		})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rules, nil
}

func buildRequirementSets(docs []requirementSetDoc) ([]RequirementSet, error) {
	var errs []error
	names := make(map[string]struct{}, len(docs))
	sets := make([]RequirementSet, 0, len(docs))

	for i, d := range docs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("requirement set #%d: name is required", i))
			continue
		}
		if _, dup := names[name]; dup {
			errs = append(errs, fmt.Errorf("requirement set %q: duplicate name", name))
			continue
		}
		names[name] = struct{}{}

		set := RequirementSet{Name: name}
		hasCategory := strings.TrimSpace(d.Category) != ""
		flags := normalizeFlags(d.Flags)
		switch {
		case hasCategory && len(flags) > 0:
			errs = append(errs, fmt.Errorf("requirement set %q: declare either category or flags, not both", name))
			continue
		case hasCategory:
			category, ok := ParseCategory(d.Category)
			if !ok || !category.IsVerdict() {
				errs = append(errs, fmt.Errorf("requirement set %q: category %q is not a verdict category", name, d.Category))
				continue
			}
			set.Category = category
		case len(flags) > 0:
			set.Flags = flags
		default:
			errs = append(errs, fmt.Errorf("requirement set %q: category or flags required", name))
			continue
		}

		keys := make(map[string]struct{}, len(d.Requirements))
		var setErr error
		for _, rd := range d.Requirements {
			key := strings.TrimSpace(rd.Key)
			if key == "" {
				setErr = fmt.Errorf("requirement set %q: requirement key is required", name)
				break
			}
			if _, dup := keys[key]; dup {
				setErr = fmt.Errorf("requirement set %q: duplicate key %q", name, key)
				break
			}
			keys[key] = struct{}{}
			severity, ok := ParseSeverity(rd.Severity)
			if !ok {
				setErr = fmt.Errorf("requirement %q: unknown severity %q", key, rd.Severity)
				break
			}
			set.Requirements = append(set.Requirements, Requirement{
				Key:         key,
				Description: strings.TrimSpace(rd.Description),
				Clauses:     cleanStrings(rd.Clauses),
				Severity:    severity,
			})
		}
		if setErr != nil {
			errs = append(errs, setErr)
			continue
		}
		sets = append(sets, set)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return sets, nil
}

func buildProfiles(docs map[string]profileDoc) (map[Category]Profile, error) {
	profiles := make(map[Category]Profile, len(docs))
	for key, d := range docs {
		category, ok := ParseCategory(key)
		if !ok || !category.IsVerdict() {
			return nil, fmt.Errorf("profile %q: not a verdict category", key)
		}
		if strings.TrimSpace(d.Explanation) == "" {
			return nil, fmt.Errorf("profile %q: explanation is required", key)
		}
		profiles[category] = Profile{
			Recommendations: cleanStrings(d.Recommendations),
			Explanation:     strings.TrimSpace(d.Explanation),
			Clauses:         cleanStrings(d.Clauses),
		}
	}
	for _, category := range VerdictCategories {
		if _, ok := profiles[category]; !ok {
			return nil, fmt.Errorf("profile for %q is missing", category)
		}
	}
	return profiles, nil
}

func normalizeFlags(in []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, f := range in {
		f = NormalizeFlag(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// NormalizeFlag folds a domain flag into its canonical lower-case form.
func NormalizeFlag(flag string) string {
	return strings.ToLower(strings.TrimSpace(flag))
}

func cleanStrings(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
