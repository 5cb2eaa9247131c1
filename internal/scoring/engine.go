package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gowebpki/jcs"

	"ai-risk-eval/backend/internal/catalog"
)

// EvaluationResult is the externally visible assessment of one description.
// It is created once per Evaluate call and never mutated afterwards.
type EvaluationResult struct {
	Verdict
	Gaps            []RequirementGap `json:"missing_requirements"`
	ComplianceScore float64          `json:"compliance_score"`
	Recommendations []string         `json:"recommendations"`
	Explanation     string           `json:"explanation"`
}

// Engine evaluates descriptions against one immutable catalog. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	catalog *catalog.Catalog
}

// NewEngine constructs an engine bound to cat.
func NewEngine(cat *catalog.Catalog) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	return &Engine{catalog: cat}, nil
}

// Catalog exposes the catalog the engine evaluates against.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Evaluate runs extract, classify, gap evaluation and composition. It is
// total: every description, including the empty string, yields a result.
func (e *Engine) Evaluate(description string, provided map[string]bool, flags []string) EvaluationResult {
	signals := Extract(description, e.catalog)
	verdict := Classify(signals, e.catalog.Policy())

	profile := e.catalog.Profile(verdict.Category)
	verdict.Clauses = appendUnique(verdict.Clauses, profile.Clauses...)

	report := Gaps(verdict.Category, provided, flags, e.catalog)
	composed := Compose(verdict, report.Gaps, profile)

	result := EvaluationResult{
		Verdict:         verdict,
		Gaps:            report.Gaps,
		ComplianceScore: report.ComplianceScore,
		Recommendations: composed.Recommendations,
		Explanation:     composed.Explanation,
	}
	if result.Factors == nil {
		result.Factors = []string{}
	}
	if result.Clauses == nil {
		result.Clauses = []string{}
	}
	if result.Gaps == nil {
		result.Gaps = []RequirementGap{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	return result
}

// Digest returns the hex SHA-256 of the canonical JSON encoding of r, so two
// results are byte-for-byte equal exactly when their digests are.
func (r EvaluationResult) Digest() (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	canonical, err := jcs.Transform(payload)
	if err != nil {
		return "", fmt.Errorf("canonicalize result: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
