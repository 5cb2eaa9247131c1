package scoring

import (
	"math"
	"sort"

	"ai-risk-eval/backend/internal/catalog"
)

// RequirementGap is an applicable obligation not evidenced as met.
type RequirementGap struct {
	Key         string           `json:"key"`
	Description string           `json:"description"`
	Clauses     []string         `json:"refs"`
	Severity    catalog.Severity `json:"severity"`
}

// GapReport is the outcome of checking provided capabilities against the
// requirements that apply to a verdict.
type GapReport struct {
	Gaps            []RequirementGap
	Applicable      int
	Met             int
	ComplianceScore float64
}

// Gaps resolves the requirements for category plus every overlay activated
// by flags (or by a provided capability of the same name) and returns the
// unmet ones ordered by severity, then declaration order. A capability
// missing from provided counts as unmet. With no applicable requirements
// the compliance score is 100.
func Gaps(category catalog.Category, provided map[string]bool, flags []string, cat *catalog.Catalog) GapReport {
	applicable := applicableRequirements(category, provided, flags, cat)

	report := GapReport{Applicable: len(applicable)}
	for _, req := range applicable {
		if provided[req.Key] {
			report.Met++
			continue
		}
		report.Gaps = append(report.Gaps, RequirementGap{
			Key:         req.Key,
			Description: req.Description,
			Clauses:     append([]string(nil), req.Clauses...),
			Severity:    req.Severity,
		})
	}

	sort.SliceStable(report.Gaps, func(i, j int) bool {
		return report.Gaps[i].Severity.Rank() > report.Gaps[j].Severity.Rank()
	})

	report.ComplianceScore = 100
	if report.Applicable > 0 {
		pct := float64(report.Met) / float64(report.Applicable) * 100
		report.ComplianceScore = math.Round(pct*100) / 100
	}
	return report
}

func applicableRequirements(category catalog.Category, provided map[string]bool, flags []string, cat *catalog.Catalog) []catalog.Requirement {
	if cat == nil {
		return nil
	}
	active := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		if f = catalog.NormalizeFlag(f); f != "" {
			active[f] = struct{}{}
		}
	}

	var out []catalog.Requirement
	seen := make(map[string]struct{})
	add := func(reqs []catalog.Requirement) {
		for _, r := range reqs {
			if _, dup := seen[r.Key]; dup {
				continue
			}
			seen[r.Key] = struct{}{}
			out = append(out, r)
		}
	}

	sets := cat.RequirementSets()
	for _, set := range sets {
		if !set.IsOverlay() && set.Category == category {
			add(set.Requirements)
		}
	}
	for _, set := range sets {
		if set.IsOverlay() && overlayActive(set.Flags, active, provided) {
			add(set.Requirements)
		}
	}
	return out
}

func overlayActive(setFlags []string, active map[string]struct{}, provided map[string]bool) bool {
	for _, f := range setFlags {
		if _, ok := active[f]; ok {
			return true
		}
		if provided[f] {
			return true
		}
	}
	return false
}
