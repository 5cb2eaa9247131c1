package scoring

import (
	"fmt"
	"strings"

	"ai-risk-eval/backend/internal/catalog"
)

// Composition is the human-readable rendering of a verdict and its gaps.
type Composition struct {
	Recommendations []string
	Explanation     string
}

// Compose renders the category profile's fixed recommendations followed by
// one line per gap, and the profile explanation. High-risk explanations also
// name the domain areas that triggered the verdict.
func Compose(v Verdict, gaps []RequirementGap, profile catalog.Profile) Composition {
	recs := make([]string, 0, len(profile.Recommendations)+len(gaps))
	recs = append(recs, profile.Recommendations...)
	for _, g := range gaps {
		recs = append(recs, gapRecommendation(g))
	}

	explanation := profile.Explanation
	if v.Category == catalog.HighRisk && len(v.Domains) > 0 {
		explanation += fmt.Sprintf(" Triggered areas: %s.", strings.Join(v.Domains, ", "))
	}

	return Composition{Recommendations: recs, Explanation: explanation}
}

func gapRecommendation(g RequirementGap) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fix %s (%s)", g.Key, g.Severity)
	if g.Description != "" {
		b.WriteString(": ")
		b.WriteString(g.Description)
	}
	if len(g.Clauses) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(g.Clauses, ", "))
	}
	return b.String()
}
