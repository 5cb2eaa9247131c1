package scoring

import "ai-risk-eval/backend/internal/catalog"

const maxScore = 100

// Verdict is the category and score assigned to a description.
type Verdict struct {
	Category catalog.Category `json:"risk_category"`
	Score    int              `json:"risk_score"`
	Factors  []string         `json:"risk_factors"`
	Clauses  []string         `json:"articles"`
	// Domains lists the regulated areas that forced a high-risk verdict.
	Domains []string `json:"high_risk_areas,omitempty"`
}

// Classify applies category precedence to the extracted signals:
// prohibited, then high risk (weight threshold or any domain trigger),
// then limited risk (weight threshold or a dedicated trigger), else minimal.
// The score is the total signal weight floored to the branch minimum and
// clamped to 100; a prohibited verdict always scores exactly 100.
func Classify(signals []Signal, policy catalog.Policy) Verdict {
	var (
		prohibited     []Signal
		total          int
		highSum        int
		eligibleSum    int
		domainFired    bool
		limitedTrigger bool
		domains        []string
	)

	for _, s := range signals {
		total += s.Weight
		switch s.Category {
		case catalog.Prohibited:
			prohibited = append(prohibited, s)
		case catalog.Domain:
			domainFired = true
			domains = appendUnique(domains, s.Domain)
			highSum += s.Weight
			eligibleSum += s.Weight
		case catalog.HighRisk:
			highSum += s.Weight
			eligibleSum += s.Weight
		case catalog.LimitedRisk:
			eligibleSum += s.Weight
			if s.Trigger {
				limitedTrigger = true
			}
		}
	}

	if len(prohibited) > 0 {
		return Verdict{
			Category: catalog.Prohibited,
			Score:    maxScore,
			Factors:  labelsOf(prohibited),
			Clauses:  clausesOf(prohibited),
		}
	}

	v := Verdict{
		Factors: labelsOf(signals),
		Clauses: clausesOf(signals),
	}
	switch {
	case domainFired || crosses(highSum, policy.HighThreshold):
		v.Category = catalog.HighRisk
		v.Score = atLeast(total, policy.HighFloor)
		v.Domains = domains
	case limitedTrigger || crosses(eligibleSum, policy.LimitedThreshold):
		v.Category = catalog.LimitedRisk
		v.Score = atLeast(total, policy.LimitedFloor)
	default:
		v.Category = catalog.MinimalRisk
		v.Score = below(total, policy.LimitedThreshold)
	}
	v.Score = clampScore(v.Score)
	return v
}

// crosses treats a zero sum as no evidence, so a threshold of 0 never turns
// an empty signal set into a verdict.
func crosses(sum, threshold int) bool {
	return sum > 0 && sum >= threshold
}

func atLeast(value, floor int) int {
	if value < floor {
		return floor
	}
	return value
}

// below keeps a minimal-risk score under the limited threshold when weight
// comes from minimal-risk rules alone.
func below(value, threshold int) int {
	if threshold > 0 && value >= threshold {
		return threshold - 1
	}
	return value
}

func clampScore(value int) int {
	if value < 0 {
		return 0
	}
	if value > maxScore {
		return maxScore
	}
	return value
}

func labelsOf(signals []Signal) []string {
	var out []string
	for _, s := range signals {
		out = appendUnique(out, s.Label)
	}
	return out
}

func clausesOf(signals []Signal) []string {
	var out []string
	for _, s := range signals {
		out = appendUnique(out, s.Clauses...)
	}
	return out
}

func appendUnique(s []string, values ...string) []string {
	for _, v := range values {
		if v == "" || contains(s, v) {
			continue
		}
		s = append(s, v)
	}
	return s
}

func contains(s []string, v string) bool {
	for _, existing := range s {
		if existing == v {
			return true
		}
	}
	return false
}
