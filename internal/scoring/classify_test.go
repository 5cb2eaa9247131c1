package scoring

import (
	"reflect"
	"testing"

	"ai-risk-eval/backend/internal/catalog"
)

func sig(id string, category catalog.Category, weight int) Signal {
	return Signal{RuleID: id, Category: category, Weight: weight, Label: id, Clauses: []string{"ref-" + id}}
}

func domainSig(area string, weight int) Signal {
	s := sig("area-"+area, catalog.Domain, weight)
	s.Domain = area
	return s
}

func TestClassify(t *testing.T) {
	trigger := sig("chat", catalog.LimitedRisk, 5)
	trigger.Trigger = true

	tests := []struct {
		name         string
		signals      []Signal
		wantCategory catalog.Category
		wantScore    int
		wantFactors  []string
		wantDomains  []string
	}{
		{"no signals", nil, catalog.MinimalRisk, 0, nil, nil},
		{"prohibited overrides everything",
			[]Signal{domainSig("Biometrics", 15), sig("ban", catalog.Prohibited, 5), trigger},
			catalog.Prohibited, 100, []string{"ban"}, nil},
		{"single domain trigger with low weight",
			[]Signal{domainSig("Employment", 1)},
			catalog.HighRisk, 75, []string{"area-Employment"}, []string{"Employment"}},
		{"high threshold without domain",
			[]Signal{sig("safety", catalog.HighRisk, 60)},
			catalog.HighRisk, 75, []string{"safety"}, nil},
		{"high weight below threshold falls to limited",
			[]Signal{sig("profiling", catalog.HighRisk, 30)},
			catalog.LimitedRisk, 40, []string{"profiling"}, nil},
		{"limited accumulation keeps raw score above floor",
			[]Signal{sig("profiling", catalog.HighRisk, 50), sig("booster", catalog.LimitedRisk, 40)},
			catalog.LimitedRisk, 90, []string{"profiling", "booster"}, nil},
		{"limited trigger with low weight",
			[]Signal{trigger},
			catalog.LimitedRisk, 40, []string{"chat"}, nil},
		{"boosters below limited threshold stay minimal",
			[]Signal{sig("automated", catalog.LimitedRisk, 10), sig("data", catalog.LimitedRisk, 10)},
			catalog.MinimalRisk, 20, []string{"automated", "data"}, nil},
		{"minimal rule contributes factor only",
			[]Signal{sig("game", catalog.MinimalRisk, 0)},
			catalog.MinimalRisk, 0, []string{"game"}, nil},
		{"heavy minimal rules stay under limited threshold",
			[]Signal{sig("game", catalog.MinimalRisk, 45)},
			catalog.MinimalRisk, 29, []string{"game"}, nil},
		{"score clamped to 100",
			[]Signal{domainSig("Biometrics", 70), domainSig("Justice", 70)},
			catalog.HighRisk, 100, []string{"area-Biometrics", "area-Justice"}, []string{"Biometrics", "Justice"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Classify(tc.signals, catalog.DefaultPolicy())
			if v.Category != tc.wantCategory {
				t.Fatalf("expected category %s got %s", tc.wantCategory, v.Category)
			}
			if v.Score != tc.wantScore {
				t.Fatalf("expected score %d got %d", tc.wantScore, v.Score)
			}
			if !reflect.DeepEqual(v.Factors, tc.wantFactors) {
				t.Fatalf("expected factors %v got %v", tc.wantFactors, v.Factors)
			}
			if !reflect.DeepEqual(v.Domains, tc.wantDomains) {
				t.Fatalf("expected domains %v got %v", tc.wantDomains, v.Domains)
			}
		})
	}
}

func TestClassifyDeduplicatesFactorsAndClauses(t *testing.T) {
	a := domainSig("Biometrics", 10)
	b := domainSig("Employment", 10)
	a.Clauses = []string{"Article 6", "Annex III"}
	b.Clauses = []string{"Annex III", "Article 6"}
	b.Label = a.Label

	v := Classify([]Signal{a, b}, catalog.DefaultPolicy())
	if !reflect.DeepEqual(v.Clauses, []string{"Article 6", "Annex III"}) {
		t.Fatalf("unexpected clauses %v", v.Clauses)
	}
	if len(v.Factors) != 1 {
		t.Fatalf("expected deduplicated factors got %v", v.Factors)
	}
}

func TestClassifyZeroThresholdPolicy(t *testing.T) {
	policy := catalog.Policy{}
	if v := Classify(nil, policy); v.Category != catalog.MinimalRisk || v.Score != 0 {
		t.Fatalf("expected minimal/0 for empty signals got %s/%d", v.Category, v.Score)
	}
	if v := Classify([]Signal{sig("profiling", catalog.HighRisk, 1)}, policy); v.Category != catalog.HighRisk {
		t.Fatalf("expected high risk with zero threshold got %s", v.Category)
	}
}
