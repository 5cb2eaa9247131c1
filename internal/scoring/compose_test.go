package scoring

import (
	"reflect"
	"testing"

	"ai-risk-eval/backend/internal/catalog"
)

func TestCompose(t *testing.T) {
	profile := catalog.Profile{
		Recommendations: []string{"Base one", "Base two"},
		Explanation:     "The system is classified as HIGH-RISK.",
	}
	gaps := []RequirementGap{
		{Key: "human_oversight", Description: "Human-in-loop oversight", Clauses: []string{"Art 14"}, Severity: catalog.High},
		{Key: "record_keeping", Clauses: []string{"Art 12", "Art 19"}, Severity: catalog.Medium},
		{Key: "eu_registration", Description: "Registration", Severity: catalog.Low},
	}

	tests := []struct {
		name     string
		verdict  Verdict
		wantRecs []string
		wantExpl string
	}{
		{
			name:    "high risk names triggered areas",
			verdict: Verdict{Category: catalog.HighRisk, Domains: []string{"Biometrics", "Employment"}},
			wantRecs: []string{
				"Base one",
				"Base two",
				"Fix human_oversight (high): Human-in-loop oversight [Art 14]",
				"Fix record_keeping (medium) [Art 12, Art 19]",
				"Fix eu_registration (low): Registration",
			},
			wantExpl: "The system is classified as HIGH-RISK. Triggered areas: Biometrics, Employment.",
		},
		{
			name:    "high risk by weight has no area sentence",
			verdict: Verdict{Category: catalog.HighRisk},
			wantRecs: []string{
				"Base one",
				"Base two",
				"Fix human_oversight (high): Human-in-loop oversight [Art 14]",
				"Fix record_keeping (medium) [Art 12, Art 19]",
				"Fix eu_registration (low): Registration",
			},
			wantExpl: "The system is classified as HIGH-RISK.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Compose(tc.verdict, gaps, profile)
			if !reflect.DeepEqual(got.Recommendations, tc.wantRecs) {
				t.Fatalf("expected recommendations %q got %q", tc.wantRecs, got.Recommendations)
			}
			if got.Explanation != tc.wantExpl {
				t.Fatalf("expected explanation %q got %q", tc.wantExpl, got.Explanation)
			}
		})
	}
}

func TestComposeWithoutGaps(t *testing.T) {
	profile := catalog.Profile{Recommendations: []string{"Adhere to voluntary codes of conduct"}, Explanation: "Minimal."}
	got := Compose(Verdict{Category: catalog.MinimalRisk, Domains: []string{"ignored"}}, nil, profile)
	if !reflect.DeepEqual(got.Recommendations, profile.Recommendations) {
		t.Fatalf("unexpected recommendations %q", got.Recommendations)
	}
	if got.Explanation != "Minimal." {
		t.Fatalf("unexpected explanation %q", got.Explanation)
	}
}
