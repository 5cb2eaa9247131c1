package scoring

import (
	"encoding/json"
	"reflect"
	"sync"
	"testing"

	"ai-risk-eval/backend/internal/catalog"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(defaultCatalog(t))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestNewEngineRequiresCatalog(t *testing.T) {
	if _, err := NewEngine(nil); err == nil {
		t.Fatalf("expected error for nil catalog")
	}
}

func TestEvaluateScenarios(t *testing.T) {
	engine := newTestEngine(t)
	annex := []string{"Article 6 – Classification of High-Risk AI Systems", "Annex III – High-Risk AI Areas"}

	tests := []struct {
		name         string
		description  string
		wantCategory catalog.Category
		wantScore    int
		wantFactors  []string
		wantArticles []string
	}{
		{
			name:         "biometric employee verification",
			description:  "We use facial recognition to verify employee identity at entry.",
			wantCategory: catalog.HighRisk,
			wantScore:    75,
			wantFactors:  []string{"High-Risk Area: Biometrics", "High-Risk Area: Employment"},
			wantArticles: annex,
		},
		{
			name:         "customer chatbot",
			description:  "A chatbot that answers customer FAQs.",
			wantCategory: catalog.LimitedRisk,
			wantScore:    40,
			wantFactors:  []string{"Interaction with humans (Transparency)"},
			wantArticles: []string{"Article 50 – Transparency Obligations"},
		},
		{
			name:         "social scoring",
			description:  "An AI system using social scoring to rank citizens.",
			wantCategory: catalog.Prohibited,
			wantScore:    100,
			wantFactors:  []string{"Prohibited AI Practice (Article 5)"},
			wantArticles: []string{"Article 5 – Prohibited AI Practices"},
		},
		{
			name:         "empty description",
			description:  "",
			wantCategory: catalog.MinimalRisk,
			wantScore:    0,
			wantFactors:  []string{},
			wantArticles: []string{},
		},
		{
			name:         "word boundary keeps higher from matching hire",
			description:  "A tool that helps teams reach higher productivity.",
			wantCategory: catalog.MinimalRisk,
			wantScore:    0,
			wantFactors:  []string{},
			wantArticles: []string{},
		},
		{
			name:         "boosters reach limited threshold",
			description:  "An automated system that processes personal data to recommend products.",
			wantCategory: catalog.LimitedRisk,
			wantScore:    40,
			wantFactors:  []string{"Automated Decision Making", "Processing of Personal Data", "Personalised Recommendations"},
			wantArticles: []string{"Article 14 – Human Oversight", "Article 10 – Data Governance", "Article 50 – Transparency Obligations"},
		},
		{
			name:         "manipulation stem is prohibited",
			description:  "An assistant built on manipulation of users.",
			wantCategory: catalog.Prohibited,
			wantScore:    100,
			wantFactors:  []string{"Prohibited AI Practice (Article 5)"},
			wantArticles: []string{"Article 5 – Prohibited AI Practices"},
		},
		{
			name:         "voice recognition for identification is biometric",
			description:  "Voice recognition for identification",
			wantCategory: catalog.HighRisk,
			wantScore:    75,
			wantFactors:  []string{"High-Risk Area: Biometrics"},
			wantArticles: annex,
		},
		{
			name:         "remote identification is biometric",
			description:  "Remote identification of visitors in a lobby.",
			wantCategory: catalog.HighRisk,
			wantScore:    75,
			wantFactors:  []string{"High-Risk Area: Biometrics"},
			wantArticles: annex,
		},
		{
			name:         "profiling triggers law enforcement",
			description:  "Profiling customers",
			wantCategory: catalog.HighRisk,
			wantScore:    75,
			wantFactors:  []string{"High-Risk Area: Law Enforcement"},
			wantArticles: annex,
		},
		{
			name:         "safety component crosses high threshold by weight",
			description:  "Vision model used as a safety component in industrial machinery.",
			wantCategory: catalog.HighRisk,
			wantScore:    75,
			wantFactors:  []string{"Safety Component of a Regulated Product"},
			wantArticles: []string{"Article 6 – Classification of High-Risk AI Systems", "Annex I – Union Harmonisation Legislation"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.Evaluate(tc.description, nil, nil)
			if result.Category != tc.wantCategory {
				t.Fatalf("expected category %s got %s", tc.wantCategory, result.Category)
			}
			if result.Score != tc.wantScore {
				t.Fatalf("expected score %d got %d", tc.wantScore, result.Score)
			}
			if !reflect.DeepEqual(result.Factors, tc.wantFactors) {
				t.Fatalf("expected factors %q got %q", tc.wantFactors, result.Factors)
			}
			if !reflect.DeepEqual(result.Clauses, tc.wantArticles) {
				t.Fatalf("expected articles %q got %q", tc.wantArticles, result.Clauses)
			}
		})
	}
}

func TestEvaluateRecommendationsAndExplanation(t *testing.T) {
	engine := newTestEngine(t)

	prohibited := engine.Evaluate("An AI system using social scoring to rank citizens.", nil, nil)
	wantRecs := []string{
		"DO NOT DEPLOY. This system is likely banned under the EU AI Act.",
		"Consult legal counsel immediately.",
	}
	if !reflect.DeepEqual(prohibited.Recommendations, wantRecs) {
		t.Fatalf("expected fixed do-not-deploy set got %q", prohibited.Recommendations)
	}

	chatbot := engine.Evaluate("A chatbot that answers customer FAQs.", nil, nil)
	if !contains(chatbot.Recommendations, "Inform users they are interacting with an AI system") {
		t.Fatalf("expected disclosure recommendation got %q", chatbot.Recommendations)
	}
	if !contains(chatbot.Recommendations, "Fix transparency (medium): AI system must notify user [Art 50(1)]") {
		t.Fatalf("expected gap recommendation got %q", chatbot.Recommendations)
	}

	high := engine.Evaluate("We use facial recognition to verify employee identity at entry.", map[string]bool{"human_oversight": true}, nil)
	wantExpl := "The system is classified as HIGH-RISK. It falls under specific critical areas (Annex III) requiring full conformity assessment. Triggered areas: Biometrics, Employment."
	if high.Explanation != wantExpl {
		t.Fatalf("expected explanation %q got %q", wantExpl, high.Explanation)
	}
	if len(high.Gaps) != 7 || high.ComplianceScore != 12.5 {
		t.Fatalf("expected 7 gaps and 12.5%% compliance got %d and %.2f", len(high.Gaps), high.ComplianceScore)
	}
	if got := len(high.Recommendations); got != 7+len(high.Gaps) {
		t.Fatalf("expected profile plus one line per gap, got %d", got)
	}

	empty := engine.Evaluate("   ", nil, nil)
	if empty.ComplianceScore != 100 || len(empty.Gaps) != 0 {
		t.Fatalf("expected full compliance with no gaps got %.2f / %d", empty.ComplianceScore, len(empty.Gaps))
	}
	if empty.Explanation != "The system is classified as MINIMAL-RISK." {
		t.Fatalf("unexpected explanation %q", empty.Explanation)
	}
}

func TestEvaluateWireShape(t *testing.T) {
	engine := newTestEngine(t)
	payload, err := json.Marshal(engine.Evaluate("", nil, nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"risk_category", "risk_score", "risk_factors", "articles", "recommendations", "explanation", "missing_requirements", "compliance_score"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing key %q in %s", key, payload)
		}
	}
	if decoded["risk_category"] != "minimal-risk" {
		t.Fatalf("unexpected category %v", decoded["risk_category"])
	}
	if factors, ok := decoded["risk_factors"].([]any); !ok || len(factors) != 0 {
		t.Fatalf("expected empty factor array got %v", decoded["risk_factors"])
	}
	if _, ok := decoded["high_risk_areas"]; ok {
		t.Fatalf("high_risk_areas should be omitted for minimal risk")
	}
}

func TestEvaluateIsIdempotentAndConcurrent(t *testing.T) {
	engine := newTestEngine(t)
	const description = "Loan approval assistant that screens job applicants and uses a chatbot."
	provided := map[string]bool{"transparency": true}

	first := engine.Evaluate(description, provided, []string{"llm"})
	want, err := first.Digest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}

	var wg sync.WaitGroup
	digests := make([]string, 16)
	for i := range digests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := engine.Evaluate(description, provided, []string{"llm"}).Digest()
			if err != nil {
				t.Errorf("digest: %v", err)
				return
			}
			digests[i] = d
		}(i)
	}
	wg.Wait()
	for i, d := range digests {
		if d != want {
			t.Fatalf("evaluation %d diverged: %s != %s", i, d, want)
		}
	}
}
