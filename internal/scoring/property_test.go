package scoring

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"ai-risk-eval/backend/internal/catalog"
)

var vocabulary = []string{
	"chatbot", "facial", "recognition", "hiring", "loan", "personal data",
	"automated", "recommend", "deepfake", "machinery", "profiling", "spam filter",
	"social scoring", "weather", "report", "the", "and", "higher", "example",
	"students", "police", "border", "court", "synthetic media", "emotion recognition",
}

func phraseFrom(indexes []int) string {
	words := make([]string, 0, len(indexes))
	for _, i := range indexes {
		words = append(words, vocabulary[i])
	}
	return strings.Join(words, " ")
}

func TestEvaluateProperties(t *testing.T) {
	engine := newTestEngine(t)
	policy := engine.Catalog().Policy()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every input yields a bounded verdict", prop.ForAll(
		func(text string) bool {
			result := engine.Evaluate(text, nil, nil)
			return result.Category.IsVerdict() &&
				result.Score >= 0 && result.Score <= 100 &&
				result.ComplianceScore >= 0 && result.ComplianceScore <= 100 &&
				result.Factors != nil && result.Clauses != nil
		},
		gen.AnyString(),
	))

	properties.Property("a prohibited phrase dominates its surroundings", prop.ForAll(
		func(prefix, suffix string) bool {
			result := engine.Evaluate(prefix+" social scoring "+suffix, nil, nil)
			return result.Category == catalog.Prohibited && result.Score == 100
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("appending a domain phrase never lowers below high risk", prop.ForAll(
		func(text string) bool {
			result := engine.Evaluate(text+" facial recognition", nil, nil)
			switch result.Category {
			case catalog.Prohibited:
				return result.Score == 100
			case catalog.HighRisk:
				return result.Score >= policy.HighFloor
			default:
				return false
			}
		},
		gen.AlphaString(),
	))

	properties.Property("scores respect category floors", prop.ForAll(
		func(indexes []int) bool {
			result := engine.Evaluate(phraseFrom(indexes), nil, nil)
			switch result.Category {
			case catalog.Prohibited:
				return result.Score == 100
			case catalog.HighRisk:
				return result.Score >= policy.HighFloor
			case catalog.LimitedRisk:
				return result.Score >= policy.LimitedFloor
			default:
				return result.Score < policy.LimitedThreshold
			}
		},
		gen.SliceOf(gen.IntRange(0, len(vocabulary)-1)),
	))

	properties.Property("evaluation is idempotent", prop.ForAll(
		func(indexes []int, llm bool) bool {
			var flags []string
			if llm {
				flags = []string{"llm"}
			}
			text := phraseFrom(indexes)
			a, errA := engine.Evaluate(text, nil, flags).Digest()
			b, errB := engine.Evaluate(text, nil, flags).Digest()
			return errA == nil && errB == nil && a == b
		},
		gen.SliceOf(gen.IntRange(0, len(vocabulary)-1)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
