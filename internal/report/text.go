// Package report renders evaluation results as downloadable plain text.
package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ai-risk-eval/backend/internal/scoring"
)

const unnamed = "Unnamed system"

// Input is everything a text report needs. GeneratedAt is supplied by the
// caller so the same input always renders the same bytes.
type Input struct {
	Name        string
	Description string
	Result      scoring.EvaluationResult
	GeneratedAt time.Time
}

// Render produces the plain-text compliance report.
func Render(in Input) string {
	var b strings.Builder
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = unnamed
	}

	fmt.Fprintf(&b, "System: %s\n", name)
	fmt.Fprintf(&b, "Risk Category: %s\n", in.Result.Category)
	fmt.Fprintf(&b, "Risk Score: %d/100\n", in.Result.Score)
	fmt.Fprintf(&b, "Compliance Score: %s%%\n", strconv.FormatFloat(in.Result.ComplianceScore, 'f', -1, 64))
	fmt.Fprintf(&b, "Generated: %s\n", in.GeneratedAt.UTC().Format(time.RFC3339))

	b.WriteString("\nDescription:\n")
	b.WriteString(strings.TrimSpace(in.Description))
	b.WriteString("\n")

	b.WriteString("\nMissing Requirements:\n")
	if len(in.Result.Gaps) == 0 {
		b.WriteString("- none\n")
	}
	for _, g := range in.Result.Gaps {
		fmt.Fprintf(&b, "- %s (%s) | %s | Refs: %s\n", g.Key, g.Severity, g.Description, strings.Join(g.Clauses, ", "))
	}

	writeList(&b, "Risk Factors", in.Result.Factors)
	writeList(&b, "Articles", in.Result.Clauses)
	writeList(&b, "Recommendations", in.Result.Recommendations)

	b.WriteString("\nExplanation:\n")
	b.WriteString(in.Result.Explanation)
	b.WriteString("\n")
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "\n%s:\n", title)
	if len(items) == 0 {
		b.WriteString("- none\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename returns the attachment name used for a report download.
func Filename(name string) string {
	safe := strings.Trim(unsafeFilename.ReplaceAllString(strings.TrimSpace(name), "_"), "._")
	if safe == "" {
		safe = "report"
	}
	return safe + "_compliance.txt"
}
