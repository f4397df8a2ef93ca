package evaluation

import (
	"fmt"
	"strings"
)

// Result is the verdict for one check.
type Result struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Priority  string `json:"priority"`
	Reasoning string `json:"reasoning"`
	Passed    bool   `json:"passed"`
}

// Summary aggregates the results.
type Summary struct {
	PassedCount int     `json:"passed_count"`
	FailedCount int     `json:"failed_count"`
	Total       int     `json:"total"`
	ScorePct    float64 `json:"score_pct"`
	Priority    string  `json:"priority"`
}

// Report is the outcome of an evaluation. When Error is set the other fields
// are empty.
type Report struct {
	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`
	Error   string   `json:"error,omitempty"`
}

// Status is PASS at 100%, FAIL at 0% and PARTIAL in between.
func (r Report) Status() string {
	switch {
	case r.Summary.ScorePct == 100:
		return "PASS"
	case r.Summary.ScorePct > 0:
		return "PARTIAL"
	default:
		return "FAIL"
	}
}

// Markdown renders the report for people.
func (r Report) Markdown() string {
	if r.Error != "" {
		return fmt.Sprintf("❌ **Error:** %s", r.Error)
	}

	icon := map[string]string{"PASS": "✅", "PARTIAL": "⚠️", "FAIL": "❌"}[r.Status()]

	var b strings.Builder
	b.WriteString("🎯 **Evaluation Results**\n\n")
	fmt.Fprintf(&b, "**Priority Group:** %s\n", r.Summary.Priority)
	fmt.Fprintf(&b, "**Score:** %d/%d (%.1f%%)\n", r.Summary.PassedCount, r.Summary.Total, r.Summary.ScorePct)
	fmt.Fprintf(&b, "**Status:** %s %s\n\n---\n\n## Detailed Results:\n", icon, r.Status())

	for _, res := range r.Results {
		mark, verdict := "❌", "FAIL ❌"
		if res.Passed {
			mark, verdict = "✅", "PASS ✅"
		}
		fmt.Fprintf(&b, "\n### %s %s - %s (%s)\n\n", mark, res.ID, res.Title, res.Priority)
		fmt.Fprintf(&b, "**Verdict:** %s\n\n", verdict)
		fmt.Fprintf(&b, "**Reasoning:**\n%s\n\n---\n", res.Reasoning)
	}
	return b.String()
}
