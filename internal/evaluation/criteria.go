// Package evaluation scores a finished coaching conversation against a list
// of criteria with one LLM-as-judge call.
package evaluation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Priorities a criterion can carry. PriorityAll is only a filter value.
const (
	PriorityMust   = "MUST-HAVE"
	PriorityShould = "SHOULD-HAVE"
	PriorityAll    = "ALL"
)

// CheckDefinition is one evaluation criterion.
type CheckDefinition struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Priority         string   `json:"priority"`
	ExamplesPositive []string `json:"examples_positive,omitempty"`
	ExamplesNegative []string `json:"examples_negative,omitempty"`
}

var (
	checkIDPattern  = regexp.MustCompile(`LC-\d{3}`)
	numberedPattern = regexp.MustCompile(`^\d+\.\s*`)
	descMarkers     = []string{"**Kryterium**", "**Kryterium:**", "**Criterion**", "**Criterion:**"}
)

// LoadCriteria parses the criteria document at path.
func LoadCriteria(path string) ([]CheckDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open criteria: %w", err)
	}
	defer f.Close()
	return ParseCriteria(f)
}

// ParseCriteria reads criteria written as level-4 markdown sections:
//
//	#### LC-001 🔴 MUST-HAVE | Title
//	- **Kryterium**: what must hold
//	- **Przykłady pozytywne**:
//	  1. "..."
//
// Sections without an id or a known priority are skipped.
func ParseCriteria(r io.Reader) ([]CheckDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria: %w", err)
	}
	content := "\n" + strings.ReplaceAll(string(data), "\r\n", "\n")

	sections := strings.Split(content, "\n#### ")
	var checks []CheckDefinition
	for _, section := range sections[1:] {
		if c, ok := parseSection(section); ok {
			checks = append(checks, c)
		}
	}
	return checks, nil
}

func parseSection(section string) (CheckDefinition, bool) {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(section))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) == 0 {
		return CheckDefinition{}, false
	}
	header := lines[0]

	id := checkIDPattern.FindString(header)
	if id == "" {
		return CheckDefinition{}, false
	}

	c := CheckDefinition{ID: id}
	switch {
	case strings.Contains(header, PriorityMust):
		c.Priority = PriorityMust
	case strings.Contains(header, PriorityShould):
		c.Priority = PriorityShould
	default:
		return CheckDefinition{}, false
	}

	if i := strings.Index(header, "|"); i >= 0 {
		c.Title = strings.TrimSpace(header[i+1:])
	}

	var inPositive, inNegative bool
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		if c.Description == "" {
			if d, ok := descriptionOf(trimmed); ok {
				c.Description = d
				continue
			}
		}

		switch {
		case strings.Contains(lower, "**przykłady pozytywne") || strings.Contains(lower, "**positive examples"):
			inPositive, inNegative = true, false
		case strings.Contains(lower, "**przykłady negatywne") || strings.Contains(lower, "**negative examples"):
			inPositive, inNegative = false, true
		case numberedPattern.MatchString(trimmed):
			example := strings.Trim(strings.TrimSpace(numberedPattern.ReplaceAllString(trimmed, "")), `"„”`)
			if inPositive {
				c.ExamplesPositive = append(c.ExamplesPositive, example)
			} else if inNegative {
				c.ExamplesNegative = append(c.ExamplesNegative, example)
			}
		}
	}
	return c, true
}

func descriptionOf(line string) (string, bool) {
	for _, m := range descMarkers {
		if i := strings.Index(line, m); i >= 0 {
			rest := strings.TrimSpace(line[i+len(m):])
			return strings.TrimSpace(strings.TrimPrefix(rest, ":")), true
		}
	}
	return "", false
}

// FilterByPriority keeps checks with the given priority; PriorityAll keeps
// everything.
func FilterByPriority(checks []CheckDefinition, priority string) []CheckDefinition {
	priority = strings.ToUpper(strings.TrimSpace(priority))
	if priority == "" || priority == PriorityAll {
		return checks
	}
	var out []CheckDefinition
	for _, c := range checks {
		if c.Priority == priority {
			out = append(out, c)
		}
	}
	return out
}

// groupPriority is the single priority shared by checks, or PriorityAll.
func groupPriority(checks []CheckDefinition) string {
	if len(checks) == 0 {
		return ""
	}
	p := checks[0].Priority
	for _, c := range checks[1:] {
		if c.Priority != p {
			return PriorityAll
		}
	}
	return p
}
