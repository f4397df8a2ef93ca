package evaluation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

// JudgeSchemaName names the judge response contract.
const JudgeSchemaName = "evaluation_result"

// FieldSpec is one generated judge field.
type FieldSpec struct {
	Name        string
	Type        string // "string" or "boolean"
	Description string
}

// JudgeSchema pairs the ordered judge fields with their rendered contract.
type JudgeSchema struct {
	Fields []FieldSpec
	Schema engine.ResponseSchema
}

func fieldPrefix(id string) string {
	return strings.ReplaceAll(id, "-", "_")
}

// BuildJudgeSchema generates two fields per check, reasoning first then the
// verdict, in check order. All fields are required.
func BuildJudgeSchema(checks []CheckDefinition) JudgeSchema {
	fields := make([]FieldSpec, 0, 2*len(checks))
	props := make([]engine.Property, 0, 2*len(checks))
	for _, c := range checks {
		prefix := fieldPrefix(c.ID)
		reasoning := FieldSpec{
			Name: prefix + "_reasoning",
			Type: "string",
			Description: fmt.Sprintf("Analysis for %s (%s). Criterion: %s. "+
				"Quote the exact dialog fragment that is the evidence, or write 'No evidence found in the dialog'.",
				c.ID, c.Title, c.Description),
		}
		passed := FieldSpec{
			Name: prefix + "_passed",
			Type: "boolean",
			Description: fmt.Sprintf("Binary verdict for %s. true only if the criterion is fully met; "+
				"false on any violation or missing element.", c.ID),
		}
		for _, f := range []FieldSpec{reasoning, passed} {
			fields = append(fields, f)
			props = append(props, engine.Property{Name: f.Name, Type: f.Type, Description: f.Description, Required: true})
		}
	}
	obj := engine.ObjectSchema{
		Title:       "EvaluationResult",
		Description: "Verdicts of a coaching-quality judge, one reasoning and verdict pair per criterion.",
		Properties:  props,
	}
	return JudgeSchema{Fields: fields, Schema: obj.Schema(JudgeSchemaName)}
}

const judgeSystemPrompt = `You are an expert coach judging the quality of coaching sessions.

Analyse the dialog and assess every criterion.

Rules:
1. For each criterion write the reasoning first, quoting the dialog verbatim.
2. If there is no evidence in the dialog, say "No evidence found in the dialog".
3. The verdict is true only when the criterion is FULLY met, false otherwise.
4. Be objective and strict: partially met means false.
5. Quote EXACTLY what was said; never paraphrase.

You judge the QUALITY of coaching, not the amount of text.`

// Transcript renders history as "**ROLE**: content" blocks separated by a
// blank line.
func Transcript(history []engine.ChatMessage) string {
	parts := make([]string, 0, len(history))
	for _, m := range history {
		parts = append(parts, fmt.Sprintf("**%s**: %s", strings.ToUpper(string(m.Role)), m.Content))
	}
	return strings.Join(parts, "\n\n")
}

func judgeUserPrompt(history []engine.ChatMessage, checks []CheckDefinition) string {
	var criteria []string
	for i, c := range checks {
		criteria = append(criteria, fmt.Sprintf("%d. %s - %s (%s): %s", i+1, c.ID, c.Title, c.Priority, c.Description))
	}
	return fmt.Sprintf(`## Dialog to evaluate:

%s

---

## Criteria (%d total):

%s

---

Evaluate the dialog above against all %d criteria.`,
		Transcript(history), len(checks), strings.Join(criteria, "\n"), len(checks))
}

// ScoreObserver receives the score of each completed evaluation.
type ScoreObserver func(priority string, scorePct float64)

// Evaluator runs the judge.
type Evaluator struct {
	caller   coaching.ModelCaller
	logger   *zap.Logger
	observer ScoreObserver
}

// EvaluatorOption customises an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorLogger sets the logger.
func WithEvaluatorLogger(l *zap.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScoreObserver registers a callback for finished evaluations.
func WithScoreObserver(o ScoreObserver) EvaluatorOption {
	return func(e *Evaluator) { e.observer = o }
}

// NewEvaluator creates an Evaluator that calls the model through caller.
func NewEvaluator(caller coaching.ModelCaller, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{caller: caller, logger: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate judges history against checks with a single model call. Failures
// are reported in Report.Error, never as an error value.
func (e *Evaluator) Evaluate(ctx context.Context, history []engine.ChatMessage, checks []CheckDefinition) Report {
	if len(checks) == 0 {
		return Report{Error: "No checks provided for evaluation"}
	}
	if len(history) == 0 {
		return Report{Error: "No conversation to evaluate"}
	}

	judge := BuildJudgeSchema(checks)
	messages := []engine.ChatMessage{
		{Role: engine.RoleSystem, Content: judgeSystemPrompt},
		{Role: engine.RoleUser, Content: judgeUserPrompt(history, checks)},
	}

	var verdicts map[string]any
	if err := e.caller.Call(ctx, messages, judge.Schema, &verdicts); err != nil {
		e.logger.Error("[Evaluation] judge call failed", zap.Error(err))
		return Report{Error: fmt.Sprintf("LLM evaluation failed: %v", err)}
	}

	report := reduce(checks, verdicts)
	e.logger.Info("[Evaluation] conversation scored",
		zap.String("priority", report.Summary.Priority),
		zap.Int("passed", report.Summary.PassedCount),
		zap.Int("total", report.Summary.Total),
		zap.Float64("score_pct", report.Summary.ScorePct))
	if e.observer != nil {
		e.observer(report.Summary.Priority, report.Summary.ScorePct)
	}
	return report
}

func reduce(checks []CheckDefinition, verdicts map[string]any) Report {
	results := make([]Result, 0, len(checks))
	passedCount := 0
	for _, c := range checks {
		prefix := fieldPrefix(c.ID)
		reasoning, _ := verdicts[prefix+"_reasoning"].(string)
		passed, _ := verdicts[prefix+"_passed"].(bool)
		if passed {
			passedCount++
		}
		results = append(results, Result{
			ID:        c.ID,
			Title:     c.Title,
			Priority:  c.Priority,
			Reasoning: reasoning,
			Passed:    passed,
		})
	}

	total := len(checks)
	score := math.Round(float64(passedCount)/float64(total)*1000) / 10
	return Report{
		Results: results,
		Summary: Summary{
			PassedCount: passedCount,
			FailedCount: total - passedCount,
			Total:       total,
			ScorePct:    score,
			Priority:    groupPriority(checks),
		},
	}
}

// EvaluateExport loads criteria from criteriaPath, filters them by priority
// and judges the conversation in export.
func (e *Evaluator) EvaluateExport(ctx context.Context, export *coaching.Export, criteriaPath, priority string) Report {
	checks, err := LoadCriteria(criteriaPath)
	if err != nil {
		return Report{Error: err.Error()}
	}
	return e.EvaluateWithCriteria(ctx, export.History(), checks, priority)
}

// EvaluateWithCriteria filters already parsed criteria and runs Evaluate.
func (e *Evaluator) EvaluateWithCriteria(ctx context.Context, history []engine.ChatMessage, checks []CheckDefinition, priority string) Report {
	if len(checks) == 0 {
		return Report{Error: "No criteria found in leaderboard card."}
	}
	filtered := FilterByPriority(checks, priority)
	if len(filtered) == 0 {
		return Report{Error: "No criteria match filter: " + priority}
	}
	return e.Evaluate(ctx, history, filtered)
}
