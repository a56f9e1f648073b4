package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// System prompts paired with each user prompt.
const (
	PlanSystem = "You are an AI assistant that creates detailed, step-by-step plans to achieve goals using available capabilities and functions. " +
		"Analyze the capabilities and their functions carefully to determine the best approach. " +
		"Learn from previous interactions and errors to improve your plans. Prefer working with JSON data whenever possible."
	StepEvaluationSystem = "You are an AI assistant that evaluates execution results and suggests plan modifications if necessary to achieve the goal."
	EvaluationSystem     = "You are an AI assistant that evaluates the results of executed plans and determines if the goal has been achieved. " +
		"If not, you provide guidance on what steps to take next. Prefer working with JSON data whenever possible."
	SolutionSystem = "You are an AI assistant that helps solve errors in execution plans and suggests modifications to achieve the goal."
)

var templates = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// PlanData feeds the planning prompt.
type PlanData struct {
	Goal         string
	Capabilities string
	Workspace    string
	History      string
}

// StepEvaluationData feeds the per-step evaluation prompt. Index is zero-based.
type StepEvaluationData struct {
	Goal      string
	Result    string
	Index     int
	Remaining []string
	History   string
}

// EvaluationData feeds the goal evaluation prompt.
type EvaluationData struct {
	Goal   string
	Result string
}

// SolutionData feeds the error recovery prompt.
type SolutionData struct {
	Capability string
	Function   string
	Args       []string
	Error      string
	History    string
}

// Plan renders the planning prompt.
func Plan(d PlanData) (string, error) {
	return render("plan.tmpl", d)
}

// StepEvaluation renders the step evaluation prompt.
func StepEvaluation(d StepEvaluationData) (string, error) {
	return render("step_eval.tmpl", d)
}

// Evaluation renders the goal evaluation prompt.
func Evaluation(d EvaluationData) (string, error) {
	return render("evaluate.tmpl", d)
}

// Solution renders the error recovery prompt.
func Solution(d SolutionData) (string, error) {
	view := struct {
		SolutionData
		Args string
	}{d, FormatArgs(d.Args)}
	return render("solution.tmpl", view)
}

// FormatArgs renders arguments as a quoted, parenthesized list.
func FormatArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
