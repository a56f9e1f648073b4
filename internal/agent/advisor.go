package agent

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"goalrunner/internal/llm"
	"goalrunner/internal/plan"
	"goalrunner/internal/prompts"
	"goalrunner/internal/state"
)

// AdvisorOptions configures an Advisor.
type AdvisorOptions struct {
	Model         string
	Temperature   float64
	Workspace     string
	HistoryWindow int
	History       *state.Record
	Logger        zerolog.Logger
}

// Advisor asks the text-generation collaborator for plans, evaluations and
// error solutions.
type Advisor struct {
	client      llm.Client
	model       string
	temperature float64
	workspace   string
	window      int
	history     *state.Record
	logger      zerolog.Logger
}

func NewAdvisor(client llm.Client, opts AdvisorOptions) *Advisor {
	history := opts.History
	if history == nil {
		history = state.NewRecord()
	}
	window := opts.HistoryWindow
	if window <= 0 {
		window = 5
	}
	workspace := opts.Workspace
	if strings.TrimSpace(workspace) == "" {
		workspace = "workspace"
	}
	return &Advisor{
		client:      client,
		model:       opts.Model,
		temperature: opts.Temperature,
		workspace:   workspace,
		window:      window,
		history:     history,
		logger:      opts.Logger.With().Str("component", "advisor").Logger(),
	}
}

// History returns the conversation record the advisor reads and appends to.
func (a *Advisor) History() *state.Record {
	return a.history
}

// CreatePlan asks for a plan for goal given the capability listing.
func (a *Advisor) CreatePlan(ctx context.Context, goal, capabilities string) (string, error) {
	user, err := prompts.Plan(prompts.PlanData{
		Goal:         goal,
		Capabilities: capabilities,
		Workspace:    a.workspace,
		History:      a.history.Format(a.window),
	})
	if err != nil {
		return "", err
	}
	return a.ask(ctx, llm.PurposePlan, prompts.PlanSystem, user)
}

// EvaluateStep asks whether the remaining plan should change after a step.
// index is zero-based. Plan ordinals on remaining are dropped since the prompt
// renumbers them from 1.
func (a *Advisor) EvaluateStep(ctx context.Context, goal, result string, index int, remaining []string) (string, error) {
	steps := make([]string, len(remaining))
	for i, s := range remaining {
		steps[i] = plan.StripOrdinal(s)
	}
	user, err := prompts.StepEvaluation(prompts.StepEvaluationData{
		Goal:      goal,
		Result:    result,
		Index:     index,
		Remaining: steps,
		History:   a.history.Format(a.window),
	})
	if err != nil {
		return "", err
	}
	return a.ask(ctx, llm.PurposeStepEvaluation, prompts.StepEvaluationSystem, user)
}

// EvaluateResult asks whether the goal has been achieved and records the answer.
func (a *Advisor) EvaluateResult(ctx context.Context, goal, result string) (string, error) {
	user, err := prompts.Evaluation(prompts.EvaluationData{Goal: goal, Result: result})
	if err != nil {
		return "", err
	}
	evaluation, err := a.ask(ctx, llm.PurposeEvaluation, prompts.EvaluationSystem, user)
	if err != nil {
		return "", err
	}
	a.history.Append(state.RoleAssistant, evaluation)
	return evaluation, nil
}

// ProposeSolution asks how to recover from errMsg and records the exchange.
func (a *Advisor) ProposeSolution(ctx context.Context, errMsg, capability, function string, args []string) (string, error) {
	user, err := prompts.Solution(prompts.SolutionData{
		Capability: capability,
		Function:   function,
		Args:       args,
		Error:      errMsg,
		History:    a.history.Format(a.window),
	})
	if err != nil {
		return "", err
	}
	solution, err := a.ask(ctx, llm.PurposeSolution, prompts.SolutionSystem, user)
	if err != nil {
		return "", err
	}
	a.history.Append(state.RoleUser, "Error: "+errMsg)
	a.history.Append(state.RoleAssistant, "Solution: "+solution)
	return solution, nil
}

func (a *Advisor) ask(ctx context.Context, purpose llm.Purpose, system, user string) (string, error) {
	a.logger.Debug().Str("purpose", string(purpose)).Int("prompt_chars", len(user)).Msg("requesting completion")
	text, err := llm.Complete(ctx, a.client, llm.ChatRequest{
		Model:       a.model,
		Temperature: a.temperature,
		Purpose:     purpose,
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		a.logger.Error().Err(err).Str("purpose", string(purpose)).Msg("completion failed")
		return "", err
	}
	a.logger.Debug().Str("purpose", string(purpose)).Int("response_chars", len(text)).Msg("completion received")
	return text, nil
}
