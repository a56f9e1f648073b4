package agent

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"goalrunner/internal/logging"
	"goalrunner/internal/plan"
	"goalrunner/internal/state"
	"goalrunner/internal/tooling"
)

// Outcome is the result of ProcessGoal.
type Outcome struct {
	Achieved   bool
	Iterations int
	Message    string
	RunID      string
}

// Final messages.
const (
	MessageAchieved = "Goal achieved successfully."
	MessageStopped  = "Execution stopped due to error."
)

// CommanderOptions wires a Commander.
type CommanderOptions struct {
	Registry      *tooling.Registry
	Advisor       *Advisor
	Executor      *Executor
	Approver      Approver
	Recorder      Recorder
	Console       *Console
	MaxIterations int
	Logger        *zerolog.Logger
}

// Commander drives the plan, execute, evaluate loop for a goal.
type Commander struct {
	registry      *tooling.Registry
	advisor       *Advisor
	executor      *Executor
	approver      Approver
	recorder      Recorder
	console       *Console
	maxIterations int
	logger        zerolog.Logger
}

func NewCommander(opts CommanderOptions) *Commander {
	logger := logging.Component("commander")
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "commander").Logger()
	}
	approver := opts.Approver
	if approver == nil {
		approver = DenyAll{}
	}
	return &Commander{
		registry:      opts.Registry,
		advisor:       opts.Advisor,
		executor:      opts.Executor,
		approver:      approver,
		recorder:      opts.Recorder,
		console:       opts.Console,
		maxIterations: opts.MaxIterations,
		logger:        logger,
	}
}

// ProcessGoal plans, executes and evaluates until the goal is achieved, the
// operator stops after an error, the iteration limit is hit or ctx ends.
func (c *Commander) ProcessGoal(ctx context.Context, goal string) Outcome {
	var out Outcome
	if c.recorder != nil {
		id, err := c.recorder.StartRun(ctx, goal)
		if err != nil {
			c.logger.Warn().Err(err).Msg("journal start failed")
		}
		out.RunID = id
	}
	history := c.advisor.History()
	history.Append(state.RoleUser, goal)
	c.logger.Info().Str("run_id", out.RunID).Str("goal", goal).Int("max_iterations", c.maxIterations).Msg("processing goal")

	for iteration := 1; ; iteration++ {
		if c.maxIterations > 0 && iteration > c.maxIterations {
			out.Message = fmt.Sprintf("Maximum iterations (%d) reached without achieving the goal.", c.maxIterations)
			break
		}
		if err := ctx.Err(); err != nil {
			out.Message = fmt.Sprintf("Execution cancelled: %v", err)
			break
		}
		out.Iterations = iteration
		c.console.Iteration(iteration)

		achieved, err := c.iterate(ctx, runRef{id: out.RunID, iteration: iteration}, goal)
		if err == nil {
			if achieved {
				out.Achieved = true
				out.Message = MessageAchieved
				break
			}
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			out.Message = fmt.Sprintf("Execution cancelled: %v", ctxErr)
			break
		}
		if !c.handleFailure(ctx, iteration, err) {
			out.Message = MessageStopped
			break
		}
	}

	c.logger.Info().Str("run_id", out.RunID).Bool("achieved", out.Achieved).Int("iterations", out.Iterations).Msg(out.Message)
	if c.recorder != nil && out.RunID != "" {
		if err := c.recorder.FinishRun(context.WithoutCancel(ctx), out.RunID, out.Achieved, out.Message); err != nil {
			c.logger.Warn().Err(err).Msg("journal finish failed")
		}
	}
	return out
}

func (c *Commander) iterate(ctx context.Context, run runRef, goal string) (bool, error) {
	planText, err := c.advisor.CreatePlan(ctx, goal, c.registry.Describe())
	if err != nil {
		return false, fmt.Errorf("create plan: %w", err)
	}
	c.console.Section("Plan", planText)
	c.advisor.History().Append(state.RoleAssistant, planText)

	result, err := c.executor.execute(ctx, run, goal, planText)
	if err != nil {
		return false, fmt.Errorf("execute plan: %w", err)
	}
	c.console.Section("Execution Result", result)

	evaluation, err := c.advisor.EvaluateResult(ctx, goal, result)
	if err != nil {
		return false, fmt.Errorf("evaluate result: %w", err)
	}
	c.console.Section("Evaluation", evaluation)
	return plan.GoalAchieved(evaluation), nil
}

// handleFailure records an iteration failure, asks for a solution and returns
// whether the operator wants to keep going.
func (c *Commander) handleFailure(ctx context.Context, iteration int, cause error) bool {
	errMsg := fmt.Sprintf("Error in iteration %d: %v", iteration, cause)
	c.logger.Error().Err(cause).Int("iteration", iteration).Msg("iteration failed")
	c.console.Error(errMsg)

	solution, err := c.advisor.ProposeSolution(ctx, errMsg, "process_goal", "iteration", []string{strconv.Itoa(iteration)})
	if err != nil {
		solution = fmt.Sprintf("No solution available: %v", err)
	}
	c.console.Section("Proposed solution", solution)
	history := c.advisor.History()
	history.Append(state.RoleError, errMsg)
	history.Append(state.RoleSolution, solution)

	ok, err := c.approver.ContinueAfterError(ctx, errMsg)
	if err != nil {
		c.logger.Warn().Err(err).Msg("continue prompt failed")
	}
	return ok
}
