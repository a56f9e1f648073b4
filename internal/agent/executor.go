package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"goalrunner/internal/journal"
	"goalrunner/internal/llm"
	"goalrunner/internal/logging"
	"goalrunner/internal/plan"
	"goalrunner/internal/tooling"
)

// Recorder receives an audit trail of runs. *journal.Journal implements it.
type Recorder interface {
	StartRun(ctx context.Context, goal string) (string, error)
	RecordStep(ctx context.Context, rec journal.StepRecord) error
	FinishRun(ctx context.Context, runID string, achieved bool, message string) error
}

// ExecutorOptions wires an Executor.
type ExecutorOptions struct {
	Registry  *tooling.Registry
	Advisor   *Advisor
	Approver  Approver
	Recorder  Recorder
	Console   *Console
	Normalize bool
	Logger    *zerolog.Logger
}

// Executor runs one plan step by step, adapting it as results come in.
type Executor struct {
	registry  *tooling.Registry
	advisor   *Advisor
	approver  Approver
	recorder  Recorder
	console   *Console
	normalize bool
	logger    zerolog.Logger
}

func NewExecutor(opts ExecutorOptions) *Executor {
	logger := logging.Component("executor")
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "executor").Logger()
	}
	approver := opts.Approver
	if approver == nil {
		approver = DenyAll{}
	}
	return &Executor{
		registry:  opts.Registry,
		advisor:   opts.Advisor,
		approver:  approver,
		recorder:  opts.Recorder,
		console:   opts.Console,
		normalize: opts.Normalize,
		logger:    logger,
	}
}

// Normalization is the outcome of converting a step result to JSON.
type Normalization struct {
	Value     string
	Converted bool
	Reason    string
}

type runRef struct {
	id        string
	iteration int
}

// execution is the mutable state of one plan run.
type execution struct {
	run     runRef
	goal    string
	steps   []string
	results *plan.Results
	output  []string
}

func (x *execution) emit(line string) {
	x.output = append(x.output, line)
}

func (x *execution) text() string {
	return strings.Join(x.output, "\n")
}

// Execute runs planText and returns the step outputs joined by newlines.
// A non-nil error means the run was aborted; the partial output is still returned.
func (e *Executor) Execute(ctx context.Context, goal, planText string) (string, error) {
	return e.execute(ctx, runRef{}, goal, planText)
}

func (e *Executor) execute(ctx context.Context, run runRef, goal, planText string) (string, error) {
	x := &execution{
		run:     run,
		goal:    goal,
		steps:   plan.ExtractLines(planText),
		results: plan.NewResults(),
	}
	e.logger.Info().Int("steps", len(x.steps)).Int("iteration", run.iteration).Msg("executing plan")

	for i := 0; i < len(x.steps); i++ {
		if err := ctx.Err(); err != nil {
			return x.text(), err
		}
		stop, err := e.runStep(ctx, x, i)
		if err != nil {
			return x.text(), err
		}
		if stop {
			break
		}
	}
	return x.text(), nil
}

// runStep executes step i. Failures are reported, a solution is requested and
// the operator decides whether to go on.
func (e *Executor) runStep(ctx context.Context, x *execution, i int) (bool, error) {
	raw := plan.StripOrdinal(x.steps[i])
	step, err := plan.ParseStep(raw)
	if err != nil {
		return false, e.malformed(ctx, x, i, raw, err)
	}

	stepErr := e.safeStep(ctx, x, i, step)
	if stepErr == nil {
		return false, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return true, ctxErr
	}
	return e.fail(ctx, x, i, raw, stepErr)
}

func (e *Executor) safeStep(ctx context.Context, x *execution, i int, step plan.Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("step", step.Raw).Msg("capability panicked")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.step(ctx, x, i, step)
}

func (e *Executor) step(ctx context.Context, x *execution, i int, step plan.Step) error {
	resolved := plan.ResolveAll(step.Args, x.results)
	args := plan.Values(resolved)
	for n, r := range resolved {
		if r.Source != plan.SourceLiteral {
			e.logger.Debug().Int("arg", n).Str("source", r.Source.String()).Msg("argument resolved")
		}
	}
	call := plan.FormatCall(step.Capability, step.Function, args)

	ok, err := e.approver.ApproveStep(ctx, call)
	if err != nil {
		e.logger.Warn().Err(err).Msg("step approval failed")
	}
	if !ok {
		x.emit("Skipped: " + call)
		e.record(ctx, x, i, call, journal.StatusSkipped, "")
		return nil
	}

	if plan.NeedsURLGuard(step.Function) && len(args) > 0 {
		if err := plan.ValidateURL(args[0]); err != nil {
			return err
		}
	}

	result, err := e.registry.Invoke(ctx, step.Capability, step.Function, args...)
	if err != nil {
		return err
	}
	value := result
	if step.Capability != "json_operations" {
		value = e.normalizeResult(ctx, result).Value
	}

	x.emit(fmt.Sprintf("%s result: %s", step.Target(), value))
	x.results.Set(i+1, value)
	status := journal.StatusOK
	if plan.IsSentinel(value) {
		status = journal.StatusError
	}
	e.record(ctx, x, i, call, status, value)
	e.console.Section(fmt.Sprintf("Step %d result (%s)", i+1, step.Target()), value)

	if err := e.maybeModify(ctx, x, i, value); err != nil {
		return err
	}

	if plan.IsSentinel(value) {
		solution, err := e.advisor.ProposeSolution(ctx, value, step.Capability, step.Function, args)
		if err != nil {
			return err
		}
		x.emit("Error solution: " + solution)
		e.console.Section("Proposed solution", solution)
	}
	return nil
}

// normalizeResult converts result to JSON through json_operations.to_json.
// Sentinel results are left alone so their "Error" text stays visible.
func (e *Executor) normalizeResult(ctx context.Context, result string) Normalization {
	switch {
	case !e.normalize:
		return Normalization{Value: result, Reason: "disabled"}
	case plan.IsSentinel(result):
		return Normalization{Value: result, Reason: "sentinel"}
	}
	converted, err := e.registry.Invoke(ctx, "json_operations", "to_json", result)
	switch {
	case err != nil:
		return Normalization{Value: result, Reason: err.Error()}
	case plan.IsSentinel(converted):
		return Normalization{Value: result, Reason: "not convertible"}
	}
	return Normalization{Value: converted, Converted: true}
}

func (e *Executor) maybeModify(ctx context.Context, x *execution, i int, value string) error {
	proposal, err := e.advisor.EvaluateStep(ctx, x.goal, value, i, x.steps[i+1:])
	if err != nil {
		return err
	}
	if plan.NoModificationNeeded(proposal) {
		return nil
	}
	e.console.Section("Plan modification suggested", proposal)
	ok, err := e.approver.ApproveModification(ctx, proposal)
	if err != nil {
		e.logger.Warn().Err(err).Msg("modification approval failed")
	}
	if !ok {
		return nil
	}
	modified := plan.ParseModification(proposal)
	x.steps = append(x.steps[:i+1:i+1], modified...)
	e.logger.Info().Int("after_step", i+1).Int("new_steps", len(modified)).Msg("plan modified")
	e.console.Steps("Updated plan", x.steps[i+1:], i+2)
	return nil
}

func (e *Executor) malformed(ctx context.Context, x *execution, i int, raw string, cause error) error {
	msg := fmt.Sprintf("Error executing step: %s. Error: %v", raw, cause)
	x.emit(msg)
	e.record(ctx, x, i, raw, journal.StatusError, msg)
	e.console.Error(msg)
	solution, err := e.advisor.ProposeSolution(ctx, msg, "unknown", "unknown", nil)
	if err != nil {
		return err
	}
	x.emit("Error solution: " + solution)
	e.console.Section("Proposed solution", solution)
	return nil
}

func (e *Executor) fail(ctx context.Context, x *execution, i int, raw string, cause error) (bool, error) {
	msg := fmt.Sprintf("Error executing step: %s. Error: %v", raw, cause)
	e.logger.Error().Err(cause).Str("step", raw).Str("kind", errorKind(cause)).Msg("step failed")
	x.emit(msg)
	e.record(ctx, x, i, raw, journal.StatusError, msg)
	e.console.Error(msg)

	solution, err := e.advisor.ProposeSolution(ctx, msg, "unknown", "unknown", nil)
	if err != nil {
		return true, err
	}
	x.emit("Error solution: " + solution)
	e.console.Section("Proposed solution", solution)

	ok, err := e.approver.ContinueAfterError(ctx, msg)
	if err != nil {
		e.logger.Warn().Err(err).Msg("continue prompt failed")
	}
	if !ok {
		x.emit("Execution stopped due to error.")
		return true, nil
	}
	return false, nil
}

func (e *Executor) record(ctx context.Context, x *execution, i int, call, status, output string) {
	if e.recorder == nil || x.run.id == "" {
		return
	}
	err := e.recorder.RecordStep(ctx, journal.StepRecord{
		RunID:     x.run.id,
		Iteration: x.run.iteration,
		Position:  i + 1,
		Step:      call,
		Status:    status,
		Output:    output,
	})
	if err != nil {
		e.logger.Warn().Err(err).Msg("journal write failed")
	}
}

func errorKind(err error) string {
	var (
		notFound *tooling.NotFoundError
		argErr   *tooling.ArgumentError
		badURL   *plan.InvalidURLError
	)
	switch {
	case errors.As(err, &notFound):
		return "capability_not_found"
	case errors.As(err, &argErr):
		return "argument"
	case errors.As(err, &badURL):
		return "invalid_url"
	case isCollaborator(err):
		return "collaborator"
	default:
		return "unhandled"
	}
}

func isCollaborator(err error) bool {
	_, ok := llm.IsCollaboratorError(err)
	return ok
}
