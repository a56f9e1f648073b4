package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"golang.org/x/term"

	"goalrunner/internal/config"
)

// Approver gates every side effect the executor is about to take.
// An error is treated as a refusal.
type Approver interface {
	ApproveStep(ctx context.Context, call string) (bool, error)
	ApproveModification(ctx context.Context, proposal string) (bool, error)
	ContinueAfterError(ctx context.Context, errMsg string) (bool, error)
}

// AutoApprove accepts everything.
type AutoApprove struct{}

func (AutoApprove) ApproveStep(context.Context, string) (bool, error)         { return true, nil }
func (AutoApprove) ApproveModification(context.Context, string) (bool, error) { return true, nil }
func (AutoApprove) ContinueAfterError(context.Context, string) (bool, error)  { return true, nil }

// DenyAll refuses everything.
type DenyAll struct{}

func (DenyAll) ApproveStep(context.Context, string) (bool, error)         { return false, nil }
func (DenyAll) ApproveModification(context.Context, string) (bool, error) { return false, nil }
func (DenyAll) ContinueAfterError(context.Context, string) (bool, error)  { return false, nil }

var yesNoSuggestions = []prompt.Suggest{
	{Text: "yes", Description: "approve"},
	{Text: "no", Description: "decline"},
}

// Interactive asks the operator on the terminal. With a TTY it uses go-prompt
// with yes/no completion; otherwise it reads lines from in.
type Interactive struct {
	in    *bufio.Reader
	out   io.Writer
	isTTY bool
}

// NewInteractive reads from in and writes questions to out.
func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{in: bufio.NewReader(in), out: out}
}

// NewTerminalInteractive binds to the process stdin/stdout.
func NewTerminalInteractive() *Interactive {
	i := NewInteractive(os.Stdin, os.Stdout)
	i.isTTY = term.IsTerminal(int(os.Stdin.Fd()))
	return i
}

func (i *Interactive) ApproveStep(ctx context.Context, call string) (bool, error) {
	return i.ask(ctx, fmt.Sprintf("Do you want to execute: %s?", call))
}

func (i *Interactive) ApproveModification(ctx context.Context, _ string) (bool, error) {
	return i.ask(ctx, "Do you want to apply this modification?")
}

func (i *Interactive) ContinueAfterError(ctx context.Context, _ string) (bool, error) {
	return i.ask(ctx, "Do you want to continue execution?")
}

func (i *Interactive) ask(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if i.isTTY {
		answer := prompt.Input(question+" (yes/no): ", yesNoCompleter)
		return isYes(answer), nil
	}
	fmt.Fprintf(i.out, "%s (yes/no): ", question)
	line, err := i.in.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("read answer: %w", err)
	}
	return isYes(line), nil
}

func yesNoCompleter(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(yesNoSuggestions, d.GetWordBeforeCursor(), true)
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// ApproverFor maps an approval mode name to an Approver.
func ApproverFor(mode string) (Approver, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", config.ApprovalInteractive:
		return NewTerminalInteractive(), nil
	case config.ApprovalAuto:
		return AutoApprove{}, nil
	case config.ApprovalDeny:
		return DenyAll{}, nil
	default:
		return nil, fmt.Errorf("unknown approval mode %q", mode)
	}
}
