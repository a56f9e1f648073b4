// Package plan parses textual plans into steps and resolves the references
// between them.
package plan

import (
	"fmt"
	"regexp"
	"strings"
)

var ordinalPrefix = regexp.MustCompile(`^\d+\.\s*`)

// Step is one "capability.function, arg, arg" line of a plan.
type Step struct {
	Capability string
	Function   string
	Args       []string
	Raw        string
}

// Target returns "capability.function".
func (s Step) Target() string {
	return s.Capability + "." + s.Function
}

func (s Step) String() string {
	return FormatCall(s.Capability, s.Function, s.Args)
}

// FormatCall renders a call as cap.func("a", "b").
func FormatCall(capability, function string, args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return fmt.Sprintf("%s.%s(%s)", capability, function, strings.Join(quoted, ", "))
}

// MalformedStepError reports a plan line that is not capability.function.
type MalformedStepError struct {
	Line   string
	Reason string
}

func (e *MalformedStepError) Error() string {
	return fmt.Sprintf("invalid step format %q: %s", e.Line, e.Reason)
}

// ExtractLines returns the trimmed, non-blank lines after the first "Plan:" line.
func ExtractLines(text string) []string {
	var (
		lines  []string
		inPlan bool
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inPlan {
			inPlan = strings.HasPrefix(strings.ToLower(trimmed), "plan:")
			continue
		}
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// StripOrdinal removes a leading "12." numbering from a plan line.
func StripOrdinal(line string) string {
	return ordinalPrefix.ReplaceAllString(strings.TrimSpace(line), "")
}

// ParseStep parses a single plan line.
func ParseStep(line string) (Step, error) {
	raw := strings.TrimSpace(line)
	body := StripOrdinal(raw)
	target, argText, _ := strings.Cut(body, ",")
	target = strings.TrimSpace(target)

	parts := strings.Split(target, ".")
	if len(parts) != 2 {
		return Step{}, &MalformedStepError{Line: body, Reason: fmt.Sprintf("expected capability.function, got %q", target)}
	}
	capability, function := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if capability == "" || function == "" {
		return Step{}, &MalformedStepError{Line: body, Reason: fmt.Sprintf("empty capability or function in %q", target)}
	}

	var args []string
	for _, a := range strings.Split(argText, ",") {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}
	return Step{Capability: capability, Function: function, Args: args, Raw: raw}, nil
}

// Parse parses every plan line, returning well-formed steps in order and one
// error per malformed line.
func Parse(text string) ([]Step, []error) {
	var (
		steps []Step
		errs  []error
	)
	for _, line := range ExtractLines(text) {
		step, err := ParseStep(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		steps = append(steps, step)
	}
	return steps, errs
}

// ParseModification returns the steps of a modification proposal: the text
// after the first '.' of every line starting with an ordinal 1. through 9.
func ParseModification(text string) []string {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < 2 || trimmed[0] < '1' || trimmed[0] > '9' || trimmed[1] != '.' {
			continue
		}
		steps = append(steps, strings.TrimSpace(trimmed[2:]))
	}
	return steps
}

// NoModificationNeeded reports whether a step evaluation leaves the plan as is.
func NoModificationNeeded(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || strings.HasPrefix(trimmed, "No modification needed")
}

// GoalAchieved reports whether an evaluation declares the goal met.
func GoalAchieved(text string) bool {
	return strings.Contains(text, "Goal achieved: Yes")
}

// IsSentinel reports whether a capability result signals a failure.
func IsSentinel(result string) bool {
	return strings.Contains(result, "Error")
}
