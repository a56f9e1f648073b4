package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var backReference = regexp.MustCompile(`^\[result from step (\d+)\]$`)

// Results holds step outputs keyed by 1-based step position.
type Results struct {
	values map[int]string
	order  []int
}

func NewResults() *Results {
	return &Results{values: make(map[int]string)}
}

// Set stores the output of step n.
func (r *Results) Set(n int, value string) {
	if _, ok := r.values[n]; !ok {
		r.order = append(r.order, n)
	}
	r.values[n] = value
}

// Get returns the output of step n.
func (r *Results) Get(n int) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[n]
	return v, ok
}

func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Keys lists the stored step numbers in insertion order.
func (r *Results) Keys() []int {
	out := make([]int, len(r.order))
	copy(out, r.order)
	return out
}

// Source records which resolution rule produced a value.
type Source int

const (
	SourceLiteral Source = iota
	SourceJSON
	SourceURL
	SourceFirstLine
	SourceRaw
	SourcePassThrough
)

func (s Source) String() string {
	switch s {
	case SourceLiteral:
		return "literal"
	case SourceJSON:
		return "json"
	case SourceURL:
		return "url"
	case SourceFirstLine:
		return "first_line"
	case SourceRaw:
		return "raw"
	case SourcePassThrough:
		return "pass_through"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Resolution is a resolved argument and the rule that produced it.
type Resolution struct {
	Value  string
	Source Source
}

// Resolve turns a raw plan argument into the value passed to a capability.
// "[result from step N]" is replaced by step N's output; unknown references
// are passed through unchanged; anything else loses surrounding double quotes.
func Resolve(raw string, results *Results) Resolution {
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		m := backReference.FindStringSubmatch(raw)
		if m == nil {
			return Resolution{Value: raw, Source: SourcePassThrough}
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Resolution{Value: raw, Source: SourcePassThrough}
		}
		stored, ok := results.Get(n)
		if !ok {
			return Resolution{Value: raw, Source: SourcePassThrough}
		}
		return fromResult(stored)
	}
	return Resolution{Value: strings.Trim(raw, `"`), Source: SourceLiteral}
}

func fromResult(stored string) Resolution {
	if json.Valid([]byte(stored)) {
		return Resolution{Value: stored, Source: SourceJSON}
	}
	for _, line := range strings.Split(stored, "\n") {
		for _, field := range strings.Fields(line) {
			if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
				return Resolution{Value: field, Source: SourceURL}
			}
		}
	}
	if strings.HasPrefix(stored, "http") {
		first, _, _ := strings.Cut(stored, "\n")
		return Resolution{Value: strings.TrimSpace(first), Source: SourceFirstLine}
	}
	return Resolution{Value: stored, Source: SourceRaw}
}

// ResolveAll resolves every argument of a step.
func ResolveAll(args []string, results *Results) []Resolution {
	out := make([]Resolution, len(args))
	for i, a := range args {
		out[i] = Resolve(a, results)
	}
	return out
}

// Values extracts the resolved values.
func Values(rs []Resolution) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Value
	}
	return out
}
