package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLines(t *testing.T) {
	text := "Reasoning:\n1. think\n\n  Plan:  \n1. a.b, x\n\n   2. c.d   \n"
	got := ExtractLines(text)
	if diff := cmp.Diff([]string{"1. a.b, x", "2. c.d"}, got); diff != "" {
		t.Fatalf("ExtractLines mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, ExtractLines("1. a.b, x\n2. c.d"))
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		line string
		want Step
	}{
		{
			line: "1. json_operations.create_json, a: 1, b: 2",
			want: Step{Capability: "json_operations", Function: "create_json", Args: []string{"a: 1", "b: 2"}, Raw: "1. json_operations.create_json, a: 1, b: 2"},
		},
		{
			line: "12.file_operations.read_file,  \"notes.txt\" ,, ",
			want: Step{Capability: "file_operations", Function: "read_file", Args: []string{`"notes.txt"`}, Raw: "12.file_operations.read_file,  \"notes.txt\" ,,"},
		},
		{
			line: "web_operations.make_get_request",
			want: Step{Capability: "web_operations", Function: "make_get_request", Raw: "web_operations.make_get_request"},
		},
	}
	for _, tt := range tests {
		got, err := ParseStep(tt.line)
		require.NoError(t, err, tt.line)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseStep(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestParseStepMalformed(t *testing.T) {
	for _, line := range []string{"3. do something", "a.b.c, x", ".fn, x", "cap., x", ""} {
		_, err := ParseStep(line)
		var mse *MalformedStepError
		assert.ErrorAs(t, err, &mse, line)
	}
}

func TestParseKeepsGoodStepsAroundBadOnes(t *testing.T) {
	steps, errs := Parse("Plan:\n1. a.b, x\n2. nonsense\n3. c.d")
	require.Len(t, errs, 1)
	require.Len(t, steps, 2)
	assert.Equal(t, "a.b", steps[0].Target())
	assert.Equal(t, "c.d", steps[1].Target())
}

func TestParseModification(t *testing.T) {
	text := "Explanation: retry\nModified steps:\n1. a.b, x\n  2.c.d\n10. ignored\n- bullet\n9. e.f"
	if diff := cmp.Diff([]string{"a.b, x", "c.d", "e.f"}, ParseModification(text)); diff != "" {
		t.Fatalf("ParseModification mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkers(t *testing.T) {
	assert.True(t, NoModificationNeeded("  No modification needed."))
	assert.True(t, NoModificationNeeded("\n"))
	assert.False(t, NoModificationNeeded("Explanation: No modification needed"))
	assert.True(t, GoalAchieved("Analysis...\nGoal achieved: Yes"))
	assert.False(t, GoalAchieved("Goal achieved: No"))
	assert.True(t, IsSentinel("Error: File 'x' does not exist."))
	assert.False(t, IsSentinel("no errors here"))
}

func TestStepString(t *testing.T) {
	s := Step{Capability: "a", Function: "b", Args: []string{"x", "y z"}}
	assert.Equal(t, `a.b("x", "y z")`, s.String())
	assert.Equal(t, "a.b()", FormatCall("a", "b", nil))
}
