package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "No previous conversation.", NewRecord().Format(5))
}

func TestFormatKeepsNewestWindow(t *testing.T) {
	r := NewRecord()
	for _, c := range []string{"a", "b", "c", "d", "e", "f"} {
		r.Append(RoleUser, c)
	}
	r.Append(RoleSolution, "fix it")

	assert.Equal(t, "User: d\nUser: e\nUser: f\nSolution: fix it", r.Format(4))
	assert.Equal(t, 7, r.Len())
}

func TestRecentReturnsCopy(t *testing.T) {
	r := NewRecord()
	r.Append(RoleAssistant, "plan")
	got := r.Recent(10)
	require.Len(t, got, 1)
	got[0].Content = "mutated"
	assert.Equal(t, "plan", r.Entries()[0].Content)
	assert.Nil(t, r.Recent(0))
}
