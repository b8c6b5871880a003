package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/erp-api/internal/models"
)

func strPtr(s string) *string { return &s }

func node(id string, parent string, level *int) models.HierarchyNode {
	n := models.HierarchyNode{ID: id, HierarchyLevel: level}
	if parent != "" {
		n.ParentID = strPtr(parent)
	}
	return n
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, 1, LevelFor(nil))
	assert.Equal(t, 4, LevelFor(intPtr(3)))
}

func TestCheckParent(t *testing.T) {
	assert.ErrorIs(t, CheckParent("u1", "u1", nil), ErrSelfParent)
	assert.ErrorIs(t, CheckParent("u1", "u3", []string{"u3", "u2", "u1"}), ErrCycle)
	assert.NoError(t, CheckParent("u1", "u9", []string{"u9", "root"}))
	assert.NoError(t, CheckParent("", "u9", []string{"u9"}))
}

func TestCascadeUpdatesAllDescendants(t *testing.T) {
	// a -> b -> c, a -> d; a moves under a level-2 parent.
	descendants := []models.HierarchyNode{
		node("b", "a", intPtr(1)),
		node("c", "b", intPtr(2)),
		node("d", "a", intPtr(1)),
	}
	changes := Cascade("a", intPtr(3), descendants)
	require.Len(t, changes, 3)

	levels := map[string]int{}
	for _, c := range changes {
		levels[c.ID] = *c.Level
	}
	assert.Equal(t, map[string]int{"b": 4, "c": 5, "d": 4}, levels)
}

func TestCascadeSkipsConsistentNodes(t *testing.T) {
	descendants := []models.HierarchyNode{node("b", "a", intPtr(1))}
	assert.Empty(t, Cascade("a", nil, descendants))
}

func TestRebuildAndCheck(t *testing.T) {
	nodes := []models.HierarchyNode{
		node("root", "", intPtr(5)),
		node("m", "root", intPtr(1)),
		node("s", "m", intPtr(7)),
		node("orphan", "ghost", nil),
		node("x", "y", intPtr(1)),
		node("y", "x", intPtr(1)),
	}

	violations := Check(nodes)
	reasons := map[string]string{}
	for _, v := range violations {
		reasons[v.ID] = v.Reason
	}
	assert.Equal(t, ReasonLevelMismatch, reasons["m"])
	assert.Equal(t, ReasonLevelMismatch, reasons["s"])
	assert.Equal(t, ReasonDangling, reasons["orphan"])
	assert.Equal(t, ReasonUnreachable, reasons["x"])
	assert.Equal(t, ReasonUnreachable, reasons["y"])

	changes, leftovers := Rebuild(nodes)
	got := map[string]*int{}
	for _, c := range changes {
		got[c.ID] = c.Level
	}
	require.Contains(t, got, "root")
	assert.Nil(t, got["root"])
	assert.NotContains(t, got, "m")
	require.Contains(t, got, "s")
	assert.Equal(t, 2, *got["s"])
	assert.Len(t, leftovers, 3)
}
