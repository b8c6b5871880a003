// Package hierarchy holds the pure rules that keep users.hierarchy_level
// consistent with users.parent_id. A root has a NULL level which counts as 0,
// so direct reports of a root sit at level 1.
package hierarchy

import (
	"errors"
	"sort"

	"github.com/noah-isme/erp-api/internal/models"
)

var (
	// ErrSelfParent is returned when a user is assigned as its own parent.
	ErrSelfParent = errors.New("user cannot report to itself")
	// ErrCycle is returned when the parent is already a descendant of the user.
	ErrCycle = errors.New("parent would create a cycle")
)

// Effective returns the numeric value of a possibly NULL level.
func Effective(level *int) int {
	if level == nil {
		return 0
	}
	return *level
}

// LevelFor returns the level of a user whose parent sits at parentLevel.
func LevelFor(parentLevel *int) int {
	return Effective(parentLevel) + 1
}

// CheckParent validates assigning parentID to userID given the parent's
// ancestor chain (parent first, root last).
func CheckParent(userID, parentID string, ancestors []string) error {
	if userID != "" && userID == parentID {
		return ErrSelfParent
	}
	if userID == "" {
		return nil
	}
	for _, id := range ancestors {
		if id == userID {
			return ErrCycle
		}
	}
	return nil
}

// Change is a level update produced by Cascade or Rebuild.
type Change struct {
	ID       string `json:"id"`
	Previous *int   `json:"previous,omitempty"`
	Level    *int   `json:"level"`
}

func intPtr(v int) *int { return &v }

func sameLevel(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func childrenOf(nodes []models.HierarchyNode) map[string][]models.HierarchyNode {
	children := make(map[string][]models.HierarchyNode)
	for _, n := range nodes {
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n)
		}
	}
	for id := range children {
		sort.Slice(children[id], func(i, j int) bool { return children[id][i].ID < children[id][j].ID })
	}
	return children
}

// Cascade walks descendants of rootID breadth first and returns the level
// updates needed once the root sits at rootLevel. Nodes already at the
// correct level produce no change.
func Cascade(rootID string, rootLevel *int, descendants []models.HierarchyNode) []Change {
	children := childrenOf(descendants)
	changes := make([]Change, 0)
	visited := map[string]bool{rootID: true}

	type item struct {
		id    string
		level *int
	}
	queue := []item{{id: rootID, level: rootLevel}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current.id] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			level := intPtr(LevelFor(current.level))
			if !sameLevel(child.HierarchyLevel, level) {
				changes = append(changes, Change{ID: child.ID, Previous: child.HierarchyLevel, Level: level})
			}
			queue = append(queue, item{id: child.ID, level: level})
		}
	}
	return changes
}

// Violation describes a user whose stored level breaks the invariant or who
// cannot be reached from any root.
type Violation struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id,omitempty"`
	Expected *int    `json:"expected,omitempty"`
	Actual   *int    `json:"actual,omitempty"`
	Reason   string  `json:"reason"`
}

// Violation reasons.
const (
	ReasonLevelMismatch = "level_mismatch"
	ReasonDangling      = "dangling_parent"
	ReasonUnreachable   = "unreachable"
)

// Rebuild recomputes every level from the roots. Roots are normalised to a
// NULL level. Users with a dangling parent or trapped in a cycle are left
// untouched and reported as violations.
func Rebuild(nodes []models.HierarchyNode) ([]Change, []Violation) {
	byID := make(map[string]models.HierarchyNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	expected := make(map[string]*int, len(nodes))
	changes := make([]Change, 0)
	roots := make([]models.HierarchyNode, 0)
	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })

	for _, root := range roots {
		expected[root.ID] = nil
		if root.HierarchyLevel != nil {
			changes = append(changes, Change{ID: root.ID, Previous: root.HierarchyLevel, Level: nil})
		}
		changes = append(changes, Cascade(root.ID, nil, nodes)...)
	}

	children := childrenOf(nodes)
	queue := make([]string, 0, len(roots))
	for _, root := range roots {
		queue = append(queue, root.ID)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if _, seen := expected[child.ID]; seen {
				continue
			}
			expected[child.ID] = intPtr(LevelFor(expected[id]))
			queue = append(queue, child.ID)
		}
	}

	violations := make([]Violation, 0)
	for _, n := range nodes {
		if _, ok := expected[n.ID]; ok {
			continue
		}
		reason := ReasonUnreachable
		if _, ok := byID[*n.ParentID]; !ok {
			reason = ReasonDangling
		}
		violations = append(violations, Violation{ID: n.ID, ParentID: n.ParentID, Actual: n.HierarchyLevel, Reason: reason})
	}
	sort.Slice(violations, func(i, j int) bool { return violations[i].ID < violations[j].ID })
	return changes, violations
}

// Check lists every user whose stored level differs from its parent's
// stored level plus one, whose parent is missing, or whose ancestor chain loops.
func Check(nodes []models.HierarchyNode) []Violation {
	byID := make(map[string]models.HierarchyNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	violations := make([]Violation, 0)
	for _, n := range nodes {
		if n.ParentID == nil {
			continue
		}
		parent, ok := byID[*n.ParentID]
		if !ok {
			violations = append(violations, Violation{ID: n.ID, ParentID: n.ParentID, Actual: n.HierarchyLevel, Reason: ReasonDangling})
			continue
		}
		if inCycle(n.ID, byID) {
			violations = append(violations, Violation{ID: n.ID, ParentID: n.ParentID, Actual: n.HierarchyLevel, Reason: ReasonUnreachable})
			continue
		}
		want := intPtr(LevelFor(parent.HierarchyLevel))
		if !sameLevel(n.HierarchyLevel, want) {
			violations = append(violations, Violation{
				ID:       n.ID,
				ParentID: n.ParentID,
				Expected: want,
				Actual:   n.HierarchyLevel,
				Reason:   ReasonLevelMismatch,
			})
		}
	}
	sort.Slice(violations, func(i, j int) bool { return violations[i].ID < violations[j].ID })
	return violations
}

func inCycle(start string, byID map[string]models.HierarchyNode) bool {
	seen := map[string]bool{}
	current := start
	for {
		if seen[current] {
			return true
		}
		seen[current] = true
		n, ok := byID[current]
		if !ok || n.ParentID == nil {
			return false
		}
		current = *n.ParentID
	}
}
