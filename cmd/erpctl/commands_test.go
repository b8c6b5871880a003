package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/erp-api/internal/hierarchy"
	"github.com/noah-isme/erp-api/internal/models"
)

type maintainerStub struct {
	changes    []hierarchy.Change
	violations []hierarchy.Violation
	actor      string
}

func (m *maintainerStub) RebuildHierarchy(ctx context.Context, actorID string, meta models.LoginRequest) ([]hierarchy.Change, []hierarchy.Violation, error) {
	m.actor = actorID
	return m.changes, m.violations, nil
}

func (m *maintainerStub) CheckHierarchy(ctx context.Context) ([]hierarchy.Violation, error) {
	return m.violations, nil
}

type reminderStub struct {
	olderThan time.Duration
	limit     int
}

func (r *reminderStub) RemindStale(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	r.olderThan, r.limit = olderThan, limit
	return 3, nil
}

func runCmd(t *testing.T, b *backend, args ...string) (string, error) {
	t.Helper()
	closed := false
	b.close = func() { closed = true }
	root := newRootCmd(func() (*backend, error) { return b, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	assert.True(t, closed, "backend must be closed")
	return out.String(), err
}

func intPtr(v int) *int { return &v }

func TestHierarchyRebuildPrintsChanges(t *testing.T) {
	users := &maintainerStub{changes: []hierarchy.Change{{ID: "u-2", Previous: nil, Level: intPtr(2)}}}

	out, err := runCmd(t, &backend{users: users}, "hierarchy", "rebuild")
	require.NoError(t, err)
	assert.Equal(t, systemActor, users.actor)
	assert.Contains(t, out, "updated 1 user(s)")
	assert.Contains(t, out, "u-2: null -> 2")
	assert.Contains(t, out, "hierarchy consistent")
}

func TestHierarchyCheckFailsOnViolations(t *testing.T) {
	users := &maintainerStub{violations: []hierarchy.Violation{{ID: "u-3", Expected: intPtr(1), Actual: intPtr(4), Reason: "level mismatch"}}}

	out, err := runCmd(t, &backend{users: users}, "hierarchy", "check")
	require.Error(t, err)
	assert.Contains(t, out, "u-3: level mismatch (expected 1, stored 4)")
}

func TestHierarchyCheckJSON(t *testing.T) {
	out, err := runCmd(t, &backend{users: &maintainerStub{}}, "--json", "hierarchy", "check")
	require.NoError(t, err)
	assert.JSONEq(t, "null", out)
}

func TestRemindPassesFlags(t *testing.T) {
	reminders := &reminderStub{}

	out, err := runCmd(t, &backend{approvals: reminders}, "remind", "--older-than", "48h", "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, reminders.olderThan)
	assert.Equal(t, 5, reminders.limit)
	assert.Contains(t, out, "sent 3 reminder(s)")
}
