package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jumppad-labs/spektacular/internal/plan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "spektacular.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordsCompletedRun(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RunStarted("run-1", "login.md"))
	require.NoError(t, s.TurnStarted("run-1", 1))
	require.NoError(t, s.SessionCaptured("run-1", "sess-1"))
	require.NoError(t, s.TurnStarted("run-1", 2))
	require.NoError(t, s.RunFinished("run-1", plan.Outcome{State: StateCompleted, PlanDir: "/p/login"}))

	run, err := s.Get("run-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	require.Equal(t, "login.md", run.Spec)
	require.Equal(t, "sess-1", run.SessionID)
	require.Equal(t, StateCompleted, run.State)
	require.Equal(t, 2, run.Turns)
	require.Equal(t, "/p/login", run.PlanDir)
	require.Empty(t, run.Error)
	require.NotNil(t, run.EndedAt)
}

func TestStore_RecordsFailedRun(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RunStarted("run-1", "login.md"))
	require.NoError(t, s.RunFinished("run-1", plan.Outcome{State: StateFailed, Error: "boom"}))

	run, err := s.Get("run-1")
	require.NoError(t, err)
	require.Equal(t, StateFailed, run.State)
	require.Equal(t, "boom", run.Error)
	require.Empty(t, run.PlanDir)
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	run, err := s.Get("nope")
	require.NoError(t, err)
	require.Nil(t, run)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		started := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return started }
		require.NoError(t, s.RunStarted(id, id+".md"))
	}

	runs, err := s.List(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "c", runs[0].ID)
	require.Equal(t, "b", runs[1].ID)
	require.Equal(t, StateRunning, runs[0].State)
	require.Nil(t, runs[0].EndedAt)
}

func TestStore_DuplicateRunID(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RunStarted("run-1", "a.md"))
	require.Error(t, s.RunStarted("run-1", "a.md"))
}
