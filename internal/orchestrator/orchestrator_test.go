package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/apache/trusted-releases/internal/logging"
	"github.com/apache/trusted-releases/internal/model"
	"github.com/apache/trusted-releases/internal/role"
	"github.com/apache/trusted-releases/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedNonPodlingRelease(t *testing.T, st *store.Store, phase model.ReleasePhase) {
	t.Helper()
	ctx := context.Background()
	_, err := st.DB().ExecContext(ctx, `INSERT INTO committee (name, full_name, display_name, is_podling, automated_release_allowed) VALUES (?, ?, ?, 0, 1)`,
		"foo", "Apache Foo", "Foo")
	require.NoError(t, err)
	_, err = st.DB().ExecContext(ctx, `INSERT INTO committee_role (committee_name, asf_uid, role) VALUES (?, ?, ?)`, "foo", "uid1", "member")
	require.NoError(t, err)
	_, err = st.DB().ExecContext(ctx, `INSERT INTO project (name, display_name, short_display_name, committee_name) VALUES (?, ?, ?, ?)`,
		"foo", "Apache Foo", "Foo", "foo")
	require.NoError(t, err)
	_, err = st.DB().ExecContext(ctx, `INSERT INTO release (project_name, version, phase, created) VALUES (?, ?, ?, ?)`,
		"foo", "1.0.0", phase, time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)
}

func TestStartEnqueuesVoteInitiateTask(t *testing.T) {
	st := newTestStore(t)
	seedNonPodlingRelease(t, st, model.PhaseCandidateDraft)

	orch := New(st, nil, logging.Noop{}, false)
	caller := role.NewGrant("uid1", "Full Name", false).WithCommitteeMember("foo")

	task, err := orch.Start(context.Background(), caller, StartArgs{
		ProjectName: "foo",
		Version:     "1.0.0",
		ListAddress: "dev@foo.apache.org",
		Subject:     "[VOTE] Release Apache Foo 1.0.0",
		Body:        "Please vote.",
		Promote:     true,
	})
	require.NoError(t, err)
	require.Equal(t, model.TaskVoteInitiate, task.TaskType)

	sess := store.NewSession(st.DB())
	release, err := sess.GetRelease(context.Background(), "foo", "1.0.0")
	require.NoError(t, err)
	require.Equal(t, model.PhaseCandidate, release.Phase)
}

func TestStartRejectsNonMember(t *testing.T) {
	st := newTestStore(t)
	seedNonPodlingRelease(t, st, model.PhaseCandidateDraft)

	orch := New(st, nil, logging.Noop{}, false)
	caller := role.NewGrant("intruder", "Intruder", false)

	_, err := orch.Start(context.Background(), caller, StartArgs{ProjectName: "foo", Version: "1.0.0", ListAddress: "dev@foo.apache.org"})
	require.Error(t, err)
	require.IsType(t, &model.AccessError{}, err)
}

func TestResolveFailReturnsToDraft(t *testing.T) {
	st := newTestStore(t)
	seedNonPodlingRelease(t, st, model.PhaseCandidate)
	ctx := context.Background()

	_, err := st.DB().ExecContext(ctx, `
		INSERT INTO task (task_type, status, task_args, result, added, project_name, version_name)
		VALUES (?, ?, '{}', ?, ?, ?, ?)`,
		model.TaskVoteInitiate, model.TaskCompleted, `{"mid":"mid1","archive_url":"https://lists.apache.org/thread/thread1"}`,
		time.Now().UTC().Format(time.RFC3339), "foo", "1.0.0")
	require.NoError(t, err)

	orch := New(st, nil, logging.Noop{}, false)
	caller := role.NewGrant("uid1", "Full Name", false).WithCommitteeMember("foo")

	note, err := orch.Resolve(ctx, caller, "foo", "1.0.0", false, "The vote failed.")
	require.NoError(t, err)
	require.Empty(t, note)

	sess := store.NewSession(st.DB())
	release, err := sess.GetRelease(ctx, "foo", "1.0.0")
	require.NoError(t, err)
	require.Equal(t, model.PhaseCandidateDraft, release.Phase)
}

func TestResolvePassAdvancesToPreview(t *testing.T) {
	st := newTestStore(t)
	seedNonPodlingRelease(t, st, model.PhaseCandidate)
	ctx := context.Background()

	_, err := st.DB().ExecContext(ctx, `
		INSERT INTO task (task_type, status, task_args, result, added, project_name, version_name)
		VALUES (?, ?, '{}', ?, ?, ?, ?)`,
		model.TaskVoteInitiate, model.TaskCompleted, `{"mid":"mid1","archive_url":"https://lists.apache.org/thread/thread1"}`,
		time.Now().UTC().Format(time.RFC3339), "foo", "1.0.0")
	require.NoError(t, err)

	orch := New(st, nil, logging.Noop{}, false)
	caller := role.NewGrant("uid1", "Full Name", false).WithCommitteeMember("foo")

	note, err := orch.Resolve(ctx, caller, "foo", "1.0.0", true, "The vote passed.")
	require.NoError(t, err)
	require.Empty(t, note)

	sess := store.NewSession(st.DB())
	release, err := sess.GetRelease(ctx, "foo", "1.0.0")
	require.NoError(t, err)
	require.Equal(t, model.PhasePreview, release.Phase)
}
