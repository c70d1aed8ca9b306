package store

import (
	"context"
	"testing"
	"time"

	"github.com/apache/trusted-releases/internal/model"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedProject(t *testing.T, st *Store) {
	t.Helper()
	ctx := context.Background()
	_, err := st.DB().ExecContext(ctx, `INSERT INTO committee (name, full_name, display_name, is_podling, automated_release_allowed) VALUES (?, ?, ?, 0, 1)`,
		"foo", "Apache Foo", "Foo")
	require.NoError(t, err)
	_, err = st.DB().ExecContext(ctx, `INSERT INTO committee_role (committee_name, asf_uid, role) VALUES (?, ?, ?)`, "foo", "uid1", "member")
	require.NoError(t, err)
	_, err = st.DB().ExecContext(ctx, `INSERT INTO release_policy (project_name, min_hours, github_repository_name) VALUES (?, ?, ?)`, "foo", 72, "apache/foo")
	require.NoError(t, err)
	_, err = st.DB().ExecContext(ctx, `INSERT INTO project (name, display_name, short_display_name, committee_name, release_policy_id) VALUES (?, ?, ?, ?, 1)`,
		"foo", "Apache Foo", "Foo", "foo")
	require.NoError(t, err)
	_, err = st.DB().ExecContext(ctx, `INSERT INTO release (project_name, version, phase, created) VALUES (?, ?, ?, ?)`,
		"foo", "1.0.0", model.PhaseCandidate, time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)
}

func TestGetProjectWithCommitteeAndPolicy(t *testing.T) {
	st := openTestStore(t)
	seedProject(t, st)

	sess := NewSession(st.DB())
	project, err := sess.GetProject(context.Background(), "foo")
	require.NoError(t, err)
	require.NotNil(t, project.Committee)
	require.True(t, project.Committee.Members.Has("uid1"))
	require.NotNil(t, project.ReleasePolicy)
	require.Equal(t, 72, *project.ReleasePolicy.MinHours)
}

func TestGetProjectMissingCommittee(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	_, err := st.DB().ExecContext(ctx, `INSERT INTO project (name, display_name, short_display_name) VALUES (?, ?, ?)`, "bar", "Bar", "Bar")
	require.NoError(t, err)

	sess := NewSession(st.DB())
	project, err := sess.GetProject(ctx, "bar")
	require.NoError(t, err)
	require.Nil(t, project.Committee)

	_, err = project.RequireCommittee()
	require.ErrorIs(t, err, model.ErrCommitteeMissing)
}

func TestCreateRevisionUpdatesLatest(t *testing.T) {
	st := openTestStore(t)
	seedProject(t, st)

	sess := NewSession(st.DB())
	ctx := context.Background()
	rev, err := sess.CreateRevision(ctx, "foo", "1.0.0", "r1", "uid1", time.Now().UTC())
	require.NoError(t, err)
	require.EqualValues(t, 1, rev.Seq)

	rev2, err := sess.CreateRevision(ctx, "foo", "1.0.0", "r2", "uid1", time.Now().UTC())
	require.NoError(t, err)
	require.EqualValues(t, 2, rev2.Seq)

	release, err := sess.GetRelease(ctx, "foo", "1.0.0")
	require.NoError(t, err)
	require.Equal(t, "r2", *release.LatestRevisionNumber)
}

func TestEnqueueAndCountOngoingVoteTasks(t *testing.T) {
	st := openTestStore(t)
	seedProject(t, st)
	sess := NewSession(st.DB())
	ctx := context.Background()

	task := &model.Task{
		TaskType:    model.TaskVoteInitiate,
		TaskArgs:    []byte(`{}`),
		ProjectName: "foo",
		VersionName: "1.0.0",
	}
	_, err := sess.Enqueue(ctx, task)
	require.NoError(t, err)

	count, err := sess.CountOngoingVoteInitiateTasks(ctx, "foo", "1.0.0")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestLatestVoteInitiateTaskRequiresResult(t *testing.T) {
	st := openTestStore(t)
	seedProject(t, st)
	sess := NewSession(st.DB())
	ctx := context.Background()

	task := &model.Task{
		TaskType:    model.TaskVoteInitiate,
		Status:      model.TaskQueued,
		TaskArgs:    []byte(`{}`),
		ProjectName: "foo",
		VersionName: "1.0.0",
	}
	_, err := sess.Enqueue(ctx, task)
	require.NoError(t, err)

	_, err = sess.LatestVoteInitiateTask(ctx, "foo", "1.0.0", false)
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = st.DB().ExecContext(ctx, `UPDATE task SET status = ?, result = ? WHERE project_name = ?`, model.TaskCompleted, `{"mid":"m1","archive_url":"https://lists.apache.org/thread/abc123"}`, "foo")
	require.NoError(t, err)

	found, err := sess.LatestVoteInitiateTask(ctx, "foo", "1.0.0", false)
	require.NoError(t, err)
	require.Equal(t, model.TaskCompleted, found.Status)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := openTestStore(t)
	seedProject(t, st)

	err := st.WithTx(context.Background(), func(sess *Session) error {
		if err := sess.SetReleasePhase(context.Background(), "foo", "1.0.0", model.PhasePreview); err != nil {
			return err
		}
		return model.ErrNotFound
	})
	require.ErrorIs(t, err, model.ErrNotFound)

	sess := NewSession(st.DB())
	release, err := sess.GetRelease(context.Background(), "foo", "1.0.0")
	require.NoError(t, err)
	require.Equal(t, model.PhaseCandidate, release.Phase)
}
