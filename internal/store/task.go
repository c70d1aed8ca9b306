package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/apache/trusted-releases/internal/model"
	pkgerrors "github.com/pkg/errors"
)

// Enqueue inserts a new task in QUEUED status, satisfying taskqueue.Sink.
func (s *Session) Enqueue(ctx context.Context, t *model.Task) (int64, error) {
	if t.Status == "" {
		t.Status = model.TaskQueued
	}
	if t.Added.IsZero() {
		t.Added = time.Now().UTC()
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO task (task_type, status, task_args, result, added, project_name, version_name, revision_number, asf_uid)
		VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?)`,
		t.TaskType, t.Status, string(t.TaskArgs), t.Added.Format(time.RFC3339),
		t.ProjectName, t.VersionName, t.RevisionNumber, t.ASFUID)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "enqueue task")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "read inserted task id")
	}
	t.ID = id
	return id, nil
}

// CountOngoingVoteInitiateTasks counts QUEUED/ACTIVE VOTE_INITIATE tasks
// for a release, used to enforce invariant 5 outside dev mode.
func (s *Session) CountOngoingVoteInitiateTasks(ctx context.Context, projectName, version string) (int, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM task
		WHERE project_name = ? AND version_name = ? AND task_type = ?
		AND status IN (?, ?)`,
		projectName, version, model.TaskVoteInitiate, model.TaskQueued, model.TaskActive)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, pkgerrors.Wrap(err, "count ongoing vote tasks")
	}
	return count, nil
}

// LatestVoteInitiateTask returns the newest VOTE_INITIATE task for a
// release whose status is not QUEUED/ACTIVE and whose result is
// present; devEnvironment disables the status filter (spec §4.8,
// release_latest_vote_task).
func (s *Session) LatestVoteInitiateTask(ctx context.Context, projectName, version string, devEnvironment bool) (*model.Task, error) {
	query := `
		SELECT id, task_type, status, task_args, result, added, project_name, version_name, revision_number, asf_uid
		FROM task
		WHERE project_name = ? AND version_name = ? AND task_type = ? AND result IS NOT NULL`
	args := []any{projectName, version, model.TaskVoteInitiate}

	if !devEnvironment {
		query += ` AND status NOT IN (?, ?)`
		args = append(args, model.TaskQueued, model.TaskActive)
	}
	query += ` ORDER BY added DESC, id DESC LIMIT 1`

	row := s.q.QueryRowContext(ctx, query, args...)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "load latest vote initiate task")
	}
	return t, nil
}

// CountOngoingTasks counts QUEUED/ACTIVE tasks for a revision (or, when
// revisionNumber is "", the release's highest-seq revision, looked up by
// a separate query first).
func (s *Session) CountOngoingTasks(ctx context.Context, projectName, version, revisionNumber string) (int, string, error) {
	resolvedRevision := revisionNumber
	if resolvedRevision == "" {
		row := s.q.QueryRowContext(ctx, `
			SELECT number FROM revision
			WHERE release_project_name = ? AND release_version = ?
			ORDER BY seq DESC LIMIT 1`, projectName, version)
		if err := row.Scan(&resolvedRevision); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, "", nil
			}
			return 0, "", pkgerrors.Wrap(err, "resolve latest revision for task count")
		}
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM task
		WHERE project_name = ? AND version_name = ? AND revision_number = ?
		AND status IN (?, ?)`,
		projectName, version, resolvedRevision, model.TaskQueued, model.TaskActive)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, "", pkgerrors.Wrap(err, "count ongoing tasks")
	}
	return count, resolvedRevision, nil
}

func scanTask(row *sql.Row) (*model.Task, error) {
	var t model.Task
	var taskArgs, result sql.NullString
	var added string
	var versionName, revisionNumber, asfUID sql.NullString

	if err := row.Scan(&t.ID, &t.TaskType, &t.Status, &taskArgs, &result, &added, &t.ProjectName, &versionName, &revisionNumber, &asfUID); err != nil {
		return nil, err
	}

	t.TaskArgs = []byte(taskArgs.String)
	if result.Valid {
		t.Result = []byte(result.String)
	}
	t.Added, _ = time.Parse(time.RFC3339, added)
	t.VersionName = versionName.String
	t.RevisionNumber = revisionNumber.String
	t.ASFUID = asfUID.String
	return &t, nil
}
