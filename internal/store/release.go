package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/apache/trusted-releases/internal/model"
	pkgerrors "github.com/pkg/errors"
)

// GetRelease loads a Release (with its Project) by project/version.
func (s *Session) GetRelease(ctx context.Context, projectName, version string) (*model.Release, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT project_name, version, phase, latest_revision_number, podling_thread_id, created
		FROM release WHERE project_name = ? AND version = ?`, projectName, version)

	var r model.Release
	var latestRev, podlingThread sql.NullString
	var created string
	if err := row.Scan(&r.ProjectName, &r.Version, &r.Phase, &latestRev, &podlingThread, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "get release")
	}
	if latestRev.Valid {
		r.LatestRevisionNumber = &latestRev.String
	}
	if podlingThread.Valid {
		r.PodlingThreadID = &podlingThread.String
	}
	r.Created, _ = time.Parse(time.RFC3339, created)

	project, err := s.GetProject(ctx, projectName)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load release project")
	}
	r.Project = project

	return &r, nil
}

// SetReleasePhase updates a release's phase.
func (s *Session) SetReleasePhase(ctx context.Context, projectName, version string, phase model.ReleasePhase) error {
	_, err := s.q.ExecContext(ctx, `UPDATE release SET phase = ? WHERE project_name = ? AND version = ?`, phase, projectName, version)
	return pkgerrors.Wrap(err, "set release phase")
}

// SetPodlingThreadID records the round-1 podling vote thread id.
func (s *Session) SetPodlingThreadID(ctx context.Context, projectName, version, threadID string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE release SET podling_thread_id = ? WHERE project_name = ? AND version = ?`, threadID, projectName, version)
	return pkgerrors.Wrap(err, "set podling thread id")
}

// CreateRevision inserts a new revision and updates the release's
// latest_revision_number, assigning seq as max(seq)+1 for the release.
func (s *Session) CreateRevision(ctx context.Context, projectName, version, number, asfUID string, created time.Time) (*model.Revision, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM revision WHERE release_project_name = ? AND release_version = ?`, projectName, version)
	var maxSeq int64
	if err := row.Scan(&maxSeq); err != nil {
		return nil, pkgerrors.Wrap(err, "compute next revision seq")
	}
	seq := maxSeq + 1

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO revision (release_project_name, release_version, number, seq, asf_uid, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		projectName, version, number, seq, asfUID, created.Format(time.RFC3339))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create revision")
	}

	_, err = s.q.ExecContext(ctx, `UPDATE release SET latest_revision_number = ? WHERE project_name = ? AND version = ?`, number, projectName, version)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "update latest revision number")
	}

	return &model.Revision{
		ReleaseName: model.ReleaseName(projectName, version),
		Number:      number,
		Seq:         seq,
		ASFUID:      asfUID,
		Created:     created,
	}, nil
}

// GetRevision loads one revision by its (release, number) key.
func (s *Session) GetRevision(ctx context.Context, projectName, version, number string) (*model.Revision, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT number, seq, asf_uid, created FROM revision
		WHERE release_project_name = ? AND release_version = ? AND number = ?`, projectName, version, number)

	var rev model.Revision
	var created string
	if err := row.Scan(&rev.Number, &rev.Seq, &rev.ASFUID, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "get revision")
	}
	rev.ReleaseName = model.ReleaseName(projectName, version)
	rev.Created, _ = time.Parse(time.RFC3339, created)
	return &rev, nil
}

// InsertCheckResult records one automated check outcome.
func (s *Session) InsertCheckResult(ctx context.Context, projectName, version, revisionNumber string, status model.CheckResultStatus) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO check_result (release_project_name, release_version, revision_number, status)
		VALUES (?, ?, ?, ?)`, projectName, version, revisionNumber, status)
	return pkgerrors.Wrap(err, "insert check result")
}

// HasFailingChecks reports whether any FAILURE check result exists for
// the given (release, revision).
func (s *Session) HasFailingChecks(ctx context.Context, projectName, version, revisionNumber string) (bool, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM check_result
		WHERE release_project_name = ? AND release_version = ? AND revision_number = ? AND status = ?`,
		projectName, version, revisionNumber, model.CheckFailure)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, pkgerrors.Wrap(err, "count failing checks")
	}
	return count > 0, nil
}
