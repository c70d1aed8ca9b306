// Package query implements the read-only Query Surface over releases
// and tasks, grounded on original_source/atr/db/interaction.py's
// all_releases/releases_by_phase/releases_in_progress/latest_info/
// tasks_ongoing family.
package query

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/apache/trusted-releases/internal/model"
	"github.com/apache/trusted-releases/internal/store"
	"github.com/pkg/errors"
)

// Surface answers read-only questions over a Store's release/task data.
type Surface struct {
	st *store.Store
}

// New builds a Surface over st.
func New(st *store.Store) *Surface {
	return &Surface{st: st}
}

// ReleasesByPhase returns a project's releases in the given phase,
// newest-first by creation time.
func (s *Surface) ReleasesByPhase(ctx context.Context, projectName string, phase model.ReleasePhase) ([]*model.Release, error) {
	rows, err := s.st.DB().QueryContext(ctx, `
		SELECT version, phase, latest_revision_number, podling_thread_id, created
		FROM release WHERE project_name = ? AND phase = ?
		ORDER BY created DESC`, projectName, phase)
	if err != nil {
		return nil, errors.Wrap(err, "query releases by phase")
	}
	defer rows.Close()
	return scanReleases(rows, projectName)
}

// ReleasesInProgress concatenates draft + candidate + preview releases.
func (s *Surface) ReleasesInProgress(ctx context.Context, projectName string) ([]*model.Release, error) {
	var out []*model.Release
	for _, phase := range []model.ReleasePhase{model.PhaseCandidateDraft, model.PhaseCandidate, model.PhasePreview} {
		releases, err := s.ReleasesByPhase(ctx, projectName, phase)
		if err != nil {
			return nil, err
		}
		out = append(out, releases...)
	}
	return out, nil
}

// AllReleases returns a project's releases newest-first by semantic
// version, falling back to a component-wise comparator when a version
// fails to parse as a dotted numeric sequence (spec §4.8, property 8).
func (s *Surface) AllReleases(ctx context.Context, projectName string) ([]*model.Release, error) {
	rows, err := s.st.DB().QueryContext(ctx, `
		SELECT version, phase, latest_revision_number, podling_thread_id, created
		FROM release WHERE project_name = ?`, projectName)
	if err != nil {
		return nil, errors.Wrap(err, "query all releases")
	}
	defer rows.Close()

	releases, err := scanReleases(rows, projectName)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return compareVersions(releases[i].Version, releases[j].Version) > 0
	})
	return releases, nil
}

func scanReleases(rows *sql.Rows, projectName string) ([]*model.Release, error) {
	var out []*model.Release
	for rows.Next() {
		var r model.Release
		var latestRev, podlingThread sql.NullString
		var created string
		if err := rows.Scan(&r.Version, &r.Phase, &latestRev, &podlingThread, &created); err != nil {
			return nil, errors.Wrap(err, "scan release row")
		}
		r.ProjectName = projectName
		if latestRev.Valid {
			r.LatestRevisionNumber = &latestRev.String
		}
		if podlingThread.Valid {
			r.PodlingThreadID = &podlingThread.String
		}
		r.Created, _ = time.Parse(time.RFC3339, created)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// versionKeyComponent is (0, n) for a numeric component, (1, s) for a
// non-numeric one; numeric components always sort before string ones
// at the same position (spec §4.8).
type versionKeyComponent struct {
	kind int
	num  int64
	str  string
}

func versionKey(version string) []versionKeyComponent {
	parts := strings.FieldsFunc(version, func(r rune) bool {
		return r == '.' || r == '-' || r == '+'
	})
	key := make([]versionKeyComponent, len(parts))
	for i, p := range parts {
		if n, err := strconv.ParseInt(p, 10, 64); err == nil {
			key[i] = versionKeyComponent{kind: 0, num: n}
		} else {
			key[i] = versionKeyComponent{kind: 1, str: p}
		}
	}
	return key
}

// compareVersions returns >0 if a sorts after b (a is newer), <0 if
// before, 0 if equal, under the component-wise fallback comparator.
func compareVersions(a, b string) int {
	ka, kb := versionKey(a), versionKey(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		ca, cb := ka[i], kb[i]
		if ca.kind != cb.kind {
			if ca.kind < cb.kind {
				return 1
			}
			return -1
		}
		if ca.kind == 0 {
			if ca.num != cb.num {
				if ca.num > cb.num {
					return 1
				}
				return -1
			}
		} else if ca.str != cb.str {
			if ca.str > cb.str {
				return 1
			}
			return -1
		}
	}
	return len(ka) - len(kb)
}

// RevisionInfo is the (number, uid, created) triple latest_info/
// latest_revision return.
type RevisionInfo struct {
	Number  string
	ASFUID  string
	Created time.Time
}

// LatestInfo returns the release's latest revision info, or nil if none set.
func (s *Surface) LatestInfo(ctx context.Context, projectName, version string) (*RevisionInfo, error) {
	row := s.st.DB().QueryRowContext(ctx, `
		SELECT r.latest_revision_number, v.asf_uid, v.created
		FROM release r
		LEFT JOIN revision v ON v.release_project_name = r.project_name
			AND v.release_version = r.version AND v.number = r.latest_revision_number
		WHERE r.project_name = ? AND r.version = ?`, projectName, version)

	var number, uid, created sql.NullString
	if err := row.Scan(&number, &uid, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, errors.Wrap(err, "query latest info")
	}
	if !number.Valid {
		return nil, nil
	}

	info := &RevisionInfo{Number: number.String, ASFUID: uid.String}
	info.Created, _ = time.Parse(time.RFC3339, created.String)
	return info, nil
}

// LatestRevision is the Release-taking variant of LatestInfo.
func (s *Surface) LatestRevision(ctx context.Context, release *model.Release) (*RevisionInfo, error) {
	return s.LatestInfo(ctx, release.ProjectName, release.Version)
}

// HasFailingChecks reports whether the given release/revision has any FAILURE check result.
func (s *Surface) HasFailingChecks(ctx context.Context, projectName, version, revisionNumber string) (bool, error) {
	return store.NewSession(s.st.DB()).HasFailingChecks(ctx, projectName, version, revisionNumber)
}

// TasksOngoing counts QUEUED/ACTIVE tasks for a (project, version,
// revision); revisionNumber == "" binds to the latest revision.
func (s *Surface) TasksOngoing(ctx context.Context, projectName, version, revisionNumber string) (int, error) {
	count, _, err := store.NewSession(s.st.DB()).CountOngoingTasks(ctx, projectName, version, revisionNumber)
	return count, err
}

// TasksOngoingRevision is TasksOngoing but also returns the resolved
// latest revision number when revisionNumber was "".
func (s *Surface) TasksOngoingRevision(ctx context.Context, projectName, version, revisionNumber string) (int, string, error) {
	return store.NewSession(s.st.DB()).CountOngoingTasks(ctx, projectName, version, revisionNumber)
}

// ReleaseLatestVoteTask returns the release's newest settled
// VOTE_INITIATE task, with dev mode loosening the status filter.
func (s *Surface) ReleaseLatestVoteTask(ctx context.Context, release *model.Release, devEnvironment bool) (*model.Task, error) {
	return store.NewSession(s.st.DB()).LatestVoteInitiateTask(ctx, release.ProjectName, release.Version, devEnvironment)
}
