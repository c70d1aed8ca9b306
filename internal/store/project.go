package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/apache/trusted-releases/internal/model"
	pkgerrors "github.com/pkg/errors"
)

// GetProject loads a Project by name, together with its Committee and
// ReleasePolicy if bound.
func (s *Session) GetProject(ctx context.Context, name string) (*model.Project, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT name, display_name, short_display_name, committee_name, release_policy_id
		FROM project WHERE name = ?`, name)

	var p model.Project
	var committeeName sql.NullString
	var policyID sql.NullInt64
	if err := row.Scan(&p.Name, &p.DisplayName, &p.ShortDisplayName, &committeeName, &policyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "get project")
	}

	if committeeName.Valid {
		committee, err := s.GetCommittee(ctx, committeeName.String)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "load project committee")
		}
		p.Committee = committee
	}
	if policyID.Valid {
		policy, err := s.getReleasePolicyByID(ctx, policyID.Int64)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "load project release policy")
		}
		p.ReleasePolicy = policy
	}

	return &p, nil
}

// GetCommittee loads a Committee and its role sets by name.
func (s *Session) GetCommittee(ctx context.Context, name string) (*model.Committee, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT name, full_name, display_name, is_podling, automated_release_allowed FROM committee WHERE name = ?`, name)

	var c model.Committee
	var isPodling, automatedAllowed int
	if err := row.Scan(&c.Name, &c.FullName, &c.DisplayName, &isPodling, &automatedAllowed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCommitteeMissing
		}
		return nil, pkgerrors.Wrap(err, "get committee")
	}
	c.IsPodling = isPodling != 0
	c.AutomatedReleaseAllowed = automatedAllowed != 0

	c.Members = model.NewRoleSet()
	c.Committers = model.NewRoleSet()
	c.Participant = model.NewRoleSet()

	rows, err := s.q.QueryContext(ctx, `SELECT asf_uid, role FROM committee_role WHERE committee_name = ?`, name)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list committee roles")
	}
	defer rows.Close()

	for rows.Next() {
		var uid, role string
		if err := rows.Scan(&uid, &role); err != nil {
			return nil, pkgerrors.Wrap(err, "scan committee role")
		}
		switch role {
		case "member":
			c.Members[uid] = true
		case "committer":
			c.Committers[uid] = true
		case "participant":
			c.Participant[uid] = true
		}
	}
	return &c, rows.Err()
}

func (s *Session) getReleasePolicyByID(ctx context.Context, id int64) (*model.ReleasePolicy, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, project_name, min_hours, github_repository_name FROM release_policy WHERE id = ?`, id)

	var p model.ReleasePolicy
	var projectName string
	var minHours sql.NullInt64
	if err := row.Scan(&p.ID, &projectName, &minHours, &p.GitHubRepositoryName); err != nil {
		return nil, pkgerrors.Wrap(err, "get release policy")
	}
	if minHours.Valid {
		h := int(minHours.Int64)
		p.MinHours = &h
	}

	p.ComposeWorkflows = make(model.WorkflowAllowlist)
	p.VoteWorkflows = make(model.WorkflowAllowlist)
	p.FinishWorkflows = make(model.WorkflowAllowlist)

	rows, err := s.q.QueryContext(ctx, `SELECT phase, workflow_path FROM release_policy_workflow WHERE release_policy_id = ?`, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list release policy workflows")
	}
	defer rows.Close()

	for rows.Next() {
		var phase, path string
		if err := rows.Scan(&phase, &path); err != nil {
			return nil, pkgerrors.Wrap(err, "scan release policy workflow")
		}
		switch phase {
		case "compose":
			p.ComposeWorkflows[path] = true
		case "vote":
			p.VoteWorkflows[path] = true
		case "finish":
			p.FinishWorkflows[path] = true
		}
	}
	return &p, rows.Err()
}

// ProjectForWorkflow implements verifier.PolicyLookup: locates the
// project whose release policy allows workflowPath in phase and whose
// bound repository matches repository.
func (s *Session) ProjectForWorkflow(ctx context.Context, repository, workflowPath string, phase model.WorkflowPhase) (*model.Project, error) {
	phaseCol := string(phase)
	switch phase {
	case model.WorkflowCompose, model.WorkflowVote, model.WorkflowFinish:
	default:
		return nil, &model.InteractionError{Reason: "unknown workflow phase: " + string(phase)}
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT p.project_name FROM release_policy p
		JOIN release_policy_workflow w ON w.release_policy_id = p.id
		WHERE w.phase = ? AND w.workflow_path = ? AND p.github_repository_name = ?
		LIMIT 1`, phaseCol, workflowPath, repository)

	var projectName string
	if err := row.Scan(&projectName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &model.ReleasePolicyNotFoundError{Reason: "no release policy authorizes " + workflowPath + " for phase " + string(phase)}
		}
		return nil, pkgerrors.Wrap(err, "locate release policy")
	}

	return s.GetProject(ctx, projectName)
}
