// Package model defines the semantic entities shared across the release
// vote engine: projects, committees, releases, revisions, tasks, and the
// ephemeral vote tallies produced by tabulation.
package model

import "time"

// ReleasePhase is the lifecycle stage of a Release.
type ReleasePhase string

const (
	PhaseCandidateDraft ReleasePhase = "CANDIDATE_DRAFT"
	PhaseCandidate      ReleasePhase = "CANDIDATE"
	PhasePreview        ReleasePhase = "PREVIEW"
	PhaseRelease        ReleasePhase = "RELEASE"
)

// TaskType discriminates the shape of Task.Args and Task.Result.
type TaskType string

const (
	TaskVoteInitiate TaskType = "VOTE_INITIATE"
	TaskMessageSend  TaskType = "MESSAGE_SEND"
)

// TaskStatus is the lifecycle stage of a queued Task.
type TaskStatus string

const (
	TaskQueued    TaskStatus = "QUEUED"
	TaskActive    TaskStatus = "ACTIVE"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskFailed    TaskStatus = "FAILED"
)

// CheckResultStatus is the outcome of an automated check against a revision.
type CheckResultStatus string

const (
	CheckSuccess CheckResultStatus = "SUCCESS"
	CheckWarning CheckResultStatus = "WARNING"
	CheckFailure CheckResultStatus = "FAILURE"
)

// Vote is a single emailed casting's direction.
type Vote string

const (
	VoteYes     Vote = "YES"
	VoteNo      Vote = "NO"
	VoteAbstain Vote = "ABSTAIN"
	VoteUnknown Vote = "UNKNOWN"
)

// VoteStatus classifies a voter's standing relative to a committee.
type VoteStatus string

const (
	StatusBinding     VoteStatus = "BINDING"
	StatusCommitter   VoteStatus = "COMMITTER"
	StatusContributor VoteStatus = "CONTRIBUTOR"
	StatusUnknown     VoteStatus = "UNKNOWN"
)

// RoleSet is a set of ASF uids holding some role within a Committee.
type RoleSet map[string]bool

// NewRoleSet builds a RoleSet from a slice of uids.
func NewRoleSet(uids ...string) RoleSet {
	s := make(RoleSet, len(uids))
	for _, u := range uids {
		s[u] = true
	}
	return s
}

// Has reports whether uid holds the role.
func (s RoleSet) Has(uid string) bool {
	return s[uid]
}

// Committee is a project management committee (or podling PPMC).
type Committee struct {
	Name        string
	FullName    string
	DisplayName string
	IsPodling   bool
	Members     RoleSet
	Committers  RoleSet
	Participant RoleSet

	// AutomatedReleaseAllowed gates whether the Trusted Automation
	// Verifier may resolve a project bound to this committee.
	AutomatedReleaseAllowed bool
}

// WorkflowAllowlist is the set of repository-relative workflow paths
// authorized to act in a given release phase.
type WorkflowAllowlist map[string]bool

// WorkflowPhase is the compose/vote/finish axis the Trusted Automation
// Verifier authorizes against — distinct from ReleasePhase, the
// release's own lifecycle stage.
type WorkflowPhase string

const (
	WorkflowCompose WorkflowPhase = "compose"
	WorkflowVote    WorkflowPhase = "vote"
	WorkflowFinish  WorkflowPhase = "finish"
)

// ReleasePolicy binds a project to timing and trusted-automation rules.
type ReleasePolicy struct {
	ID                  int64
	MinHours            *int
	ComposeWorkflows    WorkflowAllowlist
	VoteWorkflows       WorkflowAllowlist
	FinishWorkflows     WorkflowAllowlist
	GitHubRepositoryName string
}

// EffectiveMinHours returns the minimum voting duration, treating a
// policy value of 0 as "no minimum" per spec §9.
func (p *ReleasePolicy) EffectiveMinHours() *int {
	if p == nil || p.MinHours == nil || *p.MinHours == 0 {
		return nil
	}
	return p.MinHours
}

// Project is a top-level release-producing unit.
type Project struct {
	Name             string
	DisplayName      string
	ShortDisplayName string
	Committee        *Committee
	ReleasePolicy    *ReleasePolicy
}

// RequireCommittee enforces invariant 1: operations needing a committee
// fail explicitly rather than nil-dereference.
func (p *Project) RequireCommittee() (*Committee, error) {
	if p == nil || p.Committee == nil {
		return nil, ErrCommitteeMissing
	}
	return p.Committee, nil
}

// ReleaseName computes the canonical "<project>-<version>" key.
func ReleaseName(projectName, version string) string {
	return projectName + "-" + version
}

// RELEASELatestRevisionSentinel marks a Task bound to "whatever the
// latest revision is" rather than a fixed revision number.
const RELEASELatestRevisionSentinel = "latest"

// Release is one versioned release candidate of a Project.
type Release struct {
	ProjectName        string
	Version            string
	Project            *Project
	Phase              ReleasePhase
	LatestRevisionNumber *string
	PodlingThreadID    *string
	Created            time.Time
}

// Name is the canonical release key.
func (r *Release) Name() string {
	return ReleaseName(r.ProjectName, r.Version)
}

// IsPodlingRound2 reports whether this release has already archived a
// first-round podling vote (invariant 4).
func (r *Release) IsPodlingRound2() bool {
	return r.PodlingThreadID != nil
}

// Revision is one snapshot of a release's artifact set.
type Revision struct {
	ReleaseName string
	Number      string
	Seq         int64
	ASFUID      string
	Created     time.Time
}

// Task is a queued unit of outbound work.
type Task struct {
	ID              int64
	TaskType        TaskType
	Status          TaskStatus
	TaskArgs        []byte // JSON, shape determined by TaskType
	Result          []byte // JSON, nil until complete
	Added           time.Time
	ProjectName     string
	VersionName     string
	RevisionNumber  string
	ASFUID          string
}

// CheckResult is the outcome of one automated check against a revision.
type CheckResult struct {
	ReleaseName    string
	RevisionNumber string
	Status         CheckResultStatus
}

// VoteEmail is one voter's latest tabulated casting. Ephemeral: never
// persisted, always rebuilt from the archive (spec §3 Ownership).
type VoteEmail struct {
	ASFUIDOrEmail string
	FromEmail     string
	Status        VoteStatus
	ASFEID        string
	ISODatetime   string
	Vote          Vote
	Quotation     string
	Updated       bool
}
