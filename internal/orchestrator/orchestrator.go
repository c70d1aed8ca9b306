// Package orchestrator implements the release vote state machine,
// grounded on original_source/atr/storage/writers/vote.py's
// CommitteeMember.start/resolve/resolve_release/send_resolution chain
// and server/command/command.go's dispatch-method style.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/apache/trusted-releases/internal/archive"
	"github.com/apache/trusted-releases/internal/logging"
	"github.com/apache/trusted-releases/internal/model"
	"github.com/apache/trusted-releases/internal/role"
	"github.com/apache/trusted-releases/internal/store"
	"github.com/apache/trusted-releases/internal/taskqueue"
)

// devThreadURLs preserves original_source's
// _THREAD_URLS_FOR_DEVELOPMENT table (S9): when DevEnvironment is true,
// a release name with no recorded archive URL is looked up here. The
// table is empty, so that lookup always falls through to the
// missing-archive-url error.
var devThreadURLs = map[string]string{}

// devTestMID is original_source's TEST_MID constant (S9).
const devTestMID = "dev-test-mid@apache.org"

const incubatorCommitteeName = "incubator"
const incubatorListAddress = "general@incubator.apache.org"

// Orchestrator enforces legal release phase transitions for an
// authenticated committee-member caller.
type Orchestrator struct {
	Store          *store.Store
	Sink           taskqueue.Sink
	Archive        archive.Reader
	Log            logging.Logger
	DevEnvironment bool
}

// New builds an Orchestrator. It leaves Sink unset: tasks are enqueued
// through the transaction's store.Session (which implements
// taskqueue.Sink via Enqueue), and the Sink field is not read. archiveReader resolves a podling's
// round-1 thread id to its (list, message id) destination when sending
// the round-2 resolution; it may be nil, in which case that lookup is
// skipped (vote.py:195-199).
func New(st *store.Store, archiveReader archive.Reader, log logging.Logger, devEnvironment bool) *Orchestrator {
	if log == nil {
		log = logging.Noop{}
	}
	return &Orchestrator{Store: st, Archive: archiveReader, Log: log, DevEnvironment: devEnvironment}
}

// StartArgs are the caller-supplied parameters of Start.
type StartArgs struct {
	ProjectName     string
	Version         string
	ListAddress     string
	RevisionNumber  string
	VoteDurationHrs int
	Subject         string
	Body            string
	// Promote, when true, advances the release from CANDIDATE_DRAFT to
	// CANDIDATE before enqueueing the vote task.
	Promote bool
}

// Start verifies the caller may post to the given mailing list,
// optionally promotes the release, and enqueues a VOTE_INITIATE task.
// Grounded on vote.py's CommitteeMember.start.
func (o *Orchestrator) Start(ctx context.Context, caller *role.Grant, args StartArgs) (*model.Task, error) {
	var task *model.Task
	err := o.Store.WithTx(ctx, func(sess *store.Session) error {
		t, err := o.start(ctx, sess, caller, args)
		if err != nil {
			return err
		}
		task = t
		return nil
	})
	return task, err
}

func (o *Orchestrator) start(ctx context.Context, sess *store.Session, caller *role.Grant, args StartArgs) (*model.Task, error) {
	project, err := sess.GetProject(ctx, args.ProjectName)
	if err != nil {
		return nil, err
	}
	committee, err := project.RequireCommittee()
	if err != nil {
		return nil, err
	}
	if !caller.IsCommitteeMemberOrAdmin(committee.Name) {
		return nil, &model.AccessError{Reason: "caller is not a member of " + committee.Name}
	}
	if !mayPostTo(committee, args.ListAddress) {
		return nil, &model.AccessError{Reason: "caller may not post to " + args.ListAddress}
	}

	release, err := sess.GetRelease(ctx, args.ProjectName, args.Version)
	if err != nil {
		return nil, err
	}

	if args.Promote {
		if release.Phase != model.PhaseCandidateDraft {
			return nil, &model.InteractionError{Reason: "release is not in CANDIDATE_DRAFT"}
		}
		if err := sess.SetReleasePhase(ctx, args.ProjectName, args.Version, model.PhaseCandidate); err != nil {
			return nil, err
		}
	}

	if !o.DevEnvironment {
		ongoing, err := sess.CountOngoingVoteInitiateTasks(ctx, args.ProjectName, args.Version)
		if err != nil {
			return nil, err
		}
		if ongoing > 0 {
			return nil, &model.InteractionError{Reason: "a VOTE_INITIATE task is already in flight for this release"}
		}
	}

	task, err := taskqueue.NewVoteInitiateTask(taskqueue.VoteInitiateArgs{
		ProjectName:       args.ProjectName,
		Version:           args.Version,
		RevisionNumber:    args.RevisionNumber,
		ASFUID:            caller.ASFUID,
		Round:             voteRound(release),
		VoteDurationHrs:   args.VoteDurationHrs,
		EmailTo:           args.ListAddress,
		Subject:           args.Subject,
		Body:              args.Body,
		InitiatorFullName: caller.FullName,
	})
	if err != nil {
		return nil, err
	}
	task.VersionName = args.Version

	if _, err := sess.Enqueue(ctx, task); err != nil {
		return nil, err
	}

	o.Log.LogInfo("vote initiate task enqueued", "project", args.ProjectName, "version", args.Version, "list", args.ListAddress)
	return task, nil
}

func voteRound(release *model.Release) int {
	if release.IsPodlingRound2() {
		return 2
	}
	return 1
}

// mayPostTo checks listAddress against the mailing lists a committee is
// permitted to post a vote to: its own dev/private lists, plus, for
// podlings, the incubator general list used for the round-2 vote.
// Grounded on vote.py:302-307's util.permitted_recipients check.
func mayPostTo(committee *model.Committee, listAddress string) bool {
	for _, permitted := range permittedRecipients(committee) {
		if strings.EqualFold(permitted, listAddress) {
			return true
		}
	}
	return false
}

func permittedRecipients(committee *model.Committee) []string {
	permitted := []string{
		fmt.Sprintf("dev@%s.apache.org", committee.Name),
		fmt.Sprintf("private@%s.apache.org", committee.Name),
	}
	if committee.IsPodling {
		permitted = append(permitted, incubatorListAddress)
	}
	return permitted
}

// Resolve loads the release in CANDIDATE phase, locates the settled
// vote task, and dispatches to resolveRelease + sendResolution.
// Grounded on vote.py's CommitteeMember.resolve.
func (o *Orchestrator) Resolve(ctx context.Context, caller *role.Grant, projectName, version string, passed bool, resolutionBody string) (string, error) {
	var note string
	err := o.Store.WithTx(ctx, func(sess *store.Session) error {
		n, err := o.resolve(ctx, sess, caller, projectName, version, passed, resolutionBody)
		if err != nil {
			return err
		}
		note = n
		return nil
	})
	return note, err
}

func (o *Orchestrator) resolve(ctx context.Context, sess *store.Session, caller *role.Grant, projectName, version string, passed bool, resolutionBody string) (string, error) {
	release, err := sess.GetRelease(ctx, projectName, version)
	if err != nil {
		return "", err
	}
	if release.Phase != model.PhaseCandidate {
		return "", &model.InteractionError{Reason: "release is not in CANDIDATE phase"}
	}

	committee, err := release.Project.RequireCommittee()
	if err != nil {
		return "", err
	}
	if !caller.IsCommitteeMemberOrAdmin(committee.Name) {
		return "", &model.AccessError{Reason: "caller is not a member of " + committee.Name}
	}

	voteTask, err := sess.LatestVoteInitiateTask(ctx, projectName, version, o.DevEnvironment)
	if err != nil {
		return "", err
	}

	if err := o.resolveRelease(ctx, sess, release, committee, passed); err != nil {
		return "", err
	}

	return o.sendResolution(ctx, sess, caller, release, committee, voteTask, passed, resolutionBody)
}

// resolveRelease implements vote.py's three-way branch: round-1 podling
// pass (stay in CANDIDATE, open round 2), any other pass (advance to
// PREVIEW, create a preview revision), or fail (return to
// CANDIDATE_DRAFT).
func (o *Orchestrator) resolveRelease(ctx context.Context, sess *store.Session, release *model.Release, committee *model.Committee, passed bool) error {
	if !passed {
		return sess.SetReleasePhase(ctx, release.ProjectName, release.Version, model.PhaseCandidateDraft)
	}

	if committee.IsPodling && !release.IsPodlingRound2() {
		return o.resolveRound1Pass(ctx, sess, release)
	}

	if err := sess.SetReleasePhase(ctx, release.ProjectName, release.Version, model.PhasePreview); err != nil {
		return err
	}

	revisionNumber := "latest"
	if release.LatestRevisionNumber != nil {
		revisionNumber = *release.LatestRevisionNumber
	}
	_, err := sess.CreateRevision(ctx, release.ProjectName, release.Version, revisionNumber+"-preview", "automation", time.Now().UTC())
	return err
}

// resolveRound1Pass stores podling_thread_id and opens round 2 by
// calling start again, nested in the same transaction, addressed to the
// incubator list with promote=false (vote.py's self.start(..., promote=False)).
func (o *Orchestrator) resolveRound1Pass(ctx context.Context, sess *store.Session, release *model.Release) error {
	voteTask, err := sess.LatestVoteInitiateTask(ctx, release.ProjectName, release.Version, o.DevEnvironment)
	if err != nil {
		return err
	}

	archiveURL, ok := voteInitiateArchiveURL(voteTask)
	if !ok {
		if o.DevEnvironment {
			if url, ok := devThreadURLs[release.Name()]; ok {
				archiveURL = url
			} else {
				return &model.InteractionError{Reason: "vote task has no recorded archive url"}
			}
		} else {
			return &model.InteractionError{Reason: "vote task has no recorded archive url"}
		}
	}

	threadID := lastPathSegment(archiveURL)
	if err := sess.SetPodlingThreadID(ctx, release.ProjectName, release.Version, threadID); err != nil {
		return err
	}

	round2Subject := fmt.Sprintf("[VOTE] Release %s %s (round 2, Incubator)", release.Project.DisplayName, release.Version)
	round2Body := fmt.Sprintf("This is the Incubator vote for %s %s, following a successful podling vote.\n", release.Project.DisplayName, release.Version)

	caller := role.NewGrant("automation", "Release Automation", true).WithCommitteeMember(incubatorCommitteeName)

	_, err = o.start(ctx, sess, caller, StartArgs{
		ProjectName: release.ProjectName,
		Version:     release.Version,
		ListAddress: incubatorListAddress,
		Subject:     round2Subject,
		Body:        round2Body,
		Promote:     false,
	})
	return err
}

func lastPathSegment(url string) string {
	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	return parts[len(parts)-1]
}

func voteInitiateArchiveURL(t *model.Task) (string, bool) {
	if t == nil || t.Result == nil {
		return "", false
	}
	var result struct {
		ArchiveURL string `json:"archive_url"`
	}
	if err := json.Unmarshal(t.Result, &result); err != nil || result.ArchiveURL == "" {
		return "", false
	}
	return result.ArchiveURL, true
}

func voteInitiateMID(t *model.Task) (string, bool) {
	if t == nil || t.Result == nil {
		return "", false
	}
	var result struct {
		MID string `json:"mid"`
	}
	if err := json.Unmarshal(t.Result, &result); err != nil || result.MID == "" {
		return "", false
	}
	return result.MID, true
}

// voteInitiateEmailTo returns the mailing list the original vote was
// sent to, per vote.py:235's latest_vote_task.task_args["email_to"].
func voteInitiateEmailTo(t *model.Task) (string, bool) {
	args, err := taskqueue.DecodeVoteInitiateArgs(t)
	if err != nil || args.EmailTo == "" {
		return "", false
	}
	return args.EmailTo, true
}

// round1ThreadDestination resolves a podling's round-1 vote thread to
// the (list address, message id) of its first message, for the extra
// resolution copy sent back to the PPMC list in round 2. Grounded on
// vote.py:195-199's util.email_mid_from_thread_id.
func (o *Orchestrator) round1ThreadDestination(ctx context.Context, threadID string) (string, string, bool) {
	if o.Archive == nil || threadID == "" {
		return "", "", false
	}
	messages, err := o.Archive.Messages(ctx, threadID)
	if err != nil {
		return "", "", false
	}
	first, ok := <-messages
	if !ok || first.ListAddress == "" || first.ID == "" {
		return "", "", false
	}
	return first.ListAddress, first.ID, true
}

// sendResolution enqueues the resolution announcement MESSAGE_SEND
// task(s). Grounded on vote.py's CommitteeMember.send_resolution: a
// non-fatal human-readable message is returned (not an error) when the
// prior vote's archive message id can't be located.
func (o *Orchestrator) sendResolution(ctx context.Context, sess *store.Session, caller *role.Grant, release *model.Release, committee *model.Committee, voteTask *model.Task, passed bool, resolutionBody string) (string, error) {
	mid, ok := voteInitiateMID(voteTask)
	emailTo, emailToOK := voteInitiateEmailTo(voteTask)
	if o.DevEnvironment {
		mid, ok = devTestMID, true
	}
	if !ok {
		return "No vote thread found; resolution was not sent.", nil
	}
	if o.DevEnvironment && !emailToOK {
		emailTo, emailToOK = incubatorListAddress, true
	}

	resolution := "FAILED"
	if passed {
		resolution = "PASSED"
	}
	subject := fmt.Sprintf("[VOTE] [RESULT] Release %s %s %s", release.Project.DisplayName, release.Version, resolution)

	signature := caller.FullName + " (" + caller.ASFUID + ")"
	if caller.FullName == caller.ASFUID {
		signature = caller.ASFUID
	}
	body := resolutionBody + "\n\n-- \n" + signature

	msgArgs := taskqueue.MessageSendArgs{
		EmailSender:    caller.ASFUID + "@apache.org",
		EmailRecipient: emailTo,
		Subject:        subject,
		Body:           body,
		InReplyTo:      mid,
	}
	task, err := taskqueue.NewMessageSendTask(release.ProjectName, msgArgs)
	if err != nil {
		return "", err
	}
	task.VersionName = release.Version
	if _, err := sess.Enqueue(ctx, task); err != nil {
		return "", err
	}

	if passed && release.IsPodlingRound2() && release.PodlingThreadID != nil {
		round1Email, round1MID, ok := o.round1ThreadDestination(ctx, *release.PodlingThreadID)
		if ok {
			extraArgs := msgArgs
			extraArgs.EmailRecipient = round1Email
			extraArgs.InReplyTo = round1MID
			extraTask, err := taskqueue.NewMessageSendTask(release.ProjectName, extraArgs)
			if err == nil {
				extraTask.VersionName = release.Version
				_, _ = sess.Enqueue(ctx, extraTask)
			}
		}
	}

	return "", nil
}
