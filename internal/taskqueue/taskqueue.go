// Package taskqueue defines the tagged-variant queued work item that
// drives the release vote engine's asynchronous side effects (sending a
// vote-initiation email, sending an arbitrary notification), grounded
// on the teacher's JSON-in-a-record kvstore pattern
// (server/store/kvstore/store.go) generalized from a key-value blob to
// a typed discriminated union.
package taskqueue

import (
	"context"
	"encoding/json"

	"github.com/apache/trusted-releases/internal/model"
	"github.com/pkg/errors"
)

// VoteInitiateArgs is the payload shape for a model.TaskVoteInitiate
// task, matching original_source's tasks_vote.Initiate (vote.py:328-336)
// so the external vote-initiation worker has everything it needs to
// actually send the vote email.
type VoteInitiateArgs struct {
	ProjectName       string `json:"project_name"`
	Version           string `json:"version"`
	RevisionNumber    string `json:"revision_number"`
	ASFUID            string `json:"asf_uid"`
	Round             int    `json:"round"`
	VoteDurationHrs   int    `json:"vote_duration_hours,omitempty"`
	EmailTo           string `json:"email_to"`
	Subject           string `json:"subject"`
	Body              string `json:"body"`
	InitiatorFullName string `json:"initiator_fullname"`
}

// VoteInitiateResult is the payload shape of a completed VOTE_INITIATE task's Result.
type VoteInitiateResult struct {
	MID        string `json:"mid"`
	ArchiveURL string `json:"archive_url"`
}

// MessageSendArgs is the payload shape for a model.TaskMessageSend task,
// used for resolution announcements and other ad hoc notifications.
// Matches original_source's message.Send (vote.py:235-242,247-253).
type MessageSendArgs struct {
	EmailSender    string `json:"email_sender"`
	EmailRecipient string `json:"email_recipient"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	InReplyTo      string `json:"in_reply_to"`
}

// DecodeVoteInitiateArgs unmarshals a Task's Args, failing loudly if the
// Task is not actually a VOTE_INITIATE task.
func DecodeVoteInitiateArgs(t *model.Task) (*VoteInitiateArgs, error) {
	if t.TaskType != model.TaskVoteInitiate {
		return nil, errors.Errorf("task %d is not VOTE_INITIATE: %s", t.ID, t.TaskType)
	}
	var a VoteInitiateArgs
	if err := json.Unmarshal(t.TaskArgs, &a); err != nil {
		return nil, errors.Wrap(err, "decode VOTE_INITIATE args")
	}
	return &a, nil
}

// DecodeMessageSendArgs unmarshals a Task's Args for a MESSAGE_SEND task.
func DecodeMessageSendArgs(t *model.Task) (*MessageSendArgs, error) {
	if t.TaskType != model.TaskMessageSend {
		return nil, errors.Errorf("task %d is not MESSAGE_SEND: %s", t.ID, t.TaskType)
	}
	var a MessageSendArgs
	if err := json.Unmarshal(t.TaskArgs, &a); err != nil {
		return nil, errors.Wrap(err, "decode MESSAGE_SEND args")
	}
	return &a, nil
}

// NewVoteInitiateTask builds an unsaved Task carrying VoteInitiateArgs.
func NewVoteInitiateTask(args VoteInitiateArgs) (*model.Task, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, errors.Wrap(err, "marshal VOTE_INITIATE args")
	}
	return &model.Task{
		TaskType:       model.TaskVoteInitiate,
		Status:         model.TaskQueued,
		TaskArgs:       raw,
		ProjectName:    args.ProjectName,
		VersionName:    args.Version,
		RevisionNumber: args.RevisionNumber,
		ASFUID:         args.ASFUID,
	}, nil
}

// NewMessageSendTask builds an unsaved Task carrying MessageSendArgs,
// scoped to projectName (MessageSendArgs itself carries no project
// identity, matching message.Send's shape).
func NewMessageSendTask(projectName string, args MessageSendArgs) (*model.Task, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, errors.Wrap(err, "marshal MESSAGE_SEND args")
	}
	return &model.Task{
		TaskType:    model.TaskMessageSend,
		Status:      model.TaskQueued,
		TaskArgs:    raw,
		ProjectName: projectName,
	}, nil
}

// EncodeVoteInitiateResult marshals a completed task's result payload.
func EncodeVoteInitiateResult(r VoteInitiateResult) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "marshal VOTE_INITIATE result")
	}
	return raw, nil
}

// Sink is where the Orchestrator enqueues tasks for later (out-of-process)
// delivery. The production Sink is store.Session, via its Enqueue method.
type Sink interface {
	Enqueue(ctx context.Context, t *model.Task) (int64, error)
}
