package taskqueue

import (
	"testing"

	"github.com/apache/trusted-releases/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVoteInitiateTaskRoundTrip(t *testing.T) {
	task, err := NewVoteInitiateTask(VoteInitiateArgs{
		ProjectName:       "foo",
		Version:           "1.0.0",
		RevisionNumber:    "r1",
		ASFUID:            "uid1",
		Round:             1,
		EmailTo:           "dev@foo.apache.org",
		Subject:           "[VOTE] Release Apache Foo 1.0.0",
		Body:              "Please vote.",
		InitiatorFullName: "Full Name",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskVoteInitiate, task.TaskType)
	assert.Equal(t, model.TaskQueued, task.Status)

	decoded, err := DecodeVoteInitiateArgs(task)
	require.NoError(t, err)
	assert.Equal(t, "foo", decoded.ProjectName)
	assert.Equal(t, 1, decoded.Round)
	assert.Equal(t, "dev@foo.apache.org", decoded.EmailTo)
	assert.Equal(t, "Full Name", decoded.InitiatorFullName)
}

func TestDecodeVoteInitiateArgsWrongType(t *testing.T) {
	task := &model.Task{TaskType: model.TaskMessageSend}
	_, err := DecodeVoteInitiateArgs(task)
	assert.Error(t, err)
}

func TestNewMessageSendTask(t *testing.T) {
	task, err := NewMessageSendTask("foo", MessageSendArgs{
		EmailSender:    "uid1@apache.org",
		EmailRecipient: "dev@foo.apache.org",
		Subject:        "hi",
		Body:           "body",
		InReplyTo:      "mid1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskMessageSend, task.TaskType)
	assert.Equal(t, "foo", task.ProjectName)

	decoded, err := DecodeMessageSendArgs(task)
	require.NoError(t, err)
	assert.Equal(t, "hi", decoded.Subject)
	assert.Equal(t, "mid1", decoded.InReplyTo)
}
