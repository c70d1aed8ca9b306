package resolution

import (
	"testing"

	"github.com/apache/trusted-releases/internal/model"
	"github.com/apache/trusted-releases/internal/outcome"
	"github.com/apache/trusted-releases/internal/tabulate"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	result := &tabulate.Result{Votes: map[string]*model.VoteEmail{
		"m1": {Status: model.StatusBinding, Vote: model.VoteYes},
		"m2": {Status: model.StatusBinding, Vote: model.VoteNo},
		"c1": {Status: model.StatusCommitter, Vote: model.VoteYes},
		"u1": {Status: model.StatusUnknown, Vote: model.VoteYes},
	}}

	s := Summarize(result)
	assert.Equal(t, 2, s.BindingTotal)
	assert.Equal(t, 1, s.BindingYes)
	assert.Equal(t, 1, s.BindingNo)
	assert.Equal(t, 1, s.NonBindingTotal)
	assert.Equal(t, 1, s.UnknownTotal)
}

func TestBody(t *testing.T) {
	committee := &model.Committee{Name: "foo", DisplayName: "Apache Foo"}
	release := &model.Release{ProjectName: "foo", Version: "1.0.0"}
	result := &tabulate.Result{Votes: map[string]*model.VoteEmail{
		"m1": {Status: model.StatusBinding, Vote: model.VoteYes},
	}}
	out := outcome.Outcome{Passed: true, Message: "The vote passed."}

	body := Body(committee, release, result, out, "thread123", "")
	assert.Contains(t, body, "Apache Foo")
	assert.Contains(t, body, "The vote passed.")
	assert.Contains(t, body, "thread123")
	assert.Contains(t, body, "+1 m1 (binding)")
}

func TestBodySalutesIncubatorInRound2(t *testing.T) {
	committee := &model.Committee{Name: "foo", DisplayName: "Apache Foo", IsPodling: true}
	threadID := "round1thread"
	release := &model.Release{ProjectName: "foo", Version: "1.0.0", PodlingThreadID: &threadID}
	result := &tabulate.Result{Votes: map[string]*model.VoteEmail{}}
	out := outcome.Outcome{Passed: true, Message: "The vote passed."}

	body := Body(committee, release, result, out, "thread456", threadID)
	assert.Contains(t, body, "To the Incubator,")
	assert.Contains(t, body, "round1thread")
}
