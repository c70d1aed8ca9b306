package outcome

import (
	"testing"
	"time"

	"github.com/apache/trusted-releases/internal/model"
	"github.com/apache/trusted-releases/internal/tabulate"
	"github.com/stretchr/testify/assert"
)

func votesResult(start time.Time, bindingYes, bindingNo int) *tabulate.Result {
	votes := make(map[string]*model.VoteEmail)
	for i := 0; i < bindingYes; i++ {
		key := "yes-voter"
		votes[key+string(rune('a'+i))] = &model.VoteEmail{Status: model.StatusBinding, Vote: model.VoteYes}
	}
	for i := 0; i < bindingNo; i++ {
		key := "no-voter"
		votes[key+string(rune('a'+i))] = &model.VoteEmail{Status: model.StatusBinding, Vote: model.VoteNo}
	}
	return &tabulate.Result{StartUnixtime: start.Unix(), Votes: votes}
}

func TestEvaluate(t *testing.T) {
	policy := &model.ReleasePolicy{}
	zero := 0
	policy.MinHours = &zero

	t.Run("passes with three binding yes and no nos", func(t *testing.T) {
		now := time.Now()
		result := votesResult(now.Add(-time.Hour), 3, 0)
		out := Evaluate(result, policy, now)
		assert.True(t, out.Passed)
		assert.Equal(t, "The vote passed.", out.Message)
	})

	t.Run("fails under threshold with no minimum leaves remaining undefined", func(t *testing.T) {
		now := time.Now()
		result := votesResult(now.Add(-time.Hour), 2, 0)
		out := Evaluate(result, policy, now)
		assert.False(t, out.Passed)
		assert.Equal(t, "The vote would fail if closed now.", out.Message)
	})

	t.Run("fails when no votes equal yes votes", func(t *testing.T) {
		now := time.Now()
		result := votesResult(now.Add(-time.Hour), 3, 3)
		out := Evaluate(result, policy, now)
		assert.False(t, out.Passed)
	})

	t.Run("still open surfaces remaining hours", func(t *testing.T) {
		minHours := 72
		p := &model.ReleasePolicy{MinHours: &minHours}
		now := time.Now()
		result := votesResult(now.Add(-time.Hour), 3, 0)
		out := Evaluate(result, p, now)
		assert.True(t, out.Passed)
		assert.Contains(t, out.Message, "still open for")
		assert.Contains(t, out.Message, "pass if closed now")
	})

	t.Run("policy zero min hours means no minimum", func(t *testing.T) {
		now := time.Now()
		result := votesResult(now, 3, 0)
		out := Evaluate(result, policy, now)
		assert.True(t, out.Passed)
		assert.Equal(t, "The vote passed.", out.Message)
	})

	t.Run("defined remaining past due yields terse failed", func(t *testing.T) {
		minHours := 72
		p := &model.ReleasePolicy{MinHours: &minHours}
		now := time.Now()
		result := votesResult(now.Add(-100*time.Hour), 2, 0)
		out := Evaluate(result, p, now)
		assert.False(t, out.Passed)
		assert.Equal(t, "The vote failed.", out.Message)
	})

	t.Run("nil policy defaults to 72 hour minimum", func(t *testing.T) {
		now := time.Now()
		result := votesResult(now.Add(-time.Hour), 3, 0)
		out := Evaluate(result, nil, now)
		assert.True(t, out.Passed)
		assert.Contains(t, out.Message, "still open for")
		assert.Contains(t, out.Message, "pass if closed now")
	})
}
