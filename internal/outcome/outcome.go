// Package outcome computes pass/fail and the human-readable status
// sentence from a tabulation result, grounded on
// original_source/atr/tabulate.py's vote_outcome/_vote_outcome_format.
package outcome

import (
	"fmt"
	"time"

	"github.com/apache/trusted-releases/internal/model"
	"github.com/apache/trusted-releases/internal/tabulate"
)

// defaultMinHours is used when the release's policy does not specify one.
const defaultMinHours = 72

// minBindingYes is the minimum binding +1 count required to pass.
const minBindingYes = 3

// Outcome is the evaluated result of a vote.
type Outcome struct {
	Passed  bool
	Message string
}

// Evaluate computes the outcome for a tabulation result under policy,
// as of now.
func Evaluate(result *tabulate.Result, policy *model.ReleasePolicy, now time.Time) Outcome {
	var durationHours float64
	if result.StartUnixtime > 0 {
		durationHours = now.Sub(time.Unix(result.StartUnixtime, 0)).Hours()
	}

	// A missing policy defaults to 72 hours; a policy present with
	// min_hours == 0 (or unset) means no minimum at all, leaving
	// remaining undefined rather than re-imposing the default.
	var minHours *int
	if policy != nil {
		minHours = policy.EffectiveMinHours()
	} else {
		d := defaultMinHours
		minHours = &d
	}

	var remaining *float64
	if minHours != nil {
		r := float64(*minHours) - durationHours
		remaining = &r
	}

	bindingYes, bindingNo := 0, 0
	for _, v := range result.Votes {
		if v.Status != model.StatusBinding {
			continue
		}
		switch v.Vote {
		case model.VoteYes:
			bindingYes++
		case model.VoteNo:
			bindingNo++
		}
	}

	passed := bindingYes >= minBindingYes && bindingYes > bindingNo

	return Outcome{Passed: passed, Message: formatMessage(passed, remaining)}
}

func formatMessage(passed bool, remaining *float64) string {
	if !passed {
		switch {
		case remaining != nil && *remaining > 0:
			return fmt.Sprintf("The vote is still open for %.2f hours, but it would fail if closed now.", *remaining)
		case remaining == nil:
			return "The vote would fail if closed now."
		default:
			return "The vote failed."
		}
	}
	if remaining != nil && *remaining > 0 {
		return fmt.Sprintf("The vote is still open for %.2f hours, but it would pass if closed now.", *remaining)
	}
	return "The vote passed."
}
