// Package resolution renders the human-readable resolution email body
// and the 12-bucket vote summary, grounded on
// original_source/atr/tabulate.py's vote_resolution/_vote_resolution_body
// /_vote_resolution_body_votes/vote_summary. Per spec Design Note
// ("Generator-shaped rendering"), the original's line-by-line
// generator is flattened into an accumulated buffer.
package resolution

import (
	"fmt"
	"sort"
	"strings"

	"github.com/apache/trusted-releases/internal/model"
	"github.com/apache/trusted-releases/internal/outcome"
	"github.com/apache/trusted-releases/internal/tabulate"
)

// Summary is the 12-bucket tally: binding / non-binding (committer and
// contributor) / unknown × total/yes/no/abstain. Body renders its
// sections differently (binding, committer, contributor+unknown).
//
// S7: status UNKNOWN folds into the "unknown" bucket, never
// "non-binding".
type Summary struct {
	BindingTotal, BindingYes, BindingNo, BindingAbstain       int
	NonBindingTotal, NonBindingYes, NonBindingNo, NonBindingAbstain int
	UnknownTotal, UnknownYes, UnknownNo, UnknownAbstain       int
}

// Summarize builds the 12-bucket tally from a tabulation result.
func Summarize(result *tabulate.Result) Summary {
	var s Summary
	for _, v := range result.Votes {
		switch v.Status {
		case model.StatusBinding:
			s.BindingTotal++
			bump(&s.BindingYes, &s.BindingNo, &s.BindingAbstain, v.Vote)
		case model.StatusCommitter, model.StatusContributor:
			s.NonBindingTotal++
			bump(&s.NonBindingYes, &s.NonBindingNo, &s.NonBindingAbstain, v.Vote)
		default:
			s.UnknownTotal++
			bump(&s.UnknownYes, &s.UnknownNo, &s.UnknownAbstain, v.Vote)
		}
	}
	return s
}

func bump(yes, no, abstain *int, v model.Vote) {
	switch v {
	case model.VoteYes:
		*yes++
	case model.VoteNo:
		*no++
	case model.VoteAbstain:
		*abstain++
	}
}

// Body renders the full resolution email body.
func Body(committee *model.Committee, release *model.Release, result *tabulate.Result, out outcome.Outcome, threadID string, round1ThreadID string) string {
	var b strings.Builder

	salutation := committee.DisplayName
	if release.IsPodlingRound2() {
		salutation = "Incubator"
	}
	fmt.Fprintf(&b, "To the %s,\n\n", salutation)
	fmt.Fprintf(&b, "%s\n\n", out.Message)

	fmt.Fprintf(&b, "Vote thread: https://lists.apache.org/thread/%s\n", threadID)
	if round1ThreadID != "" {
		fmt.Fprintf(&b, "Original vote thread: https://lists.apache.org/thread/%s\n", round1ThreadID)
	}
	b.WriteString("\n")

	section := func(title string, statuses map[model.VoteStatus]bool) {
		var lines []string
		for key, v := range result.Votes {
			if !statuses[v.Status] {
				continue
			}
			lines = append(lines, voteLine(key, v))
		}
		if len(lines) == 0 {
			return
		}
		sort.Strings(lines)
		fmt.Fprintf(&b, "%s:\n", title)
		for _, l := range lines {
			b.WriteString(l)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	section("Binding votes", map[model.VoteStatus]bool{model.StatusBinding: true})
	section("Committer votes", map[model.VoteStatus]bool{model.StatusCommitter: true})
	section("Other votes", map[model.VoteStatus]bool{model.StatusContributor: true, model.StatusUnknown: true})

	s := Summarize(result)
	b.WriteString(summarySentence(s))
	b.WriteString("\n\n-- \n")

	return b.String()
}

func voteLine(key string, v *model.VoteEmail) string {
	symbol := voteSymbol(v.Vote)
	suffix := ""
	if v.Updated {
		suffix = ", updated"
	}
	return fmt.Sprintf("%s %s (%s%s)", symbol, key, strings.ToLower(string(v.Status)), suffix)
}

func voteSymbol(v model.Vote) string {
	switch v {
	case model.VoteYes:
		return "+1"
	case model.VoteNo:
		return "-1"
	case model.VoteAbstain:
		return "0"
	default:
		return "?"
	}
}

func summarySentence(s Summary) string {
	total := s.BindingTotal + s.NonBindingTotal + s.UnknownTotal
	noun := "vote"
	if total != 1 {
		noun = "votes"
	}
	return fmt.Sprintf(
		"There were %d binding %s (%d +1, %d -1, %d 0) and %d non-binding %s.",
		s.BindingTotal, noun, s.BindingYes, s.BindingNo, s.BindingAbstain,
		s.NonBindingTotal+s.UnknownTotal, noun,
	)
}
