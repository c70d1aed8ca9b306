// Package tabulate streams a vote thread's archive messages and
// produces the keyed map of latest-casting-per-voter, grounded on
// original_source/atr/tabulate.py's votes() main loop.
package tabulate

import (
	"context"
	"strings"

	"github.com/apache/trusted-releases/internal/archive"
	"github.com/apache/trusted-releases/internal/ballot"
	"github.com/apache/trusted-releases/internal/directory"
	"github.com/apache/trusted-releases/internal/identity"
	"github.com/apache/trusted-releases/internal/model"
	"github.com/pkg/errors"
)

// resultMarker is the subject substring marking the tabulation cutoff
// (spec §4.3, testable property 3).
const resultMarker = "[RESULT]"

// Result is the outcome of tabulating one thread.
type Result struct {
	StartUnixtime int64
	Votes         map[string]*model.VoteEmail
}

// Options configures a tabulation pass.
type Options struct {
	// DevCommitteeFromList re-derives the committee from the mailing
	// list address rather than trusting the caller-supplied Committee,
	// matching original_source's dev-mode vote_committee override (S8).
	// When set, ListAddress must also be set.
	DevCommitteeFromList bool
	ListAddress          string
	DevLookupCommittee   func(listAddress string) (*model.Committee, error)
}

// Votes tabulates threadID's archive messages against committee,
// resolving identities through dir's snapshot. committee may be nil.
func Votes(ctx context.Context, reader archive.Reader, dir directory.Client, threadID string, committee *model.Committee, opts Options) (*Result, error) {
	snapshot, err := dir.EmailToUIDSnapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load directory snapshot")
	}

	if opts.DevCommitteeFromList && opts.DevLookupCommittee != nil {
		list := strings.TrimSuffix(opts.ListAddress, ".apache.org")
		if c, err := opts.DevLookupCommittee(list); err == nil {
			committee = c
		}
	}

	messages, err := reader.Messages(ctx, threadID)
	if err != nil {
		return nil, errors.Wrap(err, "read archive thread")
	}

	res := &Result{Votes: make(map[string]*model.VoteEmail)}
	started := false

	for msg := range messages {
		if strings.Contains(msg.Subject, resultMarker) {
			break
		}
		if msg.Body == "" {
			continue
		}

		r := identity.Resolve(msg.From, snapshot, committee)
		if !r.Valid {
			continue
		}

		if !started {
			res.StartUnixtime = msg.Timestamp.Unix()
			started = true
		}

		castings := ballot.Parse(msg.Body)
		vote, quotation, ok := ballot.Aggregate(castings)
		if !ok {
			continue
		}

		key := r.Key()
		_, updated := res.Votes[key]

		res.Votes[key] = &model.VoteEmail{
			ASFUIDOrEmail: key,
			FromEmail:     r.Email,
			Status:        r.Status,
			ASFEID:        msg.ID,
			ISODatetime:   msg.Timestamp.Format("2006-01-02T15:04:05Z"),
			Vote:          vote,
			Quotation:     quotation,
			Updated:       updated,
		}
	}

	return res, nil
}
