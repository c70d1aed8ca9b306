// Package identity resolves a raw mail From: header to a normalized
// address and, where possible, a foundation ASF uid and committee
// standing, grounded on original_source/atr/tabulate.py's
// _vote_identity and server/ghclient/client.go's header-parsing style.
package identity

import (
	"net/mail"
	"strings"

	"github.com/apache/trusted-releases/internal/model"
)

// FoundationDomain is the domain whose local-part is itself a foundation uid.
const FoundationDomain = "apache.org"

// invalidSuffix is appended by mailing-list software to obfuscate sender
// domains; stripped before lookup (original_source strips ".invalid").
const invalidSuffix = ".invalid"

// Resolution is the outcome of resolving one From: header.
type Resolution struct {
	Valid     bool
	Email     string // lowercased, .invalid-stripped
	UID       string // foundation uid if known, else ""
	HasUID    bool
	Status    model.VoteStatus
}

// Resolve extracts and normalizes the address in raw, then maps it to a
// foundation uid via snapshot (or directly, if the domain is the
// foundation's own). committee may be nil, in which case Status is
// always UNKNOWN.
func Resolve(raw string, snapshot map[string]string, committee *model.Committee) Resolution {
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address == "" {
		return Resolution{Valid: false}
	}

	email := strings.ToLower(addr.Address)
	email = strings.TrimSuffix(email, invalidSuffix)

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return Resolution{Valid: false}
	}
	local, domain := email[:at], email[at+1:]

	res := Resolution{Valid: true, Email: email}

	if domain == FoundationDomain {
		res.UID = local
		res.HasUID = true
	} else if uid, ok := snapshot[email]; ok {
		res.UID = uid
		res.HasUID = true
	}

	res.Status = classify(res, committee)
	return res
}

func classify(res Resolution, committee *model.Committee) model.VoteStatus {
	if committee == nil || !res.HasUID {
		return model.StatusUnknown
	}
	switch {
	case committee.Members.Has(res.UID):
		return model.StatusBinding
	case committee.Committers.Has(res.UID):
		return model.StatusCommitter
	default:
		return model.StatusContributor
	}
}

// Key is the tabulation map key for a resolved identity: the uid when
// known, else the normalized email (invariant 6 of spec §3).
func (r Resolution) Key() string {
	if r.HasUID {
		return r.UID
	}
	return r.Email
}
