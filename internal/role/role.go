// Package role models the caller capability chain (general public →
// foundation committer → committee participant → committee member) as a
// value carrying proven grants, per spec Design Note 2 ("Polymorphism
// over caller roles is a capability hierarchy, not an inheritance
// hierarchy"). An authentication layer (out of scope) constructs a Grant
// once per request and passes it into Orchestrator methods.
package role

// Grant carries everything a caller has proven about themselves:
// authentication (out of scope) has already verified ASFUID, and the
// caller's committee memberships/admin status are supplied by the
// directory at grant-construction time.
type Grant struct {
	ASFUID       string
	FullName     string
	Admin        bool
	memberOf     map[string]bool
	participantOf map[string]bool
	committerOf  map[string]bool
}

// NewGrant builds a Grant for an authenticated foundation committer.
func NewGrant(asfUID, fullName string, admin bool) *Grant {
	return &Grant{
		ASFUID:        asfUID,
		FullName:      fullName,
		Admin:         admin,
		memberOf:      make(map[string]bool),
		participantOf: make(map[string]bool),
		committerOf:   make(map[string]bool),
	}
}

// WithCommitteeMember records that the caller is a voting member of committeeName.
func (g *Grant) WithCommitteeMember(committeeName string) *Grant {
	g.memberOf[committeeName] = true
	g.participantOf[committeeName] = true
	return g
}

// WithCommitteeParticipant records that the caller participates in
// (but is not necessarily a voting member of) committeeName.
func (g *Grant) WithCommitteeParticipant(committeeName string) *Grant {
	g.participantOf[committeeName] = true
	return g
}

// WithCommitter records that the caller is a committer on committeeName's project(s).
func (g *Grant) WithCommitter(committeeName string) *Grant {
	g.committerOf[committeeName] = true
	return g
}

// IsFoundationCommitter reports whether the caller has an ASF uid at all
// (the minimum grant every operation below general-public requires).
func (g *Grant) IsFoundationCommitter() bool {
	return g != nil && g.ASFUID != ""
}

// IsCommitteeParticipant reports whether the caller participates in committeeName.
func (g *Grant) IsCommitteeParticipant(committeeName string) bool {
	return g != nil && g.participantOf[committeeName]
}

// IsCommitteeMember reports whether the caller is a voting member of committeeName.
func (g *Grant) IsCommitteeMember(committeeName string) bool {
	return g != nil && g.memberOf[committeeName]
}

// IsAdmin reports whether the caller holds foundation-wide admin rights.
func (g *Grant) IsAdmin() bool {
	return g != nil && g.Admin
}

// IsCommitteeMemberOrAdmin is the access check the Orchestrator applies
// before phase-transitioning operations, grounded on
// atr.storage.writers.vote.CommitteeMember.__committee_member_or_admin.
func (g *Grant) IsCommitteeMemberOrAdmin(committeeName string) bool {
	return g.IsCommitteeMember(committeeName) || g.IsAdmin()
}
