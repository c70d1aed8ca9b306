package model

import "errors"

// Domain-level error kinds shared by the Orchestrator, Query Surface, and
// Trusted Automation Verifier (spec §7). These are compared with
// errors.Is/errors.As, not string matching.

// ErrCommitteeMissing is raised when an operation requires a Committee
// that the Project does not (yet) have.
var ErrCommitteeMissing = errors.New("project has no committee")

// ErrNotFound means a referenced Release, Revision, or Task is absent.
var ErrNotFound = errors.New("not found")

// InteractionError is invalid caller input or a precondition failure:
// unsupported publisher, malformed repository, non-allowlisted
// committee, missing committee.
type InteractionError struct {
	Reason string
}

func (e *InteractionError) Error() string { return e.Reason }

// AccessError means the caller lacks the role required for the action.
type AccessError struct {
	Reason string
}

func (e *AccessError) Error() string { return e.Reason }

// ReleasePolicyNotFoundError means no ReleasePolicy matched a verified
// workflow path for the given phase.
type ReleasePolicyNotFoundError struct {
	Reason string
}

func (e *ReleasePolicyNotFoundError) Error() string { return e.Reason }

// ApacheUserMissingError means a directory lookup could not map an
// external identity to a foundation uid. Fingerprint/PrimaryUID carry
// diagnostics for the caller, matching atr.db.interaction.ApacheUserMissingError.
type ApacheUserMissingError struct {
	Reason      string
	Fingerprint string
	PrimaryUID  string
}

func (e *ApacheUserMissingError) Error() string { return e.Reason }

// PublicKeyError surfaces a signature or key-material failure from an
// external verifier.
type PublicKeyError struct {
	Reason string
}

func (e *PublicKeyError) Error() string { return e.Reason }

// ExternalError wraps a failure from an external collaborator (archive,
// directory, verifier) — timeout or unavailability.
type ExternalError struct {
	Reason string
	Cause  error
}

func (e *ExternalError) Error() string {
	if e.Cause != nil {
		return e.Reason + ": " + e.Cause.Error()
	}
	return e.Reason
}

func (e *ExternalError) Unwrap() error { return e.Cause }
