package orchestrator

import "github.com/apache/trusted-releases/internal/model"

// Re-exported so callers importing orchestrator don't also need model
// for the common error-handling path, matching the teacher's
// server/command error-formatting convention of checking a local alias.
type (
	AccessError                = model.AccessError
	InteractionError           = model.InteractionError
	ReleasePolicyNotFoundError = model.ReleasePolicyNotFoundError
	ApacheUserMissingError     = model.ApacheUserMissingError
	PublicKeyError             = model.PublicKeyError
	ExternalError              = model.ExternalError
)

var (
	ErrCommitteeMissing = model.ErrCommitteeMissing
	ErrNotFound         = model.ErrNotFound
)
