// Package ghapp resolves the repository named in a verified automation
// claim into a go-github Repository struct for diagnostic logging,
// grounded on server/ghclient.Client's go-github usage.
package ghapp

import (
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/pkg/errors"
)

// ParseRepository splits an "owner/name" repository identifier, as
// carried on a verified OIDC claim's "repository" field, into a
// go-github Repository value suitable for diagnostic logging. It never
// calls the GitHub API: the verifier calls it only after the token
// signature has checked out, and trusts the claim's repository field
// from then on, so no network round trip is needed here.
func ParseRepository(repository string) (*github.Repository, error) {
	owner, name, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || name == "" {
		return nil, errors.Errorf("malformed repository identifier %q", repository)
	}
	fullName := repository
	return &github.Repository{
		Name:     github.Ptr(name),
		FullName: github.Ptr(fullName),
		Owner:    &github.User{Login: github.Ptr(owner)},
	}, nil
}
