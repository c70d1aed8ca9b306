// Package verifier validates signed automation tokens from external CI
// providers and resolves the project/workflow authorized to act on
// behalf of a release phase, grounded on original_source/atr/db/
// interaction.py's _trusted_project/_trusted_project_checks and
// Aureuma-si/apps/ReleaseParty/backend's golang-jwt/jwt/v4 + JWKS usage
// style.
package verifier

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/apache/trusted-releases/internal/directory"
	"github.com/apache/trusted-releases/internal/logging"
	"github.com/apache/trusted-releases/internal/model"
	"github.com/apache/trusted-releases/internal/verifier/ghapp"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// githubPublisher is the only supported token publisher (spec §4.7).
const githubPublisher = "github"

const workflowPathPrefix = ".github/workflows/"

// Claims are the recognized fields of a verified automation token.
type Claims struct {
	ActorID     string
	Repository  string
	WorkflowRef string
}

// TokenVerifier validates a signed automation token and extracts claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// JWKSVerifier verifies GitHub Actions OIDC tokens against a JWKS
// endpoint, caching keys for a TTL.
type JWKSVerifier struct {
	JWKSURL  string
	Issuer   string
	Audience string
	HTTP     *http.Client

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	ttl       time.Duration
}

// NewJWKSVerifier builds a JWKSVerifier with a default 10-minute key cache TTL.
func NewJWKSVerifier(jwksURL, issuer, audience string, timeout time.Duration) *JWKSVerifier {
	return &JWKSVerifier{
		JWKSURL:  jwksURL,
		Issuer:   issuer,
		Audience: audience,
		HTTP:     &http.Client{Timeout: timeout},
		ttl:      10 * time.Minute,
	}
}

type jwksDoc struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type actionsClaims struct {
	jwt.RegisteredClaims
	Actor       string `json:"actor"`
	ActorID     string `json:"actor_id"`
	Repository  string `json:"repository"`
	JobWorkflowRef string `json:"job_workflow_ref"`
	WorkflowRef string `json:"workflow_ref"`
}

// Verify parses and validates token, returning the GitHub Actions OIDC claims it carries.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	keys, err := v.keySet(ctx)
	if err != nil {
		return Claims{}, errors.Wrap(err, "fetch jwks")
	}

	var claims actionsClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[kid]
		if !ok {
			return nil, errors.Errorf("unknown signing key %q", kid)
		}
		return key, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !parsed.Valid {
		return Claims{}, &model.PublicKeyError{Reason: "automation token signature invalid"}
	}

	if v.Issuer != "" && claims.Issuer != v.Issuer {
		return Claims{}, &model.PublicKeyError{Reason: "unexpected token issuer"}
	}
	if v.Audience != "" {
		found := false
		for _, aud := range claims.Audience {
			if aud == v.Audience {
				found = true
				break
			}
		}
		if !found {
			return Claims{}, &model.PublicKeyError{Reason: "unexpected token audience"}
		}
	}

	workflowRef := claims.JobWorkflowRef
	if workflowRef == "" {
		workflowRef = claims.WorkflowRef
	}

	return Claims{
		ActorID:     claims.ActorID,
		Repository:  claims.Repository,
		WorkflowRef: workflowRef,
	}, nil
}

func (v *JWKSVerifier) keySet(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keys != nil && time.Since(v.fetchedAt) < v.ttl {
		return v.keys, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.JWKSURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc jwksDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		pub, err := parseRSAPublicKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	v.keys = keys
	v.fetchedAt = time.Now()
	return keys, nil
}

// ResolveProject validates (publisher, token, phase) and locates the
// bound Project, per spec §4.7. log may be nil, in which case diagnostic
// logging is skipped.
func ResolveProject(ctx context.Context, tv TokenVerifier, dir directory.Client, policies PolicyLookup, publisher, token string, phase model.WorkflowPhase, log logging.Logger) (Claims, string, *model.Project, error) {
	if log == nil {
		log = logging.Noop{}
	}
	if publisher != githubPublisher {
		return Claims{}, "", nil, &model.InteractionError{Reason: "unsupported automation publisher: " + publisher}
	}

	claims, err := tv.Verify(ctx, token)
	if err != nil {
		return Claims{}, "", nil, err
	}

	if repo, repoErr := ghapp.ParseRepository(claims.Repository); repoErr == nil {
		log.LogDebug("automation token repository", "owner", repo.GetOwner().GetLogin(), "name", repo.GetName())
	}

	uid, err := dir.GitHubActorToUID(ctx, claims.ActorID)
	if err != nil {
		return Claims{}, "", nil, err
	}

	const repoPrefix = "apache/"
	if !strings.HasPrefix(claims.Repository, repoPrefix) {
		return Claims{}, "", nil, &model.InteractionError{Reason: "repository must begin with " + repoPrefix}
	}

	workflowPath, ok := splitWorkflowRef(claims.Repository, claims.WorkflowRef)
	if !ok {
		return Claims{}, "", nil, &model.InteractionError{Reason: "malformed workflow_ref: " + claims.WorkflowRef}
	}
	if !strings.HasPrefix(workflowPath, workflowPathPrefix) {
		return Claims{}, "", nil, &model.InteractionError{Reason: "workflow path must begin with " + workflowPathPrefix}
	}

	project, err := policies.ProjectForWorkflow(ctx, claims.Repository, workflowPath, phase)
	if err != nil {
		return Claims{}, "", nil, err
	}

	committee, err := project.RequireCommittee()
	if err != nil {
		return Claims{}, "", nil, err
	}
	if !committee.AutomatedReleaseAllowed {
		return Claims{}, "", nil, &model.InteractionError{Reason: "committee " + committee.Name + " is not on the automated-release allowlist"}
	}

	return claims, uid, project, nil
}

// splitWorkflowRef splits "<repository>/<workflow_path>@<git_ref>" into
// the workflow_path, requiring the ref to begin with the repository.
func splitWorkflowRef(repository, workflowRef string) (string, bool) {
	prefix := repository + "/"
	if !strings.HasPrefix(workflowRef, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(workflowRef, prefix)
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return "", false
	}
	return rest[:at], true
}

// PolicyLookup locates the ReleasePolicy/Project authorized for a
// repository+workflow path in a given phase.
type PolicyLookup interface {
	ProjectForWorkflow(ctx context.Context, repository, workflowPath string, phase model.WorkflowPhase) (*model.Project, error)
}
