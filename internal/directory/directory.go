// Package directory resolves external identities (email addresses,
// GitHub actor ids) to foundation ASF uids and committee membership,
// grounded on server/ghclient/client.go's interface-over-HTTP-client
// shape but fronting an LDAP-backed directory service
// (atr.ldap/atr.db.interaction's directory snapshot in original_source)
// rather than GitHub.
package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/apache/trusted-releases/internal/logging"
	"github.com/apache/trusted-releases/internal/model"
	"github.com/pkg/errors"
)

// Client resolves identities and committee membership against the
// foundation directory snapshot.
type Client interface {
	// EmailToUIDSnapshot returns a point-in-time map of email address ->
	// ASF uid, used by the Identity Resolver (§4.1) so a single
	// tabulation pass is consistent even if the directory changes mid-run.
	EmailToUIDSnapshot(ctx context.Context) (map[string]string, error)

	// GitHubActorToUID maps a verified GitHub Actions actor id to an ASF uid.
	GitHubActorToUID(ctx context.Context, actorID string) (string, error)

	// Committee fetches a committee's roster by name.
	Committee(ctx context.Context, name string) (*model.Committee, error)
}

// HTTPClient is the production Client, backed by the public
// whimsy people.json feed (the closest public analogue to the internal
// LDAP snapshot original_source reads).
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
	Log     logging.Logger
}

// NewHTTPClient builds an HTTPClient, mirroring ghclient.NewClient's
// constructor shape (base URL + timeout-bound http.Client).
func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) *HTTPClient {
	if log == nil {
		log = logging.Noop{}
	}
	return &HTTPClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

type peopleFeed struct {
	People map[string]struct {
		Email string   `json:"email"`
		Name  string   `json:"name"`
		GitHub string  `json:"github_username,omitempty"`
		Groups []string `json:"groups,omitempty"`
	} `json:"people"`
}

// EmailToUIDSnapshot fetches and inverts the public people feed.
func (c *HTTPClient) EmailToUIDSnapshot(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build directory request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch directory snapshot")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("directory returned status %d", resp.StatusCode)
	}

	var feed peopleFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, errors.Wrap(err, "decode directory snapshot")
	}

	out := make(map[string]string, len(feed.People))
	for uid, p := range feed.People {
		if p.Email != "" {
			out[strings.ToLower(p.Email)] = uid
		}
	}
	return out, nil
}

// GitHubActorToUID resolves a GitHub Actions actor id against the
// directory's recorded github_username field.
func (c *HTTPClient) GitHubActorToUID(ctx context.Context, actorID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "build directory request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "fetch directory snapshot")
	}
	defer resp.Body.Close()

	var feed peopleFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return "", errors.Wrap(err, "decode directory snapshot")
	}

	for uid, p := range feed.People {
		if strings.EqualFold(p.GitHub, actorID) {
			return uid, nil
		}
	}
	return "", &model.ApacheUserMissingError{
		Reason: "no ASF uid mapped to GitHub actor " + actorID,
	}
}

// Committee always returns an error: this adapter reads only the people
// feed, which carries no committee rosters, and it does not query any
// other endpoint. Tests use Fake.
func (c *HTTPClient) Committee(ctx context.Context, name string) (*model.Committee, error) {
	return nil, errors.Errorf("directory: committee roster lookup not available from people feed: %s", name)
}

// Fake is an in-memory Client for tests.
type Fake struct {
	EmailToUID map[string]string
	ActorToUID map[string]string
	Committees map[string]*model.Committee
}

// NewFake builds an empty Fake.
func NewFake() *Fake {
	return &Fake{
		EmailToUID: make(map[string]string),
		ActorToUID: make(map[string]string),
		Committees: make(map[string]*model.Committee),
	}
}

func (f *Fake) EmailToUIDSnapshot(ctx context.Context) (map[string]string, error) {
	snap := make(map[string]string, len(f.EmailToUID))
	for k, v := range f.EmailToUID {
		snap[strings.ToLower(k)] = v
	}
	return snap, nil
}

func (f *Fake) GitHubActorToUID(ctx context.Context, actorID string) (string, error) {
	uid, ok := f.ActorToUID[actorID]
	if !ok {
		return "", &model.ApacheUserMissingError{Reason: "no ASF uid mapped to GitHub actor " + actorID}
	}
	return uid, nil
}

func (f *Fake) Committee(ctx context.Context, name string) (*model.Committee, error) {
	c, ok := f.Committees[name]
	if !ok {
		return nil, model.ErrCommitteeMissing
	}
	return c, nil
}
