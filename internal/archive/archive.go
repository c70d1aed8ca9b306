// Package archive reads mail-archive messages for a vote thread,
// grounded on server/cursor/client.go's HTTP-with-timeout request
// pattern but representing a read-only mail archive (the asf-mail-org
// archive powering atr.tabulate.votes in original_source) rather than
// the Cursor background-agent API.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/apache/trusted-releases/internal/logging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Message is one email in a vote thread, minimally shaped for identity
// resolution and ballot parsing (§4.1, §4.2).
type Message struct {
	ID          string    // asf_eid
	ThreadID    string
	From        string    // raw RFC-5322 From: header value
	ListAddress string    // raw mailing list the message was sent to (list_raw)
	Subject     string
	Body        string
	Timestamp   time.Time
}

// Reader iterates the messages of a single archive thread in
// chronological order. The channel is finite and non-restartable: a
// Reader is invoked once per tabulation pass (spec §9).
type Reader interface {
	Messages(ctx context.Context, threadID string) (<-chan Message, error)
}

// HTTPReader is the production Reader, polling the public mail archive
// API. The real crawler/indexer is an external collaborator; this client
// only issues a single GET per thread and decodes the JSON it returns.
type HTTPReader struct {
	BaseURL string
	HTTP    *http.Client
	Log     logging.Logger
}

// NewHTTPReader builds an HTTPReader with the given base URL and timeout,
// mirroring cursor.NewClient's constructor shape.
func NewHTTPReader(baseURL string, timeout time.Duration, log logging.Logger) *HTTPReader {
	if log == nil {
		log = logging.Noop{}
	}
	return &HTTPReader{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

type archiveMessage struct {
	MID       string `json:"mid"`
	ListRaw   string `json:"list_raw"`
	From      string `json:"from_raw"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	EpochSecs int64  `json:"epoch"`
}

// Messages fetches and streams a thread's messages in chronological
// order. The returned channel is closed when the thread is exhausted or
// ctx is cancelled.
func (r *HTTPReader) Messages(ctx context.Context, threadID string) (<-chan Message, error) {
	url := fmt.Sprintf("%s/api/thread.json?id=%s", r.BaseURL, threadID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build archive request")
	}

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch archive thread")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("archive returned status %d for thread %s", resp.StatusCode, threadID)
	}

	var raw struct {
		Emails []archiveMessage `json:"emails"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode archive thread")
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		for _, m := range raw.Emails {
			msg := Message{
				ID:          m.MID,
				ThreadID:    threadID,
				From:        m.From,
				ListAddress: m.ListRaw,
				Subject:     m.Subject,
				Body:        m.Body,
				Timestamp:   time.Unix(m.EpochSecs, 0).UTC(),
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				r.Log.LogWarn("archive read cancelled", "thread_id", threadID)
				return
			}
		}
	}()
	return out, nil
}

// Fake is an in-memory Reader for tests, grounded on the teacher's
// in-memory kvstore test doubles (server/store/kvstore/store_test.go).
type Fake struct {
	Threads map[string][]Message
}

// NewFake builds an empty Fake.
func NewFake() *Fake {
	return &Fake{Threads: make(map[string][]Message)}
}

// Add appends a message to threadID's synthetic archive. If m.ID is
// empty, a synthetic asf_eid is generated so tests needn't invent one
// for every casting.
func (f *Fake) Add(threadID string, m Message) {
	m.ThreadID = threadID
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	f.Threads[threadID] = append(f.Threads[threadID], m)
}

// Messages returns the recorded messages for threadID over a closed channel.
func (f *Fake) Messages(ctx context.Context, threadID string) (<-chan Message, error) {
	out := make(chan Message, len(f.Threads[threadID]))
	for _, m := range f.Threads[threadID] {
		out <- m
	}
	close(out)
	return out, nil
}
