package oauth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gobeaver/beaver-connect/oauth"
)

const (
	testReturnURL = "https://example.com/wp-admin/options-general.php?page=fb"
	testCallback  = "https://example.com/admin-post?action=fb_authorize_callback"
)

func testOptions() oauth.ProviderOptions {
	return oauth.ProviderOptions{
		ClientID:     "cid",
		ClientSecret: "csecret",
		SettingsName: "fb",
		OAuthURL:     "https://graph.facebook.com",
		LocateDomain: "example.com",
		ReturnURL:    testReturnURL,
		RequestArgs: &oauth.PhaseSpec{
			Method:      oauth.MethodGet,
			ServiceName: "dialog/oauth",
			Data: oauth.ParamSpec{
				Referenced: []string{"client_id", "redirect_uri"},
				Manual:     map[string]string{"scope": "pages_show_list"},
			},
		},
		TokenArgs: &oauth.PhaseSpec{
			Method:      oauth.MethodGet,
			ServiceName: "oauth/access_token",
			Data: oauth.ParamSpec{
				Referenced: []string{"client_id", "client_secret", "redirect_uri", "code"},
			},
		},
	}
}

func newTestConfig(t *testing.T, mutate ...func(*oauth.ProviderOptions)) *oauth.ProviderConfig {
	t.Helper()
	opts := testOptions()
	for _, m := range mutate {
		m(&opts)
	}
	cfg, err := oauth.NewProviderConfig(opts)
	require.NoError(t, err)
	return cfg
}

// memoryStore is a KeyValueStore over a map.
type memoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	getErr  error
	setErr  error
	pingErr error
	gets    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

func (s *memoryStore) Ping(context.Context) error { return s.pingErr }

func (s *memoryStore) value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// fakeNonces accepts exactly "nonce-<action>".
type fakeNonces struct {
	createErr error
}

var errBadNonce = errors.New("bad nonce")

func (n fakeNonces) Create(_ context.Context, action string) (string, error) {
	if n.createErr != nil {
		return "", n.createErr
	}
	return "nonce-" + action, nil
}

func (fakeNonces) Verify(_ context.Context, token, action string) error {
	if token != "nonce-"+action {
		return errBadNonce
	}
	return nil
}

// fakeSender records the last request and returns a canned response.
type fakeSender struct {
	mu   sync.Mutex
	last oauth.OutboundRequest
	resp *oauth.OutboundResponse
	err  error
}

func respond(status int, body string) *fakeSender {
	return &fakeSender{resp: &oauth.OutboundResponse{StatusCode: status, Body: []byte(body)}}
}

func (s *fakeSender) Send(_ context.Context, req oauth.OutboundRequest) (*oauth.OutboundResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = req
	return s.resp, s.err
}

func (s *fakeSender) lastRequest() oauth.OutboundRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type recordedOutcome struct {
	integration string
	phase       string
	outcome     string
}

// recordingCollector keeps every recorded outcome.
type recordingCollector struct {
	mu       sync.Mutex
	outcomes []recordedOutcome
}

func (c *recordingCollector) RecordAuthorize(integration, outcome string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, recordedOutcome{integration, "authorize", outcome})
}

func (c *recordingCollector) RecordExchange(integration, outcome string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, recordedOutcome{integration, "callback", outcome})
}

func (c *recordingCollector) last() recordedOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.outcomes) == 0 {
		return recordedOutcome{}
	}
	return c.outcomes[len(c.outcomes)-1]
}
