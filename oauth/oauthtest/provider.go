// Package oauthtest provides an in-process OAuth 2.0 provider for tests.
package oauthtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/gobeaver/beaver-connect/krypto"
)

// Dialog and token endpoints, relative to URL().
const (
	DialogPath = "/dialog/oauth"
	TokenPath  = "/oauth/access_token"
)

// ProviderConfig configures the fake provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string

	// ErrorStatus is the HTTP status of error responses. Zero means 400.
	ErrorStatus int

	// CodeLifetime bounds how long an issued code stays valid. Zero means 10m.
	CodeLifetime time.Duration
}

// Provider simulates the dialog and token endpoints of an OAuth 2.0 provider.
type Provider struct {
	server *httptest.Server
	config ProviderConfig

	mu       sync.Mutex
	codes    map[string]issuedCode
	tokens   map[string]bool
	failures map[string]string
	requests map[string]int
	lastForm url.Values
}

type issuedCode struct {
	redirectURI string
	expiresAt   time.Time
}

// NewProvider starts a fake provider. It is closed when the test ends.
func NewProvider(t interface{ Cleanup(func()) }, config ProviderConfig) *Provider {
	if config.ErrorStatus == 0 {
		config.ErrorStatus = http.StatusBadRequest
	}
	if config.CodeLifetime <= 0 {
		config.CodeLifetime = 10 * time.Minute
	}

	p := &Provider{
		config:   config,
		codes:    make(map[string]issuedCode),
		tokens:   make(map[string]bool),
		failures: make(map[string]string),
		requests: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(DialogPath, p.handleDialog)
	mux.HandleFunc(TokenPath, p.handleToken)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)

	return p
}

// URL returns the provider base URL, suitable as oauth_url.
func (p *Provider) URL() string { return p.server.URL }

// Client returns an HTTP client for the provider.
func (p *Provider) Client() *http.Client { return p.server.Client() }

// IssueCode registers a code as if the user had approved the dialog.
func (p *Provider) IssueCode(redirectURI string) string {
	code := mustToken(24)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes[code] = issuedCode{redirectURI: redirectURI, expiresAt: time.Now().Add(p.config.CodeLifetime)}
	return code
}

// FailToken makes the token endpoint answer with a Graph-style error
// {"error": {"message": msg}} until cleared with an empty msg.
func (p *Provider) FailToken(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg == "" {
		delete(p.failures, TokenPath)
		return
	}
	p.failures[TokenPath] = msg
}

// Issued reports whether token was handed out by this provider.
func (p *Provider) Issued(token string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokens[token]
}

// Requests returns how many requests path has served.
func (p *Provider) Requests(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[path]
}

// LastTokenForm returns the parameters of the last token request.
func (p *Provider) LastTokenForm() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(url.Values, len(p.lastForm))
	for k, v := range p.lastForm {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (p *Provider) handleDialog(w http.ResponseWriter, r *http.Request) {
	p.count(DialogPath)

	q := r.URL.Query()
	if q.Get("client_id") != p.config.ClientID {
		http.Error(w, "Invalid client_id", http.StatusBadRequest)
		return
	}
	redirectURI := q.Get("redirect_uri")
	if redirectURI == "" {
		http.Error(w, "Missing redirect_uri", http.StatusBadRequest)
		return
	}

	target, err := url.Parse(redirectURI)
	if err != nil {
		http.Error(w, "Invalid redirect_uri", http.StatusBadRequest)
		return
	}
	values := target.Query()
	values.Set("code", p.IssueCode(redirectURI))
	if state := q.Get("state"); state != "" {
		values.Set("state", state)
	}
	target.RawQuery = values.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (p *Provider) handleToken(w http.ResponseWriter, r *http.Request) {
	p.count(TokenPath)

	if err := r.ParseForm(); err != nil {
		p.writeError(w, "invalid_request", "")
		return
	}

	p.mu.Lock()
	p.lastForm = r.Form
	failure := p.failures[TokenPath]
	p.mu.Unlock()

	if failure != "" {
		p.writeJSON(w, p.config.ErrorStatus, map[string]any{
			"error": map[string]any{"message": failure, "type": "OAuthException", "code": 100},
		})
		return
	}

	if r.Form.Get("client_id") != p.config.ClientID || r.Form.Get("client_secret") != p.config.ClientSecret {
		p.writeError(w, "invalid_client", "")
		return
	}

	code := r.Form.Get("code")
	p.mu.Lock()
	issued, ok := p.codes[code]
	delete(p.codes, code)
	p.mu.Unlock()

	if !ok || time.Now().After(issued.expiresAt) {
		p.writeError(w, "invalid_grant", "")
		return
	}
	if issued.redirectURI != r.Form.Get("redirect_uri") {
		p.writeError(w, "invalid_grant", "redirect_uri mismatch")
		return
	}

	token := mustToken(32)
	p.mu.Lock()
	p.tokens[token] = true
	p.mu.Unlock()

	p.writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   5183944,
	})
}

func (p *Provider) writeError(w http.ResponseWriter, code, description string) {
	body := map[string]any{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	p.writeJSON(w, p.config.ErrorStatus, body)
}

func (p *Provider) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (p *Provider) count(path string) {
	p.mu.Lock()
	p.requests[path]++
	p.mu.Unlock()
}

func mustToken(n int) string {
	tok, err := krypto.GenerateSecureToken(n)
	if err != nil {
		panic(err)
	}
	return tok
}
