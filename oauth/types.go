package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Method is the HTTP verb a phase uses.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// ParseMethod normalizes s to GET or POST.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToUpper(strings.TrimSpace(s))) {
	case MethodGet:
		return MethodGet, nil
	case MethodPost:
		return MethodPost, nil
	}
	return "", fmt.Errorf("%w: unsupported method %q", ErrInvalidConfig, s)
}

// ParamSpec lists the parameters one phase sends.
//
// Referenced names are looked up in the integration's configured values (and
// the callback query for "code"). Manual entries are sent verbatim and win
// over referenced values with the same name. A nil Referenced slice means the
// phase declared no parameter list at all, which is a configuration fault;
// an empty slice is fine.
type ParamSpec struct {
	Referenced []string          `json:"referenced" yaml:"referenced"`
	Manual     map[string]string `json:"manual,omitempty" yaml:"manual,omitempty"`
}

// PhaseSpec describes one outbound step of the flow: the authorization
// dialog or the code-for-token exchange.
type PhaseSpec struct {
	// URL replaces the integration's oauth_url for this phase only.
	URL         string    `json:"url,omitempty" yaml:"url,omitempty"`
	Method      Method    `json:"method" yaml:"method"`
	ServiceName string    `json:"service_name" yaml:"service_name"`
	Data        ParamSpec `json:"data" yaml:"data"`
}

func (p PhaseSpec) clone() PhaseSpec {
	out := p
	if p.Data.Referenced != nil {
		out.Data.Referenced = make([]string, len(p.Data.Referenced))
		copy(out.Data.Referenced, p.Data.Referenced)
	}
	if p.Data.Manual != nil {
		out.Data.Manual = make(map[string]string, len(p.Data.Manual))
		for k, v := range p.Data.Manual {
			out.Data.Manual[k] = v
		}
	}
	return out
}

// Request is the part of an inbound request the handlers read. Hosts that
// do not speak net/http can fill it directly.
type Request struct {
	Query url.Values
	Form  url.Values
}

// RequestFromHTTP extracts the query and the posted form of r.
func RequestFromHTTP(r *http.Request) (Request, error) {
	if err := r.ParseForm(); err != nil {
		return Request{}, err
	}
	return Request{Query: r.URL.Query(), Form: r.PostForm}, nil
}

// Redirect is a 302 the host must issue.
type Redirect struct {
	Location string
}

// HTTPClient interface for mocking in tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// KeyValueStore is the host's durable settings storage. Get reports whether
// the key exists.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// NonceManager issues and checks action-scoped anti-forgery tokens.
type NonceManager interface {
	Create(ctx context.Context, action string) (string, error)
	Verify(ctx context.Context, token, action string) error
}
