package oauth

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// DefaultEndpointPath is used when an integration does not name its own.
const DefaultEndpointPath = "/admin-post"

var settingsNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ProviderOptions is the declarative description of one integration, as
// written in an integrations file or built in code.
type ProviderOptions struct {
	ClientID     string            `json:"client_id" yaml:"client_id"`
	ClientSecret string            `json:"client_secret" yaml:"client_secret"`
	SettingsName string            `json:"settings_name" yaml:"settings_name"`
	OAuthURL     string            `json:"oauth_url" yaml:"oauth_url"`
	LocateDomain string            `json:"locate_domain" yaml:"locate_domain"`
	ReturnURL    string            `json:"return_url,omitempty" yaml:"return_url,omitempty"`
	EndpointPath string            `json:"endpoint_path,omitempty" yaml:"endpoint_path,omitempty"`
	RequestArgs  *PhaseSpec        `json:"request_args" yaml:"request_args"`
	TokenArgs    *PhaseSpec        `json:"token_args" yaml:"token_args"`
	Extra        map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`

	// Preset fills OAuthURL, RequestArgs and TokenArgs when they are empty.
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty"`
}

// ProviderConfig is the validated, immutable view of one integration.
// Only the client credentials can change after construction.
type ProviderConfig struct {
	mu           sync.RWMutex
	clientID     string
	clientSecret string

	settingsName string
	oauthURL     string
	locateDomain string
	returnURL    string
	endpointURL  string
	callbackURL  string
	requestArgs  PhaseSpec
	tokenArgs    PhaseSpec
	allArgs      map[string]string
}

// NewProviderConfig validates opts and derives the callback URL and the
// resolution table. Errors wrap ErrInvalidConfig.
func NewProviderConfig(opts ProviderOptions) (*ProviderConfig, error) {
	if opts.Preset != "" {
		if err := ApplyPreset(&opts); err != nil {
			return nil, err
		}
	}

	if opts.SettingsName == "" {
		return nil, fmt.Errorf("%w: settings_name required", ErrInvalidConfig)
	}
	if !settingsNamePattern.MatchString(opts.SettingsName) {
		return nil, fmt.Errorf("%w: settings_name %q may only contain letters, digits, '_' and '-'", ErrInvalidConfig, opts.SettingsName)
	}
	if opts.OAuthURL == "" {
		return nil, fmt.Errorf("%w: %s: oauth_url required", ErrInvalidConfig, opts.SettingsName)
	}
	if opts.LocateDomain == "" {
		return nil, fmt.Errorf("%w: %s: locate_domain required", ErrInvalidConfig, opts.SettingsName)
	}

	requestArgs, err := validatePhase(opts.SettingsName, "request_args", opts.RequestArgs)
	if err != nil {
		return nil, err
	}
	tokenArgs, err := validatePhase(opts.SettingsName, "token_args", opts.TokenArgs)
	if err != nil {
		return nil, err
	}

	path := opts.EndpointPath
	if path == "" {
		path = DefaultEndpointPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	base := strings.TrimRight(opts.LocateDomain, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	c := &ProviderConfig{
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		settingsName: opts.SettingsName,
		oauthURL:     opts.OAuthURL,
		locateDomain: opts.LocateDomain,
		returnURL:    opts.ReturnURL,
		endpointURL:  base + path,
		requestArgs:  requestArgs,
		tokenArgs:    tokenArgs,
	}
	c.callbackURL = c.endpointURL + "?action=" + url.QueryEscape(c.CallbackAction())
	c.allArgs = c.buildAllArgs(opts.Extra)

	return c, nil
}

func validatePhase(settingsName, field string, p *PhaseSpec) (PhaseSpec, error) {
	if p == nil {
		return PhaseSpec{}, fmt.Errorf("%w: %s: %s required", ErrInvalidConfig, settingsName, field)
	}
	out := p.clone()

	method, err := ParseMethod(string(p.Method))
	if err != nil {
		return PhaseSpec{}, fmt.Errorf("%s: %s: %w", settingsName, field, err)
	}
	out.Method = method

	if strings.Trim(p.ServiceName, `\/`) == "" {
		return PhaseSpec{}, fmt.Errorf("%w: %s: %s.service_name required", ErrInvalidConfig, settingsName, field)
	}
	return out, nil
}

// buildAllArgs runs once. Extra values come first so the core fields and
// the derived redirect_uri cannot be shadowed.
func (c *ProviderConfig) buildAllArgs(extra map[string]string) map[string]string {
	all := make(map[string]string, len(extra)+7)
	for k, v := range extra {
		all[k] = v
	}
	all["client_id"] = c.clientID
	all["client_secret"] = c.clientSecret
	all["settings_name"] = c.settingsName
	all["oauth_url"] = c.oauthURL
	all["locate_domain"] = c.locateDomain
	if c.returnURL != "" {
		all["return_url"] = c.returnURL
	}
	all["redirect_uri"] = c.callbackURL
	return all
}

// SettingsName returns the namespace of this integration.
func (c *ProviderConfig) SettingsName() string { return c.settingsName }

// OAuthURL returns the provider base URL.
func (c *ProviderConfig) OAuthURL() string { return c.oauthURL }

// ReturnURL returns where the user lands after the exchange.
func (c *ProviderConfig) ReturnURL() string { return c.returnURL }

// EndpointURL is the absolute URL of the host's action endpoint.
func (c *ProviderConfig) EndpointURL() string { return c.endpointURL }

// CallbackURL is the un-encoded URL the provider redirects back to.
func (c *ProviderConfig) CallbackURL() string { return c.callbackURL }

// RedirectURI is CallbackURL in URL-encoded form.
func (c *ProviderConfig) RedirectURI() string { return url.QueryEscape(c.callbackURL) }

// RequestArgs returns a copy of the dialog phase.
func (c *ProviderConfig) RequestArgs() PhaseSpec { return c.requestArgs.clone() }

// TokenArgs returns a copy of the exchange phase.
func (c *ProviderConfig) TokenArgs() PhaseSpec { return c.tokenArgs.clone() }

// AuthorizeAction names the action that starts the flow.
func (c *ProviderConfig) AuthorizeAction() string { return c.settingsName + "_authorize" }

// CallbackAction names the action the provider redirects back to.
func (c *ProviderConfig) CallbackAction() string { return c.settingsName + "_authorize_callback" }

// NonceField names the form field carrying the anti-forgery token.
func (c *ProviderConfig) NonceField() string { return c.settingsName + "_authorize_nonce" }

// TokenKey is the storage key of the access token.
func (c *ProviderConfig) TokenKey() string { return TokenKey(c.settingsName) }

// ClientID returns the current client id.
func (c *ProviderConfig) ClientID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID
}

// ClientSecret returns the current client secret.
func (c *ProviderConfig) ClientSecret() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientSecret
}

// HasCredentials reports whether both client id and secret are set.
func (c *ProviderConfig) HasCredentials() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID != "" && c.clientSecret != ""
}

// SetClientID rotates the client id. Empty values are ignored. Only the
// client_id entry of the resolution table changes.
func (c *ProviderConfig) SetClientID(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	c.clientID = id
	c.allArgs["client_id"] = id
	c.mu.Unlock()
}

// SetClientSecret rotates the client secret. Empty values are ignored.
func (c *ProviderConfig) SetClientSecret(secret string) {
	if secret == "" {
		return
	}
	c.mu.Lock()
	c.clientSecret = secret
	c.allArgs["client_secret"] = secret
	c.mu.Unlock()
}

// Resolver returns an ArgResolver over a snapshot of this integration's values.
func (c *ProviderConfig) Resolver() ArgResolver {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make(map[string]string, len(c.allArgs))
	for k, v := range c.allArgs {
		all[k] = v
	}
	return ArgResolver{all: all}
}
