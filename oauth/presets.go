package oauth

import (
	"fmt"
	"sort"
	"strings"
)

// presets holds phase templates for well-known providers. Endpoints follow
// each provider's published authorization-code documentation.
var presets = map[string]ProviderOptions{
	"facebook": {
		OAuthURL: "https://graph.facebook.com/v19.0",
		RequestArgs: &PhaseSpec{
			URL:         "https://www.facebook.com/v19.0",
			Method:      MethodGet,
			ServiceName: "dialog/oauth",
			Data: ParamSpec{
				Referenced: []string{"client_id", "redirect_uri"},
				Manual:     map[string]string{"response_type": "code"},
			},
		},
		TokenArgs: &PhaseSpec{
			Method:      MethodGet,
			ServiceName: "oauth/access_token",
			Data: ParamSpec{
				Referenced: []string{"client_id", "client_secret", "redirect_uri", "code"},
			},
		},
	},
	"github": {
		OAuthURL: "https://github.com/login/oauth",
		RequestArgs: &PhaseSpec{
			Method:      MethodGet,
			ServiceName: "authorize",
			Data: ParamSpec{
				Referenced: []string{"client_id", "redirect_uri"},
				Manual:     map[string]string{"scope": "read:user user:email"},
			},
		},
		TokenArgs: &PhaseSpec{
			Method:      MethodPost,
			ServiceName: "access_token",
			Data: ParamSpec{
				Referenced: []string{"client_id", "client_secret", "redirect_uri", "code"},
			},
		},
	},
	"gitlab": {
		OAuthURL: "https://gitlab.com/oauth",
		RequestArgs: &PhaseSpec{
			Method:      MethodGet,
			ServiceName: "authorize",
			Data: ParamSpec{
				Referenced: []string{"client_id", "redirect_uri"},
				Manual:     map[string]string{"response_type": "code", "scope": "read_user"},
			},
		},
		TokenArgs: &PhaseSpec{
			Method:      MethodPost,
			ServiceName: "token",
			Data: ParamSpec{
				Referenced: []string{"client_id", "client_secret", "redirect_uri", "code"},
				Manual:     map[string]string{"grant_type": "authorization_code"},
			},
		},
	},
	"google": {
		OAuthURL: "https://oauth2.googleapis.com",
		RequestArgs: &PhaseSpec{
			URL:         "https://accounts.google.com/o/oauth2/v2",
			Method:      MethodGet,
			ServiceName: "auth",
			Data: ParamSpec{
				Referenced: []string{"client_id", "redirect_uri"},
				Manual: map[string]string{
					"response_type": "code",
					"scope":         "openid email profile",
					"access_type":   "offline",
				},
			},
		},
		TokenArgs: &PhaseSpec{
			Method:      MethodPost,
			ServiceName: "token",
			Data: ParamSpec{
				Referenced: []string{"client_id", "client_secret", "redirect_uri", "code"},
				Manual:     map[string]string{"grant_type": "authorization_code"},
			},
		},
	},
}

// Presets lists the known preset names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset fills the empty oauth_url, request_args and token_args of opts
// from the named preset. Values already set are kept.
func ApplyPreset(opts *ProviderOptions) error {
	name := strings.ToLower(strings.TrimSpace(opts.Preset))
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, opts.Preset)
	}

	if opts.OAuthURL == "" {
		opts.OAuthURL = p.OAuthURL
	}
	if opts.RequestArgs == nil {
		phase := p.RequestArgs.clone()
		opts.RequestArgs = &phase
	}
	if opts.TokenArgs == nil {
		phase := p.TokenArgs.clone()
		opts.TokenArgs = &phase
	}
	return nil
}
