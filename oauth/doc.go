// Package oauth runs the OAuth 2.0 authorization-code flow on behalf of a
// host application that owns a single self-referencing action endpoint.
//
// Each integration is described by a ProviderConfig. A Service wires it to
// a KeyValueStore for the access token and a NonceManager for the
// anti-forgery field of the Authorize form, and answers two actions:
//
//   - <settings_name>_authorize: the form post that redirects the user to
//     the provider's dialog.
//   - <settings_name>_authorize_callback: the provider's redirect back,
//     which trades the code for an access token and sends the user to the
//     integration's return URL with a debug parameter.
//
// # Quick Start
//
//	cfg, err := oauth.NewProviderConfig(oauth.ProviderOptions{
//	    SettingsName: "github",
//	    Preset:       "github",
//	    ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
//	    ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
//	    LocateDomain: "example.com",
//	    ReturnURL:    "https://example.com/settings?tab=github",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	svc, err := oauth.New(cfg, oauth.Dependencies{
//	    Store:  oauth.NewCacheStore(c),
//	    Nonces: nonces,
//	}, oauth.WithLogger(logger))
//
//	r := chi.NewRouter()
//	oauth.Mount(r, "/admin-post", oauth.NewDispatcher(svc.Routes(), logger))
//
// # Multiple integrations
//
// Bootstrap reads integrations from the file named by
// BEAVER_OAUTH_INTEGRATIONS_FILE, or the JSON array in
// BEAVER_OAUTH_INTEGRATIONS, and returns a Registry serving all of them:
//
//	oauthCfg, _ := oauth.GetConfig()
//	reg, err := oauth.Bootstrap(*oauthCfg, deps, oauth.WithLogger(logger))
//	oauth.Mount(r, oauthCfg.EndpointPath, reg.Handler())
//	r.Get("/oauth/status", reg.StatusHandler().ServeHTTP)
//
// # Debug parameter
//
// The callback always redirects. When the provider answers with an error
// the debug parameter reads "Error Message : <message> URL : <redirect_uri>";
// otherwise it is empty, whether or not a token was obtained.
//
// The callback does not validate a state parameter. The Authorize form is
// nonce-protected, but any request reaching the callback action with a code
// triggers an exchange.
package oauth
