package oauth_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/beaver-connect/oauth"
	"github.com/gobeaver/beaver-connect/oauth/oauthtest"
)

func TestNewRequiresDependencies(t *testing.T) {
	cfg := newTestConfig(t)

	_, err := oauth.New(nil, oauth.Dependencies{})
	assert.ErrorIs(t, err, oauth.ErrInvalidConfig)

	_, err = oauth.New(cfg, oauth.Dependencies{Nonces: fakeNonces{}})
	assert.ErrorIs(t, err, oauth.ErrMissingDependency)

	_, err = oauth.New(cfg, oauth.Dependencies{Store: newMemoryStore()})
	assert.ErrorIs(t, err, oauth.ErrMissingDependency)

	svc, err := oauth.New(cfg, oauth.Dependencies{Store: newMemoryStore(), Nonces: fakeNonces{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"fb_authorize", "fb_authorize_callback"}, svc.Routes().Actions())
}

// noRedirect stops the client at the provider's redirect so the test can
// play the browser.
func noRedirect(c *http.Client) *http.Client {
	copied := *c
	copied.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &copied
}

func TestServiceFlowAgainstProvider(t *testing.T) {
	ctx := context.Background()
	provider := oauthtest.NewProvider(t, oauthtest.ProviderConfig{ClientID: "cid", ClientSecret: "csecret", ErrorStatus: http.StatusOK})

	cfg := newTestConfig(t, func(o *oauth.ProviderOptions) { o.OAuthURL = provider.URL() })
	kv := newMemoryStore()
	metrics := &recordingCollector{}
	svc, err := oauth.New(cfg, oauth.Dependencies{
		Store:  kv,
		Nonces: fakeNonces{},
		Sender: oauth.NewHTTPSender(provider.Client(), 0),
	}, oauth.WithMetrics(metrics))
	require.NoError(t, err)

	assert.False(t, svc.Authorized(ctx))

	// The settings page renders the button.
	html, ok, err := svc.AuthorizeLink(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(html), "nonce-fb_authorize")

	// The user submits it.
	redirect, err := svc.Authorize(ctx, oauth.Request{Form: authorizeForm("nonce-fb_authorize")})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(redirect.Location, provider.URL()+oauthtest.DialogPath+"?"), redirect.Location)

	// The provider approves and redirects back.
	resp, err := noRedirect(provider.Client()).Get(redirect.Location)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	callback, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "fb_authorize_callback", callback.Query().Get("action"))

	// The callback trades the code.
	final, err := svc.AuthorizeCallback(ctx, oauth.Request{Query: callback.Query()})
	require.NoError(t, err)
	assert.Equal(t, testReturnURL+"&debug=", final.Location)

	require.True(t, svc.Authorized(ctx))
	tok, _ := svc.Token(ctx)
	assert.True(t, provider.Issued(tok))
	assert.Equal(t, tok, kv.value("fb_access_token"))
	assert.Equal(t, testCallback, provider.LastTokenForm().Get("redirect_uri"))
	assert.Equal(t, oauth.OutcomeStored, metrics.last().outcome)

	// Codes are single use; the provider's error surfaces in debug.
	again, err := svc.AuthorizeCallback(ctx, oauth.Request{Query: callback.Query()})
	require.NoError(t, err)
	assert.Contains(t, again.Location, "debug=Error%20Message%20%3A%20invalid_grant")
	assert.True(t, svc.Authorized(ctx), "a failed exchange keeps the old token")
}

func TestServiceProviderErrorMessage(t *testing.T) {
	ctx := context.Background()
	provider := oauthtest.NewProvider(t, oauthtest.ProviderConfig{ClientID: "cid", ClientSecret: "csecret", ErrorStatus: http.StatusOK})
	provider.FailToken("Invalid verification code format.")

	cfg := newTestConfig(t, func(o *oauth.ProviderOptions) { o.OAuthURL = provider.URL() })
	svc, err := oauth.New(cfg, oauth.Dependencies{
		Store:  newMemoryStore(),
		Nonces: fakeNonces{},
		Sender: oauth.NewHTTPSender(provider.Client(), 0),
	})
	require.NoError(t, err)

	final, err := svc.AuthorizeCallback(ctx, oauth.Request{Query: url.Values{"code": {"whatever"}}})
	require.NoError(t, err)

	u, err := url.Parse(final.Location)
	require.NoError(t, err)
	assert.Equal(t, "Error Message : Invalid verification code format. URL : "+cfg.RedirectURI(), u.Query().Get("debug"))
	assert.False(t, svc.Authorized(ctx))
	assert.Equal(t, 1, provider.Requests(oauthtest.TokenPath))
}

func TestServiceCredentialRotation(t *testing.T) {
	cfg := newTestConfig(t, func(o *oauth.ProviderOptions) { o.ClientID, o.ClientSecret = "", "" })
	svc, err := oauth.New(cfg, oauth.Dependencies{Store: newMemoryStore(), Nonces: fakeNonces{}})
	require.NoError(t, err)

	_, ok, err := svc.AuthorizeLink(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	svc.SetClientID("cid")
	svc.SetClientSecret("csecret")
	_, ok, err = svc.AuthorizeLink(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestServiceRotatedCredentialsReachTheDialog(t *testing.T) {
	cfg := newTestConfig(t, func(o *oauth.ProviderOptions) { o.ClientID, o.ClientSecret = "", "" })
	svc, err := oauth.New(cfg, oauth.Dependencies{Store: newMemoryStore(), Nonces: fakeNonces{}})
	require.NoError(t, err)

	svc.SetClientID("rotated")
	svc.SetClientSecret("s")

	redirect, err := svc.Authorize(context.Background(), oauth.Request{Form: authorizeForm("nonce-fb_authorize")})
	require.NoError(t, err)
	u, err := url.Parse(redirect.Location)
	require.NoError(t, err)
	assert.Equal(t, "rotated", u.Query().Get("client_id"))
}

func TestServiceCall(t *testing.T) {
	ctx := context.Background()
	newService := func(t *testing.T, sender oauth.Sender) *oauth.Service {
		t.Helper()
		svc, err := oauth.New(newTestConfig(t), oauth.Dependencies{Store: newMemoryStore(), Nonces: fakeNonces{}, Sender: sender})
		require.NoError(t, err)
		return svc
	}

	t.Run("GET carries args in the query", func(t *testing.T) {
		sender := respond(http.StatusOK, `{"id":"42","name":"Page"}`)
		res, ok := newService(t, sender).Call(ctx, "/me/", url.Values{"fields": {"id,name"}}, oauth.MethodGet)
		require.True(t, ok)
		assert.Equal(t, "Page", res.Get("name").String())

		out := sender.lastRequest()
		assert.Equal(t, oauth.MethodGet, out.Method)
		assert.Equal(t, "https://graph.facebook.com/me?fields=id%2Cname", out.URL)
		assert.Equal(t, oauth.DefaultGetTimeout, out.Timeout)
	})

	t.Run("POST carries args in the body", func(t *testing.T) {
		sender := respond(http.StatusCreated, `{"id":"post_1"}`)
		res, ok := newService(t, sender).Call(ctx, "me/feed", url.Values{"message": {"hi"}}, oauth.MethodPost)
		require.True(t, ok)
		assert.Equal(t, "post_1", res.Get("id").String())

		out := sender.lastRequest()
		assert.Equal(t, "https://graph.facebook.com/me/feed", out.URL)
		assert.Equal(t, "hi", out.Body.Get("message"))
		assert.Equal(t, oauth.DefaultPostTimeout, out.Timeout)
	})

	t.Run("failures report false", func(t *testing.T) {
		cases := map[string]*fakeSender{
			"non-2xx":   respond(http.StatusBadRequest, `{"error":{"message":"bad"}}`),
			"not JSON":  respond(http.StatusOK, `<html>`),
			"transport": {err: oauth.ErrTransport},
		}
		for name, sender := range cases {
			_, ok := newService(t, sender).Call(ctx, "me", nil, oauth.MethodGet)
			assert.False(t, ok, name)
		}
	})

	t.Run("empty service is not sent", func(t *testing.T) {
		sender := respond(http.StatusOK, `{}`)
		_, ok := newService(t, sender).Call(ctx, "/", nil, oauth.MethodGet)
		assert.False(t, ok)
		assert.Empty(t, sender.lastRequest().URL)
	})
}

func TestServiceOptions(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryStore()
	svc, err := oauth.New(newTestConfig(t), oauth.Dependencies{Store: kv, Nonces: fakeNonces{}})
	require.NoError(t, err)

	_, ok, err := svc.Option(ctx, "page_id")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.SetOption(ctx, "page_id", "1234"))
	v, ok, err := svc.Option(ctx, "page_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1234", v)
	assert.Equal(t, "1234", kv.value("fb_page_id"))

	assert.ErrorIs(t, svc.SetOption(ctx, "", "x"), oauth.ErrInvalidConfig)

	// The access token lives in the same namespace.
	require.NoError(t, svc.SetOption(ctx, "access_token", "stored"))
	tok, ok := svc.Token(ctx)
	assert.True(t, ok)
	assert.Equal(t, "stored", tok)
}
