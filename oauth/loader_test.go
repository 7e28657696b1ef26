package oauth_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/beaver-connect/oauth"
)

const integrationsYAML = `
integrations:
  - settings_name: fb
    client_id: ${TEST_FB_CLIENT_ID}
    client_secret: fb-secret
    oauth_url: https://graph.facebook.com
    locate_domain: example.com
    return_url: https://example.com/settings?tab=fb
    request_args:
      url: https://www.facebook.com
      method: get
      service_name: dialog/oauth
      data:
        referenced: [client_id, redirect_uri]
        manual:
          scope: pages_show_list
    token_args:
      method: GET
      service_name: oauth/access_token
      data:
        referenced: [client_id, client_secret, redirect_uri, code]
  - settings_name: gh
    preset: github
    client_id: gh-id
    client_secret: gh-secret
    locate_domain: example.com
    endpoint_path: /hooks/oauth
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "integrations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadIntegrationsFile(t *testing.T) {
	t.Setenv("TEST_FB_CLIENT_ID", "fb-id")

	configs, err := oauth.LoadProviderConfigs(oauth.Config{
		IntegrationsFile: writeFile(t, integrationsYAML),
		EndpointPath:     "/wp-admin/admin-post.php",
	})
	require.NoError(t, err)
	require.Len(t, configs, 2)

	fb := configs[0]
	assert.Equal(t, "fb", fb.SettingsName())
	assert.Equal(t, "fb-id", fb.ClientID())
	assert.Equal(t, "https://example.com/wp-admin/admin-post.php?action=fb_authorize_callback", fb.CallbackURL())
	assert.Equal(t, oauth.MethodGet, fb.RequestArgs().Method)
	assert.Equal(t, "https://www.facebook.com", fb.RequestArgs().URL)
	assert.Equal(t, "pages_show_list", fb.RequestArgs().Data.Manual["scope"])

	gh := configs[1]
	assert.Equal(t, "https://github.com/login/oauth", gh.OAuthURL())
	assert.Equal(t, "https://example.com/hooks/oauth", gh.EndpointURL())
	assert.Equal(t, oauth.MethodPost, gh.TokenArgs().Method)
}

func TestParseIntegrationsYAMLErrors(t *testing.T) {
	tests := map[string]string{
		"scalar referenced": `
integrations:
  - settings_name: fb
    request_args:
      data:
        referenced: client_id
`,
		"unknown field": `
integrations:
  - settings_name: fb
    client_idd: typo
`,
		"not yaml": "integrations: [",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := oauth.ParseIntegrationsYAML([]byte(doc))
			assert.ErrorIs(t, err, oauth.ErrInvalidConfig)
		})
	}
}

func TestParseIntegrationsYAMLEmpty(t *testing.T) {
	opts, err := oauth.ParseIntegrationsYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestLoadIntegrationsJSON(t *testing.T) {
	opts, err := oauth.LoadIntegrations(oauth.Config{
		EndpointPath: "/admin-post",
		Integrations: `[{"settings_name":"gl","preset":"gitlab","client_id":"a","client_secret":"b","locate_domain":"example.com"}]`,
	})
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "gitlab", opts[0].Preset)
	assert.Equal(t, "/admin-post", opts[0].EndpointPath)

	_, err = oauth.ParseIntegrationsJSON([]byte(`[{"settings_name":"x","request_args":{"data":{"referenced":"code"}}}]`))
	assert.ErrorIs(t, err, oauth.ErrInvalidConfig)
}

func TestLoadIntegrationsNoSource(t *testing.T) {
	opts, err := oauth.LoadIntegrations(oauth.Config{})
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestLoadIntegrationsMissingFile(t *testing.T) {
	_, err := oauth.LoadIntegrations(oauth.Config{IntegrationsFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadProviderConfigsInvalid(t *testing.T) {
	_, err := oauth.LoadProviderConfigs(oauth.Config{Integrations: `[{"settings_name":"bad name"}]`})
	assert.ErrorIs(t, err, oauth.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "integration 0")
}
