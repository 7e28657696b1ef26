package oauth

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

var authorizeForm = template.Must(template.New("authorize").Parse(
	`<form method="post" action="{{.Endpoint}}">` +
		`<input type="hidden" name="action" value="{{.Action}}"/>` +
		`<input type="hidden" name="{{.NonceField}}" value="{{.Nonce}}"/>` +
		`<input type="submit" name="{{.Action}}" value="Authorize" class="button button-primary"/>` +
		`</form>`))

type authorizeFormData struct {
	Endpoint   string
	Action     string
	NonceField string
	Nonce      string
}

// AuthorizationLinkBuilder renders the button that starts the flow.
type AuthorizationLinkBuilder struct {
	cfg    *ProviderConfig
	nonces NonceManager
}

// NewAuthorizationLinkBuilder creates a builder for cfg.
func NewAuthorizationLinkBuilder(cfg *ProviderConfig, nonces NonceManager) *AuthorizationLinkBuilder {
	return &AuthorizationLinkBuilder{cfg: cfg, nonces: nonces}
}

// Build returns the form markup. The second value is false, with no error,
// while the client id or secret is still empty.
func (b *AuthorizationLinkBuilder) Build(ctx context.Context) (template.HTML, bool, error) {
	if !b.cfg.HasCredentials() {
		return "", false, nil
	}

	action := b.cfg.AuthorizeAction()
	nonce, err := b.nonces.Create(ctx, action)
	if err != nil {
		return "", false, fmt.Errorf("%s: create nonce: %w", b.cfg.SettingsName(), err)
	}

	var buf bytes.Buffer
	err = authorizeForm.Execute(&buf, authorizeFormData{
		Endpoint:   b.cfg.EndpointURL(),
		Action:     action,
		NonceField: b.cfg.NonceField(),
		Nonce:      nonce,
	})
	if err != nil {
		return "", false, fmt.Errorf("%s: render form: %w", b.cfg.SettingsName(), err)
	}

	return template.HTML(buf.String()), true, nil
}
