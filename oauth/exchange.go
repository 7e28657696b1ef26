package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Default outbound timeouts.
const (
	DefaultGetTimeout  = 10 * time.Second
	DefaultPostTimeout = 5 * time.Second
)

// TokenExchanger handles the provider's callback: it trades the code for a
// token, stores it and sends the user back to the return URL.
type TokenExchanger struct {
	cfg         *ProviderConfig
	tokens      *TokenStore
	sender      Sender
	getTimeout  time.Duration
	postTimeout time.Duration
	logger      *zap.Logger
	metrics     MetricsCollector
}

// NewTokenExchanger creates the handler. Zero timeouts fall back to the defaults.
func NewTokenExchanger(cfg *ProviderConfig, tokens *TokenStore, sender Sender, getTimeout, postTimeout time.Duration, logger *zap.Logger, metrics MetricsCollector) *TokenExchanger {
	if getTimeout <= 0 {
		getTimeout = DefaultGetTimeout
	}
	if postTimeout <= 0 {
		postTimeout = DefaultPostTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NoopCollector{}
	}
	return &TokenExchanger{
		cfg:         cfg,
		tokens:      tokens,
		sender:      sender,
		getTimeout:  getTimeout,
		postTimeout: postTimeout,
		logger:      logger,
		metrics:     metrics,
	}
}

// Handle always redirects to the return URL with a debug parameter, which
// is empty unless the provider answered with an error. The only error
// result is a misconfigured token phase.
func (x *TokenExchanger) Handle(ctx context.Context, req Request) (*Redirect, error) {
	start := time.Now()
	name := x.cfg.SettingsName()

	phase := x.cfg.TokenArgs()
	base := x.cfg.OAuthURL()
	if phase.URL != "" {
		base = phase.URL
	}

	args, err := x.cfg.Resolver().Resolve(phase.Data.Referenced, req.Query)
	if err != nil {
		x.metrics.RecordExchange(name, OutcomeError, time.Since(start))
		return nil, fmt.Errorf("%s: token_args: %w", name, err)
	}
	params := withManual(args, phase.Data.Manual)

	out := OutboundRequest{Method: phase.Method}
	if phase.Method == MethodPost {
		out.URL = serviceURL(base, phase.ServiceName, nil)
		out.Body = params
		out.Timeout = x.postTimeout
	} else {
		out.URL = serviceURL(base, phase.ServiceName, params)
		out.Timeout = x.getTimeout
	}

	debug, outcome := x.exchange(ctx, out)
	x.metrics.RecordExchange(name, outcome, time.Since(start))

	return &Redirect{Location: x.cfg.ReturnURL() + "&debug=" + encodeDebug(debug)}, nil
}

func (x *TokenExchanger) exchange(ctx context.Context, out OutboundRequest) (string, string) {
	log := x.logger.With(zap.String("integration", x.cfg.SettingsName()), zap.String("action", x.cfg.CallbackAction()))

	resp, err := x.sender.Send(ctx, out)
	if err != nil {
		log.Warn("token request failed", zap.Error(err))
		return "", OutcomeNoToken
	}
	if !resp.Success() {
		log.Warn("token request rejected", zap.Int("status", resp.StatusCode))
		return "", OutcomeNoToken
	}
	if !gjson.ValidBytes(resp.Body) {
		log.Warn("token response is not JSON", zap.Int("status", resp.StatusCode))
		return "", OutcomeNoToken
	}

	body := gjson.ParseBytes(resp.Body)
	if msg, ok := providerError(body); ok {
		log.Warn("provider returned an error", zap.String("message", msg))
		return fmt.Sprintf("Error Message : %s URL : %s", msg, x.cfg.RedirectURI()), OutcomeProviderError
	}

	token := body.Get("access_token")
	if token.Type != gjson.String || token.Str == "" {
		log.Info("token response carried no access token")
		return "", OutcomeNoToken
	}

	if err := x.tokens.SetToken(ctx, token.Str); err != nil {
		log.Error("storing access token failed", zap.Error(err))
		return "", OutcomeError
	}
	log.Info("access token stored")
	return "", OutcomeStored
}

// providerError extracts a message from {"error": {"message": ...}}. The
// RFC 6749 form {"error": "code", "error_description": ...} is accepted too.
// Any other non-null error value still counts as an error, so a token next
// to it is never stored; its raw JSON becomes the message.
func providerError(body gjson.Result) (string, bool) {
	e := body.Get("error")
	switch e.Type {
	case gjson.Null:
		return "", false
	case gjson.JSON:
		if msg := e.Get("message"); msg.Exists() {
			return msg.String(), true
		}
	case gjson.String:
		if d := body.Get("error_description"); d.Type == gjson.String && d.Str != "" {
			return d.Str, true
		}
		return e.Str, true
	}
	return e.Raw, true
}

// encodeDebug escapes like a form value but writes spaces as %20.
func encodeDebug(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
