package oauth

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Dependencies are the host collaborators a Service needs.
type Dependencies struct {
	// Store persists access tokens. Required.
	Store KeyValueStore
	// Nonces guards the Authorize form. Required.
	Nonces NonceManager
	// Sender performs provider calls. Defaults to an HTTPSender.
	Sender Sender
}

type options struct {
	logger      *zap.Logger
	metrics     MetricsCollector
	getTimeout  time.Duration
	postTimeout time.Duration
	maxBody     int64
}

// Option customizes a Service or a Registry.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) { o.metrics = m }
}

// WithTimeouts overrides the GET and POST timeouts of provider calls.
func WithTimeouts(get, post time.Duration) Option {
	return func(o *options) {
		o.getTimeout = get
		o.postTimeout = post
	}
}

// WithMaxResponseBytes caps provider responses read by the default sender.
func WithMaxResponseBytes(n int64) Option {
	return func(o *options) { o.maxBody = n }
}

// WithConfig applies the shared settings of cfg.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.getTimeout = cfg.GetTimeout
		o.postTimeout = cfg.PostTimeout
		o.maxBody = cfg.MaxResponseBytes
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:      zap.NewNop(),
		metrics:     NoopCollector{},
		getTimeout:  DefaultGetTimeout,
		postTimeout: DefaultPostTimeout,
		maxBody:     DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.metrics == nil {
		o.metrics = NoopCollector{}
	}
	return o
}

// Service runs the authorization-code flow for one integration.
type Service struct {
	cfg       *ProviderConfig
	settings  *Settings
	tokens    *TokenStore
	link      *AuthorizationLinkBuilder
	authorize *AuthorizeRequestHandler
	exchange  *TokenExchanger
	sender    Sender
	getTO     time.Duration
	postTO    time.Duration
	logger    *zap.Logger
}

// New wires a Service for cfg.
func New(cfg *ProviderConfig, deps Dependencies, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: provider config is nil", ErrInvalidConfig)
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: %s: key-value store", ErrMissingDependency, cfg.SettingsName())
	}
	if deps.Nonces == nil {
		return nil, fmt.Errorf("%w: %s: nonce manager", ErrMissingDependency, cfg.SettingsName())
	}

	o := buildOptions(opts)
	if deps.Sender == nil {
		deps.Sender = NewHTTPSender(nil, o.maxBody)
	}
	logger := o.logger.Named("oauth")

	tokens := NewTokenStore(cfg.SettingsName(), deps.Store, logger)
	exchange := NewTokenExchanger(cfg, tokens, deps.Sender, o.getTimeout, o.postTimeout, logger, o.metrics)
	return &Service{
		cfg:       cfg,
		settings:  NewSettings(cfg.SettingsName(), deps.Store),
		tokens:    tokens,
		link:      NewAuthorizationLinkBuilder(cfg, deps.Nonces),
		authorize: NewAuthorizeRequestHandler(cfg, deps.Nonces, logger, o.metrics),
		exchange:  exchange,
		sender:    deps.Sender,
		getTO:     exchange.getTimeout,
		postTO:    exchange.postTimeout,
		logger:    logger,
	}, nil
}

// Config returns the integration's configuration.
func (s *Service) Config() *ProviderConfig { return s.cfg }

// SettingsName returns the integration's namespace.
func (s *Service) SettingsName() string { return s.cfg.SettingsName() }

// AuthorizeLink renders the Authorize form; false while credentials are missing.
func (s *Service) AuthorizeLink(ctx context.Context) (template.HTML, bool, error) {
	return s.link.Build(ctx)
}

// Authorize handles the submitted Authorize form.
func (s *Service) Authorize(ctx context.Context, req Request) (*Redirect, error) {
	return s.authorize.Handle(ctx, req)
}

// AuthorizeCallback handles the provider's redirect back.
func (s *Service) AuthorizeCallback(ctx context.Context, req Request) (*Redirect, error) {
	return s.exchange.Handle(ctx, req)
}

// Authorized reports whether an access token has been obtained.
func (s *Service) Authorized(ctx context.Context) bool {
	return s.tokens.HasToken(ctx)
}

// Token returns the stored access token.
func (s *Service) Token(ctx context.Context) (string, bool) {
	return s.tokens.Token(ctx)
}

// SetClientID rotates the client id; empty values are ignored.
func (s *Service) SetClientID(id string) { s.cfg.SetClientID(id) }

// SetClientSecret rotates the client secret; empty values are ignored.
func (s *Service) SetClientSecret(secret string) { s.cfg.SetClientSecret(secret) }

// Routes returns the two actions this integration answers.
func (s *Service) Routes() RouteTable {
	return RouteTable{
		s.cfg.AuthorizeAction(): s.Authorize,
		s.cfg.CallbackAction():  s.AuthorizeCallback,
	}
}

// Option reads an integration-scoped option stored as "<settings_name>_<name>".
func (s *Service) Option(ctx context.Context, name string) (string, bool, error) {
	return s.settings.Get(ctx, name)
}

// SetOption writes an integration-scoped option.
func (s *Service) SetOption(ctx context.Context, name, value string) error {
	return s.settings.Set(ctx, name, value)
}

// Call sends args to the provider API at <oauth_url>/<service> and decodes
// the JSON answer. GET calls carry args in the query, POST calls in a form
// body. It reports false for an empty service, a transport failure, a
// non-2xx status or a body that is not JSON.
func (s *Service) Call(ctx context.Context, service string, args url.Values, method Method) (gjson.Result, bool) {
	if strings.Trim(service, `\/`) == "" {
		return gjson.Result{}, false
	}
	log := s.logger.With(zap.String("integration", s.SettingsName()), zap.String("service", service))

	out := OutboundRequest{Method: method}
	if method == MethodPost {
		out.URL = serviceURL(s.cfg.OAuthURL(), service, nil)
		out.Body = args
		out.Timeout = s.postTO
	} else {
		out.Method = MethodGet
		out.URL = serviceURL(s.cfg.OAuthURL(), service, args)
		out.Timeout = s.getTO
	}

	resp, err := s.sender.Send(ctx, out)
	if err != nil {
		log.Warn("api call failed", zap.Error(err))
		return gjson.Result{}, false
	}
	if !resp.Success() {
		log.Warn("api call rejected", zap.Int("status", resp.StatusCode))
		return gjson.Result{}, false
	}
	if !gjson.ValidBytes(resp.Body) {
		log.Warn("api response is not JSON", zap.Int("status", resp.StatusCode))
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(resp.Body), true
}
