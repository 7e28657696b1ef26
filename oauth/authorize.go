package oauth

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// AuthorizeRequestHandler turns a submitted Authorize form into a redirect
// to the provider's dialog.
type AuthorizeRequestHandler struct {
	cfg     *ProviderConfig
	nonces  NonceManager
	logger  *zap.Logger
	metrics MetricsCollector
}

// NewAuthorizeRequestHandler creates the handler.
func NewAuthorizeRequestHandler(cfg *ProviderConfig, nonces NonceManager, logger *zap.Logger, metrics MetricsCollector) *AuthorizeRequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NoopCollector{}
	}
	return &AuthorizeRequestHandler{cfg: cfg, nonces: nonces, logger: logger, metrics: metrics}
}

// Handle returns the dialog redirect. A request without a valid nonce is
// dropped: the result is nil with a nil error. An error means the
// integration itself is misconfigured.
func (h *AuthorizeRequestHandler) Handle(ctx context.Context, req Request) (*Redirect, error) {
	start := time.Now()
	name := h.cfg.SettingsName()
	log := h.logger.With(zap.String("integration", name), zap.String("action", h.cfg.AuthorizeAction()))

	phase := h.cfg.RequestArgs()
	base := h.cfg.OAuthURL()
	if phase.URL != "" {
		base = phase.URL
	}

	if len(req.Form) == 0 {
		log.Debug("authorize request dropped", zap.String("reason", "empty form"))
		h.metrics.RecordAuthorize(name, OutcomeDropped, time.Since(start))
		return nil, nil
	}
	if err := h.nonces.Verify(ctx, req.Form.Get(h.cfg.NonceField()), h.cfg.AuthorizeAction()); err != nil {
		log.Debug("authorize request dropped", zap.String("reason", "nonce"), zap.Error(err))
		h.metrics.RecordAuthorize(name, OutcomeDropped, time.Since(start))
		return nil, nil
	}

	args, err := h.cfg.Resolver().Resolve(phase.Data.Referenced, req.Query)
	if err != nil {
		h.metrics.RecordAuthorize(name, OutcomeError, time.Since(start))
		return nil, fmt.Errorf("%s: request_args: %w", name, err)
	}

	// A POST dialog cannot carry a body through a redirect, so its
	// parameters are not sent at all.
	var query url.Values
	if phase.Method == MethodGet {
		query = withManual(args, phase.Data.Manual)
	}

	location := serviceURL(base, phase.ServiceName, query)
	log.Info("redirecting to authorization dialog", zap.String("method", string(phase.Method)))
	h.metrics.RecordAuthorize(name, OutcomeRedirected, time.Since(start))
	return &Redirect{Location: location}, nil
}
