package examples

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gobeaver/beaver-connect/cache"
	"github.com/gobeaver/beaver-connect/database"
	"github.com/gobeaver/beaver-connect/nonce"
	"github.com/gobeaver/beaver-connect/oauth"
)

var settingsPage = template.Must(template.New("settings").Parse(`<!doctype html>
<html><body>
{{range .}}<section>
<h2>{{.Name}}</h2>
{{if .Authorized}}<p>Connected.</p>{{end}}
{{if .Link}}{{.Link}}{{else}}<p>Enter a client id and secret first.</p>{{end}}
</section>{{end}}
</body></html>`))

type settingsRow struct {
	Name       string
	Authorized bool
	Link       template.HTML
}

// Host is a minimal application serving the action endpoint, a settings
// page with one Authorize button per integration, a status endpoint and
// metrics.
type Host struct {
	Router   chi.Router
	Registry *oauth.Registry
	close    []func() error
}

// Close releases the storage connections.
func (h *Host) Close() error {
	var errs []error
	for _, fn := range h.close {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// NewHost builds a Host from BEAVER_* variables. Tokens go to the database
// when BEAVER_DB_DRIVER is set, otherwise to the configured cache.
//
//	BEAVER_OAUTH_INTEGRATIONS_FILE=integrations.yaml
//	BEAVER_NONCE_SECRET_KEY=change-me-to-something-long
//	BEAVER_CACHE_DRIVER=redis
//	BEAVER_CACHE_URL=redis://localhost:6379/0
func NewHost(ctx context.Context, logger *zap.Logger, useDatabase bool) (*Host, error) {
	h := &Host{}

	cacheCfg, err := cache.GetConfig()
	if err != nil {
		return nil, err
	}
	c, err := cache.New(*cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	h.close = append(h.close, c.Close)

	var store oauth.KeyValueStore = oauth.NewCacheStore(c)
	if useDatabase {
		db, err := database.WithPrefix("BEAVER_").Connect()
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("database: %w", err)
		}
		h.close = append(h.close, db.Close)

		if store, err = db.Options(ctx); err != nil {
			h.Close()
			return nil, err
		}
	}

	nonceCfg, err := nonce.GetConfig()
	if err != nil {
		h.Close()
		return nil, err
	}
	var nonceOpts []nonce.Option
	if nonceCfg.SingleUse {
		// Spent nonces are kept apart from tokens.
		ledgerCfg := *cacheCfg
		ledgerCfg.Namespace = "nonce"
		ledger, err := cache.New(ledgerCfg)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("nonce ledger: %w", err)
		}
		h.close = append(h.close, ledger.Close)
		nonceOpts = append(nonceOpts, nonce.WithLedger(ledger))
	}
	nonces, err := nonce.New(*nonceCfg, nonceOpts...)
	if err != nil {
		h.Close()
		return nil, err
	}

	oauthCfg, err := oauth.GetConfig()
	if err != nil {
		h.Close()
		return nil, err
	}

	metrics, err := oauth.NewPrometheusCollector(prometheus.DefaultRegisterer)
	if err != nil {
		h.Close()
		return nil, err
	}

	h.Registry, err = oauth.Bootstrap(*oauthCfg,
		oauth.Dependencies{Store: store, Nonces: nonces},
		oauth.WithLogger(logger),
		oauth.WithMetrics(metrics),
	)
	if err != nil {
		h.Close()
		return nil, err
	}

	mw := oauth.NewMiddleware(oauth.MiddlewareConfigFrom(*oauthCfg), logger.Named("http"))

	r := chi.NewRouter()
	r.Use(mw.DefaultChain())
	oauth.Mount(r, oauthCfg.EndpointPath, h.Registry.Handler())
	r.Get("/settings", h.serveSettings)
	r.Get("/status", h.Registry.StatusHandler().ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	h.Router = r

	return h, nil
}

func (h *Host) serveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rows []settingsRow
	for _, name := range h.Registry.Names() {
		svc, err := h.Registry.Service(name)
		if err != nil {
			continue
		}
		link, _, err := svc.AuthorizeLink(ctx)
		if err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		rows = append(rows, settingsRow{Name: name, Authorized: svc.Authorized(ctx), Link: link})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = settingsPage.Execute(w, rows)
}

// ListenAndServe runs a Host on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string) error {
	oauthCfg, err := oauth.GetConfig()
	if err != nil {
		return err
	}
	logger, err := oauthCfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	h, err := NewHost(ctx, logger, false)
	if err != nil {
		return err
	}
	defer h.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("listening", zap.String("addr", addr), zap.Strings("integrations", h.Registry.Names()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
