package oauth

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the integrations of one host, keyed by settings name.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*Service
	routes   RouteTable
	store    KeyValueStore
	logger   *zap.Logger
}

// NewRegistry creates an empty registry. Only the logger option is used.
func NewRegistry(opts ...Option) *Registry {
	o := buildOptions(opts)
	return &Registry{
		services: make(map[string]*Service),
		routes:   make(RouteTable),
		logger:   o.logger.Named("oauth"),
	}
}

// Bootstrap loads the integrations named by cfg and registers a Service for
// each of them over deps.
func Bootstrap(cfg Config, deps Dependencies, opts ...Option) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configs, err := LoadProviderConfigs(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.TokenEncryptionKey != "" && deps.Store != nil {
		enc, err := NewEncryptedStore(deps.Store, cfg.TokenEncryptionKey)
		if err != nil {
			return nil, err
		}
		deps.Store = enc
	}

	opts = append([]Option{WithConfig(cfg)}, opts...)
	r := NewRegistry(opts...)
	r.store = deps.Store

	for _, pc := range configs {
		svc, err := New(pc, deps, opts...)
		if err != nil {
			return nil, err
		}
		if err := r.Register(svc); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds svc. Settings names and action names must be unique.
func (r *Registry) Register(svc *Service) error {
	if svc == nil {
		return fmt.Errorf("%w: service is nil", ErrInvalidConfig)
	}
	name := svc.SettingsName()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateIntegration, name)
	}
	if err := r.routes.Merge(svc.Routes()); err != nil {
		return err
	}
	r.services[name] = svc
	if r.store == nil {
		r.store = svc.settings.Store()
	}

	r.logger.Info("integration registered",
		zap.String("integration", name),
		zap.String("callback", svc.Config().CallbackURL()),
	)
	return nil
}

// Service returns the integration registered under name.
func (r *Registry) Service(name string) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegration, name)
	}
	return svc, nil
}

// Names lists the registered settings names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Routes returns a copy of the merged route table.
func (r *Registry) Routes() RouteTable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(RouteTable, len(r.routes))
	for action, fn := range r.routes {
		out[action] = fn
	}
	return out
}

// Handler returns a Dispatcher over the current routes. Integrations
// registered later are not served by it.
func (r *Registry) Handler() http.Handler {
	return NewDispatcher(r.Routes(), r.logger)
}

// Status reports every integration and the token store. The store checked
// is the one given to Bootstrap, or else the first registered service's.
func (r *Registry) Status(ctx context.Context) StatusReport {
	r.mu.RLock()
	services := make([]*Service, 0, len(r.services))
	for _, svc := range r.services {
		services = append(services, svc)
	}
	store := r.store
	r.mu.RUnlock()

	return buildStatus(ctx, services, store)
}
