package oauth

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ActionFunc handles one action. A nil redirect with a nil error means the
// request was dropped.
type ActionFunc func(ctx context.Context, req Request) (*Redirect, error)

// RouteTable maps action names to handlers. Hosts build it once at startup
// instead of registering global hooks.
type RouteTable map[string]ActionFunc

// Merge adds other's routes and fails on the first action claimed twice.
func (t RouteTable) Merge(other RouteTable) error {
	for action := range other {
		if _, exists := t[action]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateAction, action)
		}
	}
	for action, fn := range other {
		t[action] = fn
	}
	return nil
}

// Actions lists the registered action names in order.
func (t RouteTable) Actions() []string {
	out := make([]string, 0, len(t))
	for action := range t {
		out = append(out, action)
	}
	sort.Strings(out)
	return out
}

// Dispatcher serves a RouteTable over HTTP. The action comes from the posted
// form, or from the query string for provider callbacks.
type Dispatcher struct {
	routes RouteTable
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher over routes.
func NewDispatcher(routes RouteTable, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{routes: routes, logger: logger}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := RequestFromHTTP(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	action := req.Form.Get("action")
	if action == "" {
		action = req.Query.Get("action")
	}

	fn, ok := d.routes[action]
	if !ok {
		http.NotFound(w, r)
		return
	}

	redirect, err := fn(r.Context(), req)
	if err != nil {
		d.logger.Error("action failed", zap.String("action", action), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if redirect == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	// Location is written verbatim; http.Redirect would rewrite relative targets.
	w.Header().Set("Location", redirect.Location)
	w.WriteHeader(http.StatusFound)
}

// Mount serves d for GET and POST on path.
func Mount(r chi.Router, path string, d http.Handler) {
	r.Get(path, d.ServeHTTP)
	r.Post(path, d.ServeHTTP)
}
