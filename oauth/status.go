package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// IntegrationStatus describes one integration in a StatusReport.
type IntegrationStatus struct {
	SettingsName string `json:"settings_name"`
	Configured   bool   `json:"configured"`
	Authorized   bool   `json:"authorized"`
	Callback     string `json:"callback_url"`
}

// StatusReport is served by StatusHandler.
type StatusReport struct {
	Store        string              `json:"store"`
	StoreError   string              `json:"store_error,omitempty"`
	CheckedAt    time.Time           `json:"checked_at"`
	Integrations []IntegrationStatus `json:"integrations"`
}

const (
	storeOK          = "ok"
	storeUnreachable = "unreachable"
	storeUnknown     = "unknown"
)

func buildStatus(ctx context.Context, services []*Service, store KeyValueStore) StatusReport {
	report := StatusReport{
		Store:        storeUnknown,
		CheckedAt:    time.Now().UTC(),
		Integrations: make([]IntegrationStatus, 0, len(services)),
	}

	if p, ok := store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			report.Store = storeUnreachable
			report.StoreError = err.Error()
		} else {
			report.Store = storeOK
		}
	}

	for _, svc := range services {
		cfg := svc.Config()
		report.Integrations = append(report.Integrations, IntegrationStatus{
			SettingsName: cfg.SettingsName(),
			Configured:   cfg.HasCredentials(),
			Authorized:   svc.Authorized(ctx),
			Callback:     cfg.CallbackURL(),
		})
	}
	sort.Slice(report.Integrations, func(i, j int) bool {
		return report.Integrations[i].SettingsName < report.Integrations[j].SettingsName
	})
	return report
}

// StatusHandler serves the registry status as JSON. It answers 503 when the
// token store is unreachable.
func (r *Registry) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		report := r.Status(req.Context())

		status := http.StatusOK
		if report.Store == storeUnreachable {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})
}
