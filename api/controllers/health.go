package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/monisha-uniforms/storefront-backend/api/responses"
	"github.com/monisha-uniforms/storefront-backend/pkg/config"
)

// Pinger is any backing dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes each wired dependency. Nil entries (optional backends
// left unconfigured) are reported as skipped rather than failing the probe.
func HealthReady(cfg *config.Config, checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		statuses := make(map[string]string, len(checks))
		healthy := true
		for name, check := range checks {
			if check == nil {
				statuses[name] = "skipped"
				continue
			}
			if err := check.Ping(ctx); err != nil {
				statuses[name] = "unreachable"
				healthy = false
				continue
			}
			statuses[name] = "ok"
		}

		payload := map[string]any{"status": "ready", "checks": statuses}
		if !healthy {
			payload["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, payload)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
