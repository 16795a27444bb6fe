package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/craftshoplabs/craftshop-backend/api/responses"
	"github.com/craftshoplabs/craftshop-backend/pkg/config"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Craftshop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each wired dependency and reports per-dependency status.
// Nil pingers are skipped so partial deployments stay observable.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		ready := true
		statuses := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				statuses[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				ready = false
				statuses[name] = "down"
				if logg != nil {
					logg.Error(ctx, "readiness probe failed for "+name, err)
				}
				continue
			}
			statuses[name] = "up"
		}

		w.Header().Set("X-Craftshop-Env", cfg.App.Env)
		payload := map[string]any{"status": "ready", "dependencies": statuses}
		if !ready {
			payload["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, payload)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
