package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/persibuloi/kamenic/api/responses"
	"github.com/persibuloi/kamenic/internal/store"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/config"
	"github.com/persibuloi/kamenic/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by the redis client.
type Pinger interface {
	Ping(context.Context) error
}

// StoreReporter lists the status line of every data store.
type StoreReporter interface {
	Reports() []store.Report
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Kame-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails only when redis is unreachable. Airtable stores in error are
// reported but do not fail readiness; the storefront degrades per store.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisP Pinger, stores StoreReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Kame-Env", cfg.App.Env)

		if redisP != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		payload := map[string]any{"status": "ready"}
		if stores != nil {
			payload["stores"] = stores.Reports()
		}
		responses.WriteSuccess(w, payload)
	}
}
