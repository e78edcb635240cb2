package controllers

import (
	"context"
	"net/http"

	"github.com/persibuloi/kamenic/api/responses"
	"github.com/persibuloi/kamenic/internal/settings"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
)

// PolicySource resolves the effective free shipping policy.
type PolicySource interface {
	Policy(ctx context.Context, override *float64) settings.Policy
}

func SiteSettings(svc settings.SiteService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		result, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// StorePolicy never fails: an Airtable outage degrades to configured defaults and the
// reason is carried in the payload. ?fs= overrides the threshold when it is a valid
// non-negative number and is ignored otherwise.
func StorePolicy(svc PolicySource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store config service unavailable"))
			return
		}
		var override *float64
		if raw := r.URL.Query().Get("fs"); raw != "" {
			if v, ok := settings.ParseNumber(raw); ok && v >= 0 {
				override = &v
			}
		}
		responses.WriteSuccess(w, svc.Policy(r.Context(), override))
	}
}
