package controllers

import (
	"context"
	"net/http"

	"github.com/persibuloi/kamenic/api/responses"
	"github.com/persibuloi/kamenic/internal/store"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
)

// StoreStatus is the read/refresh surface shared by every single-store service.
type StoreStatus interface {
	Status() store.Report
	Refresh(ctx context.Context) (store.Report, error)
}

// StoreGroup is the view of every store used by the global endpoints.
type StoreGroup interface {
	StoreReporter
	RefreshAll(ctx context.Context) error
}

func StoreReport(svc StoreStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Status())
	}
}

// StoreRefresh forces a refetch. The previous list stays served when it fails.
func StoreRefresh(svc StoreStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Refresh(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func StoresStatus(group StoreGroup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"stores": group.Reports()})
	}
}

// StoresRefresh refetches every store concurrently. Individual failures are reported
// per store; the request fails only when every store failed.
func StoresRefresh(group StoreGroup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := group.RefreshAll(r.Context())
		reports := group.Reports()
		if err != nil {
			failed := 0
			for _, rep := range reports {
				if rep.Status == store.StatusError {
					failed++
				}
			}
			if failed == len(reports) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh failed for every store"))
				return
			}
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "stores.refresh.partial")
			}
		}
		responses.WriteSuccess(w, map[string]any{"stores": reports})
	}
}
