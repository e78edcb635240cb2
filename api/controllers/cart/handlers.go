package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/persibuloi/kamenic/api/middleware"
	"github.com/persibuloi/kamenic/api/responses"
	"github.com/persibuloi/kamenic/api/validators"
	cartsvc "github.com/persibuloi/kamenic/internal/cart"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
)

func sessionOrFail(svc cartsvc.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return "", false
	}
	sessionID, err := middleware.RequireSession(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return "", false
	}
	return sessionID, true
}

// CartFetch returns the visitor's cart with totals and free shipping progress.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionOrFail(svc, logg, w, r)
		if !ok {
			return
		}
		summary, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// CartAddItem adds a product, clamped to its stock. An add that does not fit is not an
// error; the outcome says added=false.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionOrFail(svc, logg, w, r)
		if !ok {
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty := payload.Quantity
		if qty == 0 {
			qty = 1
		}
		outcome, err := svc.Add(r.Context(), sessionID, payload.ProductID, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

// CartUpdateItem sets a line quantity; zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionOrFail(svc, logg, w, r)
		if !ok {
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.UpdateQuantity(r.Context(), sessionID, chi.URLParam(r, "productId"), *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionOrFail(svc, logg, w, r)
		if !ok {
			return
		}
		summary, err := svc.Remove(r.Context(), sessionID, chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionOrFail(svc, logg, w, r)
		if !ok {
			return
		}
		summary, err := svc.Clear(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
