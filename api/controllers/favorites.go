package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/persibuloi/kamenic/api/middleware"
	"github.com/persibuloi/kamenic/api/responses"
	"github.com/persibuloi/kamenic/api/validators"
	"github.com/persibuloi/kamenic/internal/favorites"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
)

type favoriteRequest struct {
	ProductID string `json:"productId" validate:"required,notblank,max=64"`
}

// favoritesHandler wraps the shared session/nil-service preamble.
func favoritesHandler(svc favorites.Service, logg *logger.Logger, fn func(w http.ResponseWriter, r *http.Request, sessionID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}
		sessionID, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fn(w, r, sessionID)
	}
}

func FavoritesList(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return favoritesHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		summary, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	})
}

func FavoritesAdd(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return favoritesHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		var payload favoriteRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Add(r.Context(), sessionID, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	})
}

func FavoritesToggle(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return favoritesHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		isFavorite, summary, err := svc.Toggle(r.Context(), sessionID, chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"isFavorite": isFavorite,
			"favorites":  summary,
		})
	})
}

func FavoritesContains(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return favoritesHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		productID := chi.URLParam(r, "productId")
		ok, err := svc.Contains(r.Context(), sessionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"productId": productID, "isFavorite": ok})
	})
}

func FavoritesRemove(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return favoritesHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		summary, err := svc.Remove(r.Context(), sessionID, chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	})
}

func FavoritesClear(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return favoritesHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, sessionID string) {
		summary, err := svc.Clear(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	})
}
