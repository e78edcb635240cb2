package blog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/persibuloi/kamenic/api/responses"
	"github.com/persibuloi/kamenic/api/validators"
	blogsvc "github.com/persibuloi/kamenic/internal/blog"
	"github.com/persibuloi/kamenic/internal/comments"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/persibuloi/kamenic/pkg/types"
)

const maxFilterLen = 120

// PostList serves published posts narrowed by categoria, tag, autor, search and destacados.
func PostList(svc blogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blog service unavailable"))
			return
		}
		destacados, err := validators.ParseQueryBool(r, "destacados")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := blogsvc.Filters{
			Categoria:  validators.QueryString(r, "categoria", maxFilterLen),
			Tag:        validators.QueryString(r, "tag", maxFilterLen),
			Autor:      validators.QueryString(r, "autor", maxFilterLen),
			SearchTerm: validators.QueryString(r, "search", maxFilterLen),
			Destacados: destacados,
		}
		listing, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, listing.Posts, types.ListMeta{Total: listing.Total, Stale: listing.Stale})
	}
}

// PostDetail resolves {postRef} as a slug first, then as a record id.
func PostDetail(svc blogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blog service unavailable"))
			return
		}
		post, err := svc.Post(r.Context(), chi.URLParam(r, "postRef"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

func Categories(svc blogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blog service unavailable"))
			return
		}
		result, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Featured(svc blogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blog service unavailable"))
			return
		}
		listing, err := svc.Featured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, listing.Posts, types.ListMeta{Total: listing.Total, Stale: listing.Stale})
	}
}

// CommentList returns the approved comments of a post.
func CommentList(posts blogsvc.Service, svc comments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if posts == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "comments service unavailable"))
			return
		}
		post, err := posts.Post(r.Context(), chi.URLParam(r, "postRef"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		thread, err := svc.List(r.Context(), post.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, thread.Comments, types.ListMeta{Total: thread.Total, Stale: thread.Stale})
	}
}

// CommentCreate stores a pending comment. It is not visible until a moderator approves it.
func CommentCreate(posts blogsvc.Service, svc comments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if posts == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "comments service unavailable"))
			return
		}
		post, err := posts.Post(r.Context(), chi.URLParam(r, "postRef"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload comments.Input
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		submission, err := svc.Add(r.Context(), post.ID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, submission)
	}
}
