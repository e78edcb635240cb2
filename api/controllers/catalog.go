package controllers

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/persibuloi/kamenic/api/responses"
	"github.com/persibuloi/kamenic/api/validators"
	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/persibuloi/kamenic/internal/navigation"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/persibuloi/kamenic/pkg/pagination"
)

const maxFilterLen = 120

// CatalogProducts serves one load-more window of the filtered catalog.
func CatalogProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		opts, err := parseFilterOptions(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "pageSize", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.List(r.Context(), opts, pagination.Params{Page: page, PageSize: pageSize})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func parseFilterOptions(r *http.Request) (catalog.FilterOptions, error) {
	opts := catalog.FilterOptions{
		Marca:      validators.QueryString(r, "marca", maxFilterLen),
		TipoMarca:  validators.QueryString(r, "tipoMarca", maxFilterLen),
		Genero:     validators.QueryString(r, "genero", maxFilterLen),
		SearchTerm: validators.QueryString(r, "search", maxFilterLen),
		SortBy:     catalog.ParseSortBy(r.URL.Query().Get("sortBy")),
	}
	if opts.SearchTerm == "" {
		opts.SearchTerm = validators.SanitizeString(navigation.CatalogSearch(r.URL.Query().Get("hash")), maxFilterLen)
	}

	var err error
	if opts.ShowOnlyOffers, err = validators.ParseQueryBool(r, "offers"); err != nil {
		return opts, err
	}
	if opts.ShowOnlyInStock, err = validators.ParseQueryBool(r, "inStock"); err != nil {
		return opts, err
	}

	minPrice, err := validators.ParseQueryFloat(r, "priceMin")
	if err != nil {
		return opts, err
	}
	maxPrice, err := validators.ParseQueryFloat(r, "priceMax")
	if err != nil {
		return opts, err
	}
	if minPrice != nil || maxPrice != nil {
		bounds := catalog.PriceRange{Min: 0, Max: math.MaxFloat64}
		if minPrice != nil {
			bounds.Min = *minPrice
		}
		if maxPrice != nil {
			bounds.Max = *maxPrice
		}
		if bounds.Min > bounds.Max {
			return opts, pkgerrors.New(pkgerrors.CodeValidation, "priceMin must not exceed priceMax").
				WithDetails(map[string]any{"priceMin": bounds.Min, "priceMax": bounds.Max})
		}
		opts.PriceRange = &bounds
	}
	return opts, nil
}

func CatalogProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		product, err := svc.Product(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.NewProductView(product))
	}
}

func CatalogFacets(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		facets, err := svc.Facets(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, facets)
	}
}

func CatalogFeatured(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		selection, err := svc.Featured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, selection)
	}
}

func CatalogHighlights(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		selection, err := svc.Highlights(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, selection)
	}
}
