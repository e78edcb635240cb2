package controllers

import (
	"net/http"

	"github.com/persibuloi/kamenic/api/responses"
	"github.com/persibuloi/kamenic/internal/navigation"
)

// NavigationResolve maps a storefront hash (?hash=#catalog?search=creed) to its page.
func NavigationResolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := navigation.Parse(r.URL.Query().Get("hash"))
		responses.WriteSuccess(w, map[string]any{
			"route": route,
			"hash":  route.Hash(),
		})
	}
}
