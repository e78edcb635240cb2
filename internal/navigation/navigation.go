package navigation

import (
	"net/url"
	"strings"
)

const (
	PageHome    = "home"
	PageCatalog = "catalog"
	PageContact = "contact"
	PageBlog    = "blog"
)

// Route is a parsed storefront hash such as "#catalog?search=creed".
type Route struct {
	Page   string `json:"page"`
	Search string `json:"search,omitempty"`
}

// Parse maps a hash to a page. Unknown pages, "featured" and an empty hash all land on
// home. The search parameter is only meaningful for the catalog.
func Parse(hash string) Route {
	hash = strings.TrimPrefix(strings.TrimSpace(hash), "#")
	page, rawQuery, _ := strings.Cut(hash, "?")

	route := Route{Page: PageHome}
	switch page {
	case PageCatalog, PageContact, PageBlog:
		route.Page = page
	}
	if rawQuery != "" {
		if values, err := url.ParseQuery(rawQuery); err == nil {
			route.Search = strings.TrimSpace(values.Get("search"))
		}
	}
	return route
}

// CatalogSearch returns the search term a hash seeds into the catalog, if any.
func CatalogSearch(hash string) string {
	r := Parse(hash)
	if r.Page != PageCatalog {
		return ""
	}
	return r.Search
}

// Hash renders a route back to its hash form.
func (r Route) Hash() string {
	page := r.Page
	if page == "" {
		page = PageHome
	}
	if r.Search == "" {
		return "#" + page
	}
	return "#" + page + "?" + url.Values{"search": {r.Search}}.Encode()
}
