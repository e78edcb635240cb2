package catalog

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortBy string

const (
	SortDefault   SortBy = "default"
	SortPriceAsc  SortBy = "price-asc"
	SortPriceDesc SortBy = "price-desc"
	SortName      SortBy = "name"
)

// ParseSortBy maps unknown values to SortDefault.
func ParseSortBy(v string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(v))) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	case SortName:
		return SortName
	}
	return SortDefault
}

// PriceRange bounds the effective price, both ends inclusive.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterOptions is the shopper's current catalog view.
type FilterOptions struct {
	Marca           string      `json:"marca,omitempty"`
	TipoMarca       string      `json:"tipoMarca,omitempty"`
	Genero          string      `json:"genero,omitempty"`
	SearchTerm      string      `json:"searchTerm,omitempty"`
	PriceRange      *PriceRange `json:"priceRange,omitempty"`
	SortBy          SortBy      `json:"sortBy,omitempty"`
	ShowOnlyOffers  bool        `json:"showOnlyOffers,omitempty"`
	ShowOnlyInStock bool        `json:"showOnlyInStock,omitempty"`
}

// Result is the pipeline output. Duplicates lists the ids dropped by dedup, once per drop.
type Result struct {
	Products   []Product
	Duplicates []string
}

// Dedup keeps the first occurrence of every id.
func Dedup(products []Product) ([]Product, []string) {
	seen := make(map[string]struct{}, len(products))
	out := make([]Product, 0, len(products))
	var dups []string
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			dups = append(dups, p.ID)
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, dups
}

type stage struct {
	name string
	keep func(Product) bool
}

// stages returns the active filters in their fixed order.
func stages(opts FilterOptions) []stage {
	fold := cases.Fold()
	norm := func(s string) string { return fold.String(strings.TrimSpace(s)) }

	var out []stage
	if opts.ShowOnlyInStock {
		out = append(out, stage{"stock", Product.InStock})
	}
	if want := norm(opts.Marca); want != "" {
		out = append(out, stage{"marca", func(p Product) bool { return norm(p.Marca) == want }})
	}
	if want := norm(opts.TipoMarca); want != "" {
		out = append(out, stage{"tipoMarca", func(p Product) bool { return norm(p.TipoMarca) == want }})
	}
	if want := norm(opts.Genero); want != "" {
		out = append(out, stage{"genero", func(p Product) bool { return norm(p.Genero) == want }})
	}
	if r := opts.PriceRange; r != nil {
		out = append(out, stage{"price", func(p Product) bool {
			price := p.EffectivePrice()
			return price >= r.Min && price <= r.Max
		}})
	}
	if term := norm(opts.SearchTerm); term != "" {
		out = append(out, stage{"search", func(p Product) bool {
			return strings.Contains(norm(p.Descripcion), term) || strings.Contains(norm(p.Marca), term)
		}})
	}
	if opts.ShowOnlyOffers {
		out = append(out, stage{"offers", Product.HasOffer})
	}
	return out
}

// Apply runs dedup, the filters and the sort, in that order. The input is not modified.
func Apply(products []Product, opts FilterOptions) Result {
	list, dups := Dedup(products)
	for _, st := range stages(opts) {
		list = filter(list, st.keep)
	}
	sortProducts(list, opts.SortBy)
	return Result{Products: list, Duplicates: dups}
}

func filter(list []Product, keep func(Product) bool) []Product {
	out := list[:0:0]
	for _, p := range list {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func sortProducts(list []Product, by SortBy) {
	switch by {
	case SortPriceAsc:
		slices.SortStableFunc(list, func(a, b Product) int {
			return cmp.Compare(a.EffectivePrice(), b.EffectivePrice())
		})
	case SortPriceDesc:
		slices.SortStableFunc(list, func(a, b Product) int {
			return cmp.Compare(b.EffectivePrice(), a.EffectivePrice())
		})
	case SortName:
		col := collate.New(language.Spanish)
		slices.SortStableFunc(list, func(a, b Product) int {
			return col.CompareString(a.Descripcion, b.Descripcion)
		})
	}
}
