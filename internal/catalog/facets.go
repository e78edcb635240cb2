package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const highlightCount = 4

// Facets describes the filter choices available over a product list.
type Facets struct {
	Brands     []string `json:"brands"`
	TipoMarcas []string `json:"tipoMarcas"`
	Generos    []string `json:"generos"`
	PriceMin   float64  `json:"priceMin"`
	PriceMax   float64  `json:"priceMax"`
	Total      int      `json:"total"`
	InStock    int      `json:"inStock"`
	OutOfStock int      `json:"outOfStock"`
	Offers     int      `json:"offers"`
}

// AvailableBrands lists distinct non-empty brands, title-cased and sorted.
func AvailableBrands(products []Product) []string {
	return distinct(products, func(p Product) string { return p.Marca }, true)
}

// BuildFacets summarizes an already deduplicated list.
func BuildFacets(products []Product) Facets {
	f := Facets{
		Brands:     AvailableBrands(products),
		TipoMarcas: distinct(products, func(p Product) string { return p.TipoMarca }, false),
		Generos:    distinct(products, func(p Product) string { return p.Genero }, false),
		Total:      len(products),
	}
	var lo, hi decimal.Decimal
	for i, p := range products {
		price := p.EffectivePriceDecimal()
		if i == 0 || price.LessThan(lo) {
			lo = price
		}
		if i == 0 || price.GreaterThan(hi) {
			hi = price
		}
		if p.InStock() {
			f.InStock++
		} else {
			f.OutOfStock++
		}
		if p.HasOffer() {
			f.Offers++
		}
	}
	f.PriceMin = lo.Floor().InexactFloat64()
	f.PriceMax = hi.Ceil().InexactFloat64()
	return f
}

// distinct collects unique values compared case-insensitively. The first spelling wins
// unless title casing is requested.
func distinct(products []Product, field func(Product) string, title bool) []string {
	fold := cases.Fold()
	titler := cases.Title(language.Spanish)
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		v := strings.TrimSpace(field(p))
		if v == "" {
			continue
		}
		key := fold.String(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if title {
			v = titler.String(v)
		}
		out = append(out, v)
	}
	collate.New(language.Spanish).SortStrings(out)
	return out
}

// Featured returns the promoted products: every in-stock product flagged Destacado, or
// the first in-stock product carrying fallbackCode when none is flagged.
func Featured(products []Product, fallbackCode string) []Product {
	var out []Product
	for _, p := range products {
		if p.Destacado && p.InStock() {
			out = append(out, p)
		}
	}
	if len(out) > 0 || fallbackCode == "" {
		return out
	}
	for _, p := range products {
		if p.CodigoKame == fallbackCode && p.InStock() {
			return []Product{p}
		}
	}
	return nil
}

// Highlights picks the home page selection: the first four offers, or the first four
// products when there are fewer offers than that.
func Highlights(products []Product) []Product {
	var offers []Product
	for _, p := range products {
		if p.HasOffer() {
			offers = append(offers, p)
			if len(offers) == highlightCount {
				return offers
			}
		}
	}
	return products[:min(len(products), highlightCount)]
}
