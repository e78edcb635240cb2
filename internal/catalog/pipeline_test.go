package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 { return &v }

func sampleCatalog() []Product {
	return []Product{
		{ID: "1", Descripcion: "Sauvage", Marca: "Dior", TipoMarca: "Lujoso", Genero: "Hombre", Precio1: 120, PrecioOferta: price(99), ExistenciaActual: 3},
		{ID: "2", Descripcion: "Ángel", Marca: "Mugler", TipoMarca: "Premium", Genero: "Mujer", Precio1: 90, ExistenciaActual: 0},
		{ID: "3", Descripcion: "Bleu", Marca: "Chanel", TipoMarca: "Lujoso", Genero: "Hombre", Precio1: 150, ExistenciaActual: 5},
		{ID: "4", Descripcion: "Club de Nuit", Marca: "Armaf", TipoMarca: "Clasico", Genero: "hombre", Precio1: 45, PrecioOferta: price(39), ExistenciaActual: 10},
		{ID: "5", Descripcion: "Acqua di Gio", Marca: "dior", TipoMarca: "Premium", Genero: "Hombre", Precio1: 99, ExistenciaActual: 1},
	}
}

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	raw := []Product{
		{ID: "dup", Descripcion: "first"},
		{ID: "other"},
		{ID: "dup", Descripcion: "second"},
	}
	out, dups := Dedup(raw)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Descripcion)
	assert.Equal(t, []string{"dup"}, dups)

	again, moreDups := Dedup(out)
	assert.Equal(t, out, again)
	assert.Empty(t, moreDups)
}

func TestApplyOnlyOffers(t *testing.T) {
	var products []Product
	for i := range 10 {
		p := Product{ID: fmt.Sprintf("p%d", i), Precio1: 100}
		if i%3 == 0 && i < 9 {
			p.PrecioOferta = price(70)
		} else if i == 9 {
			p.PrecioOferta = price(100)
		}
		products = append(products, p)
	}

	res := Apply(products, FilterOptions{ShowOnlyOffers: true})
	require.Len(t, res.Products, 3)
	for _, p := range res.Products {
		assert.True(t, p.PrecioOferta != nil && *p.PrecioOferta < p.Precio1)
	}
}

func TestApplyExactCaseInsensitiveMatches(t *testing.T) {
	res := Apply(sampleCatalog(), FilterOptions{Marca: " DIOR "})
	assert.Equal(t, []string{"1", "5"}, ids(res.Products))

	res = Apply(sampleCatalog(), FilterOptions{Genero: "HOMBRE", TipoMarca: "lujoso"})
	assert.Equal(t, []string{"1", "3"}, ids(res.Products))

	res = Apply(sampleCatalog(), FilterOptions{Marca: "Dio"})
	assert.Empty(t, res.Products, "brand filter is an exact match, not a substring")
}

func TestApplySearchMatchesDescripcionOrMarca(t *testing.T) {
	res := Apply(sampleCatalog(), FilterOptions{SearchTerm: "CHAN"})
	assert.Equal(t, []string{"3"}, ids(res.Products))

	res = Apply(sampleCatalog(), FilterOptions{SearchTerm: "nuit"})
	assert.Equal(t, []string{"4"}, ids(res.Products))
}

func TestApplyPriceRangeUsesEffectivePriceInclusive(t *testing.T) {
	res := Apply(sampleCatalog(), FilterOptions{PriceRange: &PriceRange{Min: 39, Max: 99}})
	assert.Equal(t, []string{"1", "2", "4", "5"}, ids(res.Products))
}

func TestApplyInStock(t *testing.T) {
	res := Apply(sampleCatalog(), FilterOptions{ShowOnlyInStock: true})
	assert.NotContains(t, ids(res.Products), "2")
	assert.Len(t, res.Products, 4)
}

func TestApplySorts(t *testing.T) {
	res := Apply(sampleCatalog(), FilterOptions{SortBy: SortPriceAsc})
	assert.Equal(t, []string{"4", "2", "1", "5", "3"}, ids(res.Products))

	res = Apply(sampleCatalog(), FilterOptions{SortBy: SortPriceDesc})
	assert.Equal(t, []string{"3", "1", "5", "2", "4"}, ids(res.Products))

	res = Apply(sampleCatalog(), FilterOptions{SortBy: SortName})
	assert.Equal(t, []string{"5", "2", "3", "4", "1"}, ids(res.Products), "accented names sort with their base letter")

	res = Apply(sampleCatalog(), FilterOptions{SortBy: SortDefault})
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(res.Products))
}

func TestApplySortIsStable(t *testing.T) {
	products := []Product{
		{ID: "a", Precio1: 10},
		{ID: "b", Precio1: 5},
		{ID: "c", Precio1: 10},
		{ID: "d", Precio1: 10},
	}
	res := Apply(products, FilterOptions{SortBy: SortPriceDesc})
	assert.Equal(t, []string{"a", "c", "d", "b"}, ids(res.Products))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	products := sampleCatalog()
	Apply(products, FilterOptions{SortBy: SortPriceAsc})
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(products))
}

func TestFilterStagesNeverGrowTheList(t *testing.T) {
	opts := FilterOptions{
		ShowOnlyInStock: true,
		Marca:           "dior",
		TipoMarca:       "premium",
		Genero:          "hombre",
		PriceRange:      &PriceRange{Min: 0, Max: 1000},
		SearchTerm:      "a",
		ShowOnlyOffers:  true,
	}
	list, _ := Dedup(append(sampleCatalog(), sampleCatalog()...))
	for _, st := range stages(opts) {
		next := filter(list, st.keep)
		if len(next) > len(list) {
			t.Fatalf("stage %s grew the list from %d to %d", st.name, len(list), len(next))
		}
		list = next
	}
}

func TestStagesFollowFixedOrder(t *testing.T) {
	opts := FilterOptions{
		ShowOnlyInStock: true,
		Marca:           "x",
		TipoMarca:       "x",
		Genero:          "x",
		PriceRange:      &PriceRange{},
		SearchTerm:      "x",
		ShowOnlyOffers:  true,
	}
	var names []string
	for _, st := range stages(opts) {
		names = append(names, st.name)
	}
	assert.Equal(t, []string{"stock", "marca", "tipoMarca", "genero", "price", "search", "offers"}, names)
}

func TestParseSortBy(t *testing.T) {
	assert.Equal(t, SortPriceAsc, ParseSortBy("PRICE-ASC"))
	assert.Equal(t, SortName, ParseSortBy("name"))
	assert.Equal(t, SortDefault, ParseSortBy("rating"))
}
