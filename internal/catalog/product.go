package catalog

import (
	"math"

	"github.com/shopspring/decimal"
)

// Product is the canonical catalog entry built from one Airtable record.
type Product struct {
	ID               string   `json:"id"`
	Descripcion      string   `json:"descripcion"`
	DescripcionLarga *string  `json:"descripcionLarga,omitempty"`
	Precio1          float64  `json:"precio1"`
	PrecioOferta     *float64 `json:"precioOferta,omitempty"`
	Marca            string   `json:"marca"`
	TipoMarca        string   `json:"tipoMarca"`
	Genero           string   `json:"genero"`
	CodigoKame       string   `json:"codigoKame"`
	Imagen           string   `json:"imagen"`
	ExistenciaActual int      `json:"existenciaActual"`
	Destacado        bool     `json:"destacado"`
}

// HasOffer reports whether PrecioOferta is a real discount over Precio1.
func (p Product) HasOffer() bool {
	return p.PrecioOferta != nil && *p.PrecioOferta < p.Precio1
}

// EffectivePrice is the offer price when HasOffer, else the base price.
func (p Product) EffectivePrice() float64 {
	if p.HasOffer() {
		return *p.PrecioOferta
	}
	return p.Precio1
}

// EffectivePriceDecimal is EffectivePrice for money arithmetic.
func (p Product) EffectivePriceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(p.EffectivePrice())
}

func (p Product) InStock() bool {
	return p.ExistenciaActual > 0
}

// DiscountPercent is the rounded saving over Precio1, 0 without an offer.
func (p Product) DiscountPercent() int {
	if !p.HasOffer() || p.Precio1 <= 0 {
		return 0
	}
	return int(math.Round((p.Precio1 - *p.PrecioOferta) / p.Precio1 * 100))
}

// ProductView adds the derived pricing fields clients render.
type ProductView struct {
	Product
	HasOffer        bool    `json:"hasOffer"`
	EffectivePrice  float64 `json:"effectivePrice"`
	DiscountPercent int     `json:"discountPercent"`
	InStock         bool    `json:"inStock"`
}

func NewProductView(p Product) ProductView {
	return ProductView{
		Product:         p,
		HasOffer:        p.HasOffer(),
		EffectivePrice:  p.EffectivePrice(),
		DiscountPercent: p.DiscountPercent(),
		InStock:         p.InStock(),
	}
}

func NewProductViews(products []Product) []ProductView {
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductView(p))
	}
	return out
}
