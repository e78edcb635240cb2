package catalog

import "github.com/persibuloi/kamenic/pkg/airtable"

// Transform maps one product record. It is pure and tolerates any field shape.
func Transform(rec airtable.Record) Product {
	f := rec.Fields
	p := Product{
		ID:               rec.ID,
		Descripcion:      Resolve(f, descripcionFields, ""),
		Precio1:          Resolve(f, precioFields, 0),
		Marca:            Resolve(f, marcaFields, ""),
		TipoMarca:        Resolve(f, tipoMarcaFields, ""),
		Genero:           Resolve(f, generoFields, ""),
		CodigoKame:       Resolve(f, codigoFields, ""),
		ExistenciaActual: Resolve(f, existenciaFields, 0),
		Destacado:        Resolve(f, destacadoFields, false),
	}
	// a zero offer is treated as no offer
	if offer := Resolve(f, precioOfertaFields, 0); offer != 0 {
		p.PrecioOferta = &offer
	}
	if long := Resolve(f, descripcionLargaFields, ""); long != "" {
		p.DescripcionLarga = &long
	}

	p.Imagen = Resolve(f, imageFields, "")
	if p.Imagen == "" {
		key := p.TipoMarca
		if key == "" {
			key = p.Marca
		}
		p.Imagen = FallbackImage(key)
	}
	return p
}

// TransformAll maps records in order.
func TransformAll(records []airtable.Record) []Product {
	out := make([]Product, 0, len(records))
	for _, rec := range records {
		out = append(out, Transform(rec))
	}
	return out
}
