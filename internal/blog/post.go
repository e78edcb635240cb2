package blog

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/persibuloi/kamenic/pkg/airtable"
)

const (
	CategoriaResenas    = "Reseñas"
	CategoriaGuias      = "Guías"
	CategoriaTendencias = "Tendencias"
	CategoriaConsejos   = "Consejos"

	EstadoBorrador   = "Borrador"
	EstadoPublicado  = "Publicado"
	EstadoProgramado = "Programado"

	DefaultImage = "/images/blog-default.jpg"
	DefaultAutor = "KAME Perfumes"

	dateLayout = "2006-01-02"
)

var (
	categorias = []string{CategoriaResenas, CategoriaGuias, CategoriaTendencias, CategoriaConsejos}
	estados    = []string{EstadoBorrador, EstadoPublicado, EstadoProgramado}
)

// Post is one published blog entry.
type Post struct {
	ID               string   `json:"id"`
	Titulo           string   `json:"titulo"`
	Slug             string   `json:"slug"`
	Contenido        string   `json:"contenido"`
	Resumen          string   `json:"resumen"`
	ImagenPrincipal  string   `json:"imagenPrincipal"`
	Categoria        string   `json:"categoria"`
	Tags             []string `json:"tags"`
	Autor            string   `json:"autor"`
	FechaPublicacion string   `json:"fechaPublicacion"`
	Estado           string   `json:"estado"`
	SEOTitle         string   `json:"seoTitle"`
	SEODescription   string   `json:"seoDescription"`
	Destacado        bool     `json:"destacado"`
	Vistas           int      `json:"vistas"`
}

// plainString accepts non-empty strings only; blog fields are never wrapped.
func plainString(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func rawString(raw any) (string, bool) {
	s, ok := raw.(string)
	return s, ok && s != ""
}

func oneOf(allowed []string) catalog.Extractor[string] {
	return func(raw any) (string, bool) {
		s, ok := plainString(raw)
		if !ok || !slices.Contains(allowed, s) {
			return "", false
		}
		return s, true
	}
}

func tagList(raw any) ([]string, bool) {
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	tags := make([]string, 0, len(list))
	for _, v := range list {
		if v == nil {
			continue
		}
		if tag := strings.TrimSpace(fmt.Sprint(v)); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, true
}

func checkbox(raw any) (bool, bool) {
	b, ok := raw.(bool)
	return b, ok
}

func views(raw any) (int, bool) {
	f, ok := raw.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

var (
	tituloFields         = catalog.Candidates(plainString, "Titulo", "TITULO", "titulo", "Título")
	slugFields           = catalog.Candidates(plainString, "Slug", "SLUG", "slug")
	contenidoFields      = catalog.Candidates(plainString, "Contenido", "CONTENIDO", "contenido")
	resumenFields        = catalog.Candidates(plainString, "Resumen", "RESUMEN", "resumen")
	imagenFields         = catalog.Candidates(catalog.Attachment, "Imagen_Principal", "IMAGEN_PRINCIPAL", "imagen_principal", "Imagen Principal")
	categoriaFields      = catalog.Candidates(oneOf(categorias), "Categoria", "CATEGORIA", "categoria", "Categoría")
	tagsFields           = catalog.Candidates(tagList, "Tags", "TAGS", "tags")
	autorFields          = catalog.Candidates(plainString, "Autor", "AUTOR", "autor")
	fechaFields          = catalog.Candidates(rawString, "Fecha_Publicacion", "FECHA_PUBLICACION", "fecha_publicacion", "Fecha Publicacion")
	estadoFields         = catalog.Candidates(oneOf(estados), "Estado", "ESTADO", "estado")
	seoTitleFields       = catalog.Candidates(plainString, "SEO_Title", "SEO_TITLE", "seo_title", "SEO Title")
	seoDescriptionFields = catalog.Candidates(plainString, "SEO_Description", "SEO_DESCRIPTION", "seo_description", "SEO Description")
	destacadoFields      = catalog.Candidates(checkbox, "Destacado", "DESTACADO", "destacado")
	vistasFields         = catalog.Candidates(views, "Vistas", "VISTAS", "vistas")
)

// Transform maps one Blog_Posts record. now supplies the publication date default.
func Transform(rec airtable.Record, now time.Time) Post {
	f := rec.Fields
	return Post{
		ID:               rec.ID,
		Titulo:           catalog.Resolve(f, tituloFields, ""),
		Slug:             catalog.Resolve(f, slugFields, ""),
		Contenido:        catalog.Resolve(f, contenidoFields, ""),
		Resumen:          catalog.Resolve(f, resumenFields, ""),
		ImagenPrincipal:  catalog.Resolve(f, imagenFields, DefaultImage),
		Categoria:        catalog.Resolve(f, categoriaFields, CategoriaGuias),
		Tags:             catalog.Resolve(f, tagsFields, []string{}),
		Autor:            catalog.Resolve(f, autorFields, DefaultAutor),
		FechaPublicacion: catalog.Resolve(f, fechaFields, now.Format(dateLayout)),
		Estado:           catalog.Resolve(f, estadoFields, EstadoBorrador),
		SEOTitle:         catalog.Resolve(f, seoTitleFields, ""),
		SEODescription:   catalog.Resolve(f, seoDescriptionFields, ""),
		Destacado:        catalog.Resolve(f, destacadoFields, false),
		Vistas:           catalog.Resolve(f, vistasFields, 0),
	}
}

func TransformAll(records []airtable.Record, now time.Time) []Post {
	out := make([]Post, 0, len(records))
	for _, rec := range records {
		out = append(out, Transform(rec, now))
	}
	return out
}
