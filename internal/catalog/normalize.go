package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Extractor turns one raw field value into T. ok is false when the value is unusable
// and the next candidate should be tried.
type Extractor[T any] func(raw any) (value T, ok bool)

// Candidate pairs a source field name with the shape expected under it.
type Candidate[T any] struct {
	Key     string
	Extract Extractor[T]
}

// Candidates builds one candidate per key, all sharing the same shape.
func Candidates[T any](extract Extractor[T], keys ...string) []Candidate[T] {
	out := make([]Candidate[T], 0, len(keys))
	for _, key := range keys {
		out = append(out, Candidate[T]{Key: key, Extract: extract})
	}
	return out
}

// Resolve returns the first usable value across candidates, in order, or fallback.
// It never fails: absent or malformed fields fall through to the default.
func Resolve[T any](fields map[string]any, candidates []Candidate[T], fallback T) T {
	for _, c := range candidates {
		raw, ok := fields[c.Key]
		if !ok || raw == nil {
			continue
		}
		if v, ok := c.Extract(raw); ok {
			return v
		}
	}
	return fallback
}

// Text reads AI wrappers ({state, value, isStale}), arrays (first element) and plain strings.
func Text(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case map[string]any:
		return wrapperValue(v)
	case []any:
		if len(v) == 0 || v[0] == nil {
			return "", false
		}
		switch first := v[0].(type) {
		case map[string]any:
			return wrapperValue(first)
		case string:
			s := strings.TrimSpace(first)
			return s, s != ""
		case float64:
			return strconv.FormatFloat(first, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(first), true
		default:
			s := strings.TrimSpace(fmt.Sprint(first))
			return s, s != ""
		}
	}
	return "", false
}

func wrapperValue(m map[string]any) (string, bool) {
	s, ok := m["value"].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Count reads stock: numbers are truncated, numeric strings parsed.
func Count(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f), true
		}
	}
	return 0, false
}

// Price reads a number or a numeric string.
func Price(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Flag reads checkboxes and the usual truthy spellings.
func Flag(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "sí", "si", "yes", "1", "x":
			return true, true
		case "false", "no", "0", "":
			return false, true
		}
	}
	return false, false
}

// Attachment reads the url of the first Airtable attachment.
func Attachment(raw any) (string, bool) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return "", false
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return "", false
	}
	url, ok := first["url"].(string)
	url = strings.TrimSpace(url)
	return url, ok && url != ""
}

// DirectURL accepts strings that look like absolute or site-relative URLs.
func DirectURL(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "http") || strings.HasPrefix(s, "/") {
		return s, true
	}
	return "", false
}

// FirstOf tries each extractor on the same value.
func FirstOf[T any](extractors ...Extractor[T]) Extractor[T] {
	return func(raw any) (T, bool) {
		for _, ex := range extractors {
			if v, ok := ex(raw); ok {
				return v, true
			}
		}
		var zero T
		return zero, false
	}
}

var (
	marcaFields            = Candidates(Text, "Marca", "MARCA", "marca")
	tipoMarcaFields        = Candidates(Text, "Tipo Marca", "TIPO MARCA", "tipo marca", "Tipo marca")
	generoFields           = Candidates(Text, "Género", "Genero", "GÉNERO", "GENERO", "género", "genero")
	existenciaFields       = Candidates(Count, "Existencia Actual", "existencia actual", "Existencia", "existencia")
	codigoFields           = Candidates(Text, "Código KAME", "CODIGO KAME", "Codigo KAME", "código kame")
	imageFields            = Candidates(FirstOf(Attachment, DirectURL), "Foto", "foto", "Imagen", "imagen", "Image", "image", "FOTO", "IMAGEN")
	descripcionLargaFields = Candidates(Text, "Descripción Larga", "Descripcion Larga", "descripción larga")
	destacadoFields        = Candidates(Flag, "Destacado", "DESTACADO", "destacado")
	descripcionFields      = Candidates(Text, "Descripción")
	precioFields           = Candidates(Price, "Precio1")
	precioOfertaFields     = Candidates(Price, "Precio Oferta")
)

const defaultProductImage = "/images/product-sample-1.jpg"

var fallbackImages = map[string]string{
	"premium":   "/images/product-sample-1.jpg",
	"lujoso":    "/images/product-sample-2.png",
	"exclusivo": "/images/featured-perfume.png",
	"clasico":   "/images/product-sample-3.jpg",
}

// FallbackImage maps a brand or brand type to a bundled placeholder.
func FallbackImage(key string) string {
	if img, ok := fallbackImages[strings.ToLower(strings.TrimSpace(key))]; ok {
		return img
	}
	return defaultProductImage
}
