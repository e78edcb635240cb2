package blog

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Filters narrows the published posts. Empty fields do not filter.
type Filters struct {
	Categoria  string `json:"categoria,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Autor      string `json:"autor,omitempty"`
	SearchTerm string `json:"searchTerm,omitempty"`
	Destacados bool   `json:"destacados,omitempty"`
}

// CategoryCount is one entry of the category list, in first-seen order.
type CategoryCount struct {
	Categoria string `json:"categoria"`
	Count     int    `json:"count"`
}

// Apply returns the posts matching every set filter, keeping source order.
func Apply(posts []Post, f Filters) []Post {
	fold := cases.Fold()
	term := fold.String(strings.TrimSpace(f.SearchTerm))
	tag := fold.String(strings.TrimSpace(f.Tag))
	autor := fold.String(strings.TrimSpace(f.Autor))
	categoria := strings.TrimSpace(f.Categoria)

	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if categoria != "" && p.Categoria != categoria {
			continue
		}
		if autor != "" && fold.String(p.Autor) != autor {
			continue
		}
		if tag != "" && !slices.ContainsFunc(p.Tags, func(t string) bool { return fold.String(t) == tag }) {
			continue
		}
		if f.Destacados && !p.Destacado {
			continue
		}
		if term != "" && !matches(fold, p, term) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(fold cases.Caser, p Post, term string) bool {
	for _, field := range [...]string{p.Titulo, p.Resumen, p.Contenido} {
		if strings.Contains(fold.String(field), term) {
			return true
		}
	}
	return slices.ContainsFunc(p.Tags, func(t string) bool {
		return strings.Contains(fold.String(t), term)
	})
}

// Categories counts posts per category.
func Categories(posts []Post) []CategoryCount {
	index := make(map[string]int)
	var out []CategoryCount
	for _, p := range posts {
		if i, ok := index[p.Categoria]; ok {
			out[i].Count++
			continue
		}
		index[p.Categoria] = len(out)
		out = append(out, CategoryCount{Categoria: p.Categoria, Count: 1})
	}
	return out
}

// Featured returns up to three highlighted posts.
func Featured(posts []Post) []Post {
	out := make([]Post, 0, 3)
	for _, p := range posts {
		if !p.Destacado {
			continue
		}
		out = append(out, p)
		if len(out) == 3 {
			break
		}
	}
	return out
}
