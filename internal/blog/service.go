package blog

import (
	"context"
	"strings"
	"time"

	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/persibuloi/kamenic/internal/store"
	"github.com/persibuloi/kamenic/pkg/airtable"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/persibuloi/kamenic/pkg/metrics"
)

const (
	storeName        = "blog_posts"
	publishedFormula = `{Estado} = "Publicado"`
	publishedSort    = "Fecha_Publicacion"
)

type ServiceParams struct {
	Airtable catalog.RecordLister
	Table    string
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
	Now      func() time.Time
}

// Listing is the filtered post list.
type Listing struct {
	Posts   []Post  `json:"posts"`
	Total   int     `json:"total"`
	Stale   bool    `json:"stale"`
	Filters Filters `json:"filters"`
}

type CategoriesResult struct {
	Categories []CategoryCount `json:"categories"`
	Stale      bool            `json:"stale"`
}

// Service answers blog reads from the published posts store.
type Service interface {
	List(ctx context.Context, f Filters) (Listing, error)
	Post(ctx context.Context, ref string) (Post, error)
	Categories(ctx context.Context) (CategoriesResult, error)
	Featured(ctx context.Context) (Listing, error)
	Status() store.Report
	Refresh(ctx context.Context) (store.Report, error)
	Store() *store.Store[Post]
}

type service struct {
	posts *store.Store[Post]
}

func NewService(params ServiceParams) (Service, error) {
	table := strings.TrimSpace(params.Table)
	if table == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blog table is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	fetch := func(ctx context.Context) ([]Post, error) {
		if params.Airtable == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "airtable credentials are not configured")
		}
		records, err := params.Airtable.ListRecords(ctx, table, airtable.Query{
			FilterByFormula: publishedFormula,
			Sort:            []airtable.SortField{{Field: publishedSort, Direction: "desc"}},
		})
		if err != nil {
			return nil, err
		}
		return TransformAll(records, now()), nil
	}
	return &service{
		posts: store.New(storeName, fetch, store.Options{Logger: params.Logger, Metrics: params.Metrics, Now: params.Now}),
	}, nil
}

func (s *service) snapshot(ctx context.Context) ([]Post, bool, error) {
	snap := s.posts.Ensure(ctx)
	if snap.Err != nil && len(snap.Items) == 0 {
		return nil, false, snap.Err
	}
	return snap.Items, snap.Stale, nil
}

func (s *service) List(ctx context.Context, f Filters) (Listing, error) {
	posts, stale, err := s.snapshot(ctx)
	if err != nil {
		return Listing{}, err
	}
	out := Apply(posts, f)
	return Listing{Posts: out, Total: len(out), Stale: stale, Filters: f}, nil
}

// Post finds a post by slug, falling back to the record id.
func (s *service) Post(ctx context.Context, ref string) (Post, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Post{}, pkgerrors.New(pkgerrors.CodeValidation, "post slug is required")
	}
	posts, _, err := s.snapshot(ctx)
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == ref {
			return p, nil
		}
	}
	for _, p := range posts {
		if p.ID == ref {
			return p, nil
		}
	}
	return Post{}, pkgerrors.New(pkgerrors.CodeNotFound, "post not found").WithDetails(map[string]any{"slug": ref})
}

func (s *service) Categories(ctx context.Context) (CategoriesResult, error) {
	posts, stale, err := s.snapshot(ctx)
	if err != nil {
		return CategoriesResult{}, err
	}
	return CategoriesResult{Categories: Categories(posts), Stale: stale}, nil
}

func (s *service) Featured(ctx context.Context) (Listing, error) {
	posts, stale, err := s.snapshot(ctx)
	if err != nil {
		return Listing{}, err
	}
	out := Featured(posts)
	return Listing{Posts: out, Total: len(out), Stale: stale, Filters: Filters{Destacados: true}}, nil
}

func (s *service) Status() store.Report {
	return s.posts.Report()
}

func (s *service) Refresh(ctx context.Context) (store.Report, error) {
	err := s.posts.Refresh(ctx)
	return s.posts.Report(), err
}

func (s *service) Store() *store.Store[Post] {
	return s.posts
}
