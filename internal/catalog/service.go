package catalog

import (
	"context"
	"strings"

	"github.com/persibuloi/kamenic/internal/store"
	"github.com/persibuloi/kamenic/pkg/airtable"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/persibuloi/kamenic/pkg/metrics"
	"github.com/persibuloi/kamenic/pkg/pagination"
)

const storeName = "products"

// RecordLister is the Airtable read surface the catalog needs.
type RecordLister interface {
	ListRecords(ctx context.Context, table string, q airtable.Query) ([]airtable.Record, error)
}

// ServiceParams groups dependencies for the catalog service. A nil Airtable leaves the
// catalog in a configuration error without affecting other stores.
type ServiceParams struct {
	Airtable     RecordLister
	Table        string
	FallbackCode string
	Logger       *logger.Logger
	Metrics      *metrics.StoreMetrics
}

// Listing is one "load more" window over the filtered catalog.
type Listing struct {
	Products []ProductView `json:"products"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	HasMore  bool          `json:"hasMore"`
	Stale    bool          `json:"stale"`
	Filters  FilterOptions `json:"filters"`
}

// Selection is a curated product subset.
type Selection struct {
	Products []ProductView `json:"products"`
	Stale    bool          `json:"stale"`
}

type FacetsResult struct {
	Facets
	Stale bool `json:"stale"`
}

// Service answers catalog reads from the products store.
type Service interface {
	List(ctx context.Context, opts FilterOptions, page pagination.Params) (Listing, error)
	Product(ctx context.Context, id string) (Product, error)
	Facets(ctx context.Context) (FacetsResult, error)
	Featured(ctx context.Context) (Selection, error)
	Highlights(ctx context.Context) (Selection, error)
	Status() store.Report
	Refresh(ctx context.Context) (store.Report, error)
	Store() *store.Store[Product]
}

type service struct {
	products     *store.Store[Product]
	fallbackCode string
}

// NewService builds the catalog service and its idle products store.
func NewService(params ServiceParams) (Service, error) {
	table := strings.TrimSpace(params.Table)
	if table == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "products table is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	fetch := func(ctx context.Context) ([]Product, error) {
		if params.Airtable == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "airtable credentials are not configured")
		}
		records, err := params.Airtable.ListRecords(ctx, table, airtable.Query{})
		if err != nil {
			return nil, err
		}
		products := TransformAll(records)
		if _, dups := Dedup(products); len(dups) > 0 {
			logCtx := logg.WithFields(logg.WithStore(ctx, storeName), map[string]any{
				"duplicates":    len(dups),
				"duplicate_ids": dups,
			})
			logg.Warn(logCtx, "catalog.duplicates")
		}
		return products, nil
	}
	return &service{
		products:     store.New(storeName, fetch, store.Options{Logger: logg, Metrics: params.Metrics}),
		fallbackCode: strings.TrimSpace(params.FallbackCode),
	}, nil
}

// snapshot returns the deduplicated last known good list. It fails only when the store
// has never produced items.
func (s *service) snapshot(ctx context.Context) ([]Product, bool, error) {
	snap := s.products.Ensure(ctx)
	if snap.Err != nil && len(snap.Items) == 0 {
		return nil, false, snap.Err
	}
	items, _ := Dedup(snap.Items)
	return items, snap.Stale, nil
}

func (s *service) List(ctx context.Context, opts FilterOptions, page pagination.Params) (Listing, error) {
	items, stale, err := s.snapshot(ctx)
	if err != nil {
		return Listing{}, err
	}
	if opts.SortBy == "" {
		opts.SortBy = SortDefault
	}
	result := Apply(items, opts)
	page = pagination.Normalize(page)
	window, more := pagination.Window(result.Products, page)
	return Listing{
		Products: NewProductViews(window),
		Total:    len(result.Products),
		Page:     page.Page,
		PageSize: page.PageSize,
		HasMore:  more,
		Stale:    stale,
		Filters:  opts,
	}, nil
}

func (s *service) Product(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	items, _, err := s.snapshot(ctx)
	if err != nil {
		return Product{}, err
	}
	for _, p := range items {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"productId": id})
}

func (s *service) Facets(ctx context.Context) (FacetsResult, error) {
	items, stale, err := s.snapshot(ctx)
	if err != nil {
		return FacetsResult{}, err
	}
	return FacetsResult{Facets: BuildFacets(items), Stale: stale}, nil
}

func (s *service) Featured(ctx context.Context) (Selection, error) {
	items, stale, err := s.snapshot(ctx)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Products: NewProductViews(Featured(items, s.fallbackCode)), Stale: stale}, nil
}

func (s *service) Highlights(ctx context.Context) (Selection, error) {
	items, stale, err := s.snapshot(ctx)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Products: NewProductViews(Highlights(items)), Stale: stale}, nil
}

func (s *service) Status() store.Report {
	return s.products.Report()
}

// Refresh refetches the catalog. The report is returned even when the refetch failed.
func (s *service) Refresh(ctx context.Context) (store.Report, error) {
	err := s.products.Refresh(ctx)
	return s.products.Report(), err
}

func (s *service) Store() *store.Store[Product] {
	return s.products
}
