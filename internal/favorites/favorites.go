package favorites

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/persibuloi/kamenic/internal/session"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
)

// List is a session's favorite products, unique by id, in the order they were added.
type List struct {
	products []catalog.Product
}

// Decode rebuilds a list from its stored form; malformed documents yield an empty list.
func Decode(raw []byte) *List {
	var products []catalog.Product
	if len(raw) == 0 || json.Unmarshal(raw, &products) != nil {
		return &List{}
	}
	l := &List{}
	for _, p := range products {
		if p.ID != "" {
			l.Add(p)
		}
	}
	return l
}

func (l *List) Encode() ([]byte, error) {
	products := l.products
	if products == nil {
		products = []catalog.Product{}
	}
	return json.Marshal(products)
}

// Add reports false when the product is already a favorite.
func (l *List) Add(p catalog.Product) bool {
	if l.Contains(p.ID) {
		return false
	}
	l.products = append(l.products, p)
	return true
}

// Remove reports whether anything was removed.
func (l *List) Remove(id string) bool {
	for i, p := range l.products {
		if p.ID == id {
			l.products = append(l.products[:i], l.products[i+1:]...)
			return true
		}
	}
	return false
}

// Toggle adds or removes p and reports whether it is a favorite afterwards.
func (l *List) Toggle(p catalog.Product) bool {
	if l.Remove(p.ID) {
		return false
	}
	l.products = append(l.products, p)
	return true
}

func (l *List) Contains(id string) bool {
	for _, p := range l.products {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (l *List) Count() int {
	return len(l.products)
}

func (l *List) Clear() {
	l.products = nil
}

func (l *List) Products() []catalog.Product {
	return append([]catalog.Product(nil), l.products...)
}

// Storage is the session document surface backed by Redis.
type Storage interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FavoritesKey(sessionID string) string
}

// ProductFinder resolves product ids against the catalog.
type ProductFinder interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

// Summary is the favorites list as returned to clients.
type Summary struct {
	Products []catalog.ProductView `json:"products"`
	Count    int                   `json:"count"`
}

// Service exposes the per-session favorites list.
type Service interface {
	Get(ctx context.Context, sessionID string) (Summary, error)
	Add(ctx context.Context, sessionID, productID string) (Summary, error)
	Toggle(ctx context.Context, sessionID, productID string) (bool, Summary, error)
	Contains(ctx context.Context, sessionID, productID string) (bool, error)
	Remove(ctx context.Context, sessionID, productID string) (Summary, error)
	Clear(ctx context.Context, sessionID string) (Summary, error)
}

type ServiceParams struct {
	Storage  Storage
	Products ProductFinder
	TTL      time.Duration
}

type service struct {
	storage  Storage
	products ProductFinder
	ttl      time.Duration
	locks    session.Locker
}

func NewService(params ServiceParams) (Service, error) {
	if params.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites storage is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product finder is required")
	}
	return &service{storage: params.Storage, products: params.Products, ttl: params.TTL}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (Summary, error) {
	list, err := s.load(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	return summarize(list), nil
}

func (s *service) Add(ctx context.Context, sessionID, productID string) (Summary, error) {
	product, err := s.products.Product(ctx, strings.TrimSpace(productID))
	if err != nil {
		return Summary{}, err
	}
	list, err := s.mutate(ctx, sessionID, func(l *List) bool { return l.Add(product) })
	if err != nil {
		return Summary{}, err
	}
	return summarize(list), nil
}

// Toggle only consults the catalog when the product is being added.
func (s *service) Toggle(ctx context.Context, sessionID, productID string) (bool, Summary, error) {
	productID = strings.TrimSpace(productID)
	var now bool
	list, err := s.mutateWith(ctx, sessionID, func(ctx context.Context, l *List) (bool, error) {
		if l.Remove(productID) {
			return true, nil
		}
		product, err := s.products.Product(ctx, productID)
		if err != nil {
			return false, err
		}
		now = l.Add(product)
		return now, nil
	})
	if err != nil {
		return false, Summary{}, err
	}
	return now, summarize(list), nil
}

func (s *service) Contains(ctx context.Context, sessionID, productID string) (bool, error) {
	list, err := s.load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return list.Contains(strings.TrimSpace(productID)), nil
}

func (s *service) Remove(ctx context.Context, sessionID, productID string) (Summary, error) {
	list, err := s.mutate(ctx, sessionID, func(l *List) bool { return l.Remove(strings.TrimSpace(productID)) })
	if err != nil {
		return Summary{}, err
	}
	return summarize(list), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) (Summary, error) {
	list, err := s.mutate(ctx, sessionID, func(l *List) bool {
		l.Clear()
		return true
	})
	if err != nil {
		return Summary{}, err
	}
	return summarize(list), nil
}

func (s *service) mutate(ctx context.Context, sessionID string, fn func(*List) bool) (*List, error) {
	return s.mutateWith(ctx, sessionID, func(_ context.Context, l *List) (bool, error) { return fn(l), nil })
}

func (s *service) mutateWith(ctx context.Context, sessionID string, fn func(context.Context, *List) (bool, error)) (*List, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	list, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	changed, err := fn(ctx, list)
	if err != nil || !changed {
		return list, err
	}
	payload, err := list.Encode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode favorites")
	}
	if err := s.storage.Set(ctx, s.storage.FavoritesKey(sessionID), string(payload), s.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save favorites")
	}
	return list, nil
}

func (s *service) load(ctx context.Context, sessionID string) (*List, error) {
	if !session.Valid(sessionID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	raw, ok, err := s.storage.Lookup(ctx, s.storage.FavoritesKey(sessionID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load favorites")
	}
	if !ok {
		return &List{}, nil
	}
	return Decode([]byte(raw)), nil
}

func summarize(l *List) Summary {
	return Summary{Products: catalog.NewProductViews(l.Products()), Count: l.Count()}
}
