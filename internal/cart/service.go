package cart

import (
	"context"
	"strings"
	"time"

	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/persibuloi/kamenic/internal/session"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/shopspring/decimal"
)

// Shipping is the free shipping progress shown with the cart.
type Shipping struct {
	Threshold float64 `json:"freeShippingThreshold"`
	Remaining float64 `json:"remainingForFreeShipping"`
	Qualifies bool    `json:"qualifiesForFreeShipping"`
	Currency  string  `json:"currency"`
}

// ItemView is a cart line with its priced subtotal.
type ItemView struct {
	Product  catalog.ProductView `json:"product"`
	Quantity int                 `json:"quantity"`
	Subtotal float64             `json:"subtotal"`
}

// Summary is the cart as returned to clients.
type Summary struct {
	Items      []ItemView `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice float64    `json:"totalPrice"`
	Shipping   *Shipping  `json:"shipping,omitempty"`
}

// AddOutcome pairs the add result with the updated cart.
type AddOutcome struct {
	AddResult
	Cart Summary `json:"cart"`
}

// Service exposes the per-session cart.
type Service interface {
	Get(ctx context.Context, sessionID string) (Summary, error)
	Add(ctx context.Context, sessionID, productID string, qty int) (AddOutcome, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (Summary, error)
	Remove(ctx context.Context, sessionID, productID string) (Summary, error)
	Clear(ctx context.Context, sessionID string) (Summary, error)
}

// ServiceParams groups dependencies for the cart service. Shipping is optional.
type ServiceParams struct {
	Storage  Storage
	Products ProductFinder
	Shipping ShippingPolicySource
	TTL      time.Duration
	Logger   *logger.Logger
}

type service struct {
	storage  Storage
	products ProductFinder
	shipping ShippingPolicySource
	ttl      time.Duration
	logg     *logger.Logger
	locks    session.Locker
}

func NewService(params ServiceParams) (Service, error) {
	if params.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart storage is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product finder is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		storage:  params.Storage,
		products: params.Products,
		shipping: params.Shipping,
		ttl:      params.TTL,
		logg:     logg,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (Summary, error) {
	ledger, err := s.load(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	return s.summarize(ctx, ledger), nil
}

// Add resolves the product against the catalog before touching the cart.
func (s *service) Add(ctx context.Context, sessionID, productID string, qty int) (AddOutcome, error) {
	product, err := s.products.Product(ctx, strings.TrimSpace(productID))
	if err != nil {
		return AddOutcome{}, err
	}

	var result AddResult
	ledger, err := s.mutate(ctx, sessionID, func(l *Ledger) bool {
		result = l.Add(product, qty)
		return result.Added
	})
	if err != nil {
		return AddOutcome{}, err
	}
	return AddOutcome{AddResult: result, Cart: s.summarize(ctx, ledger)}, nil
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (Summary, error) {
	var found bool
	ledger, err := s.mutate(ctx, sessionID, func(l *Ledger) bool {
		found = l.UpdateQuantity(productID, qty)
		return found
	})
	if err != nil {
		return Summary{}, err
	}
	if !found {
		return Summary{}, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart").WithDetails(map[string]any{"productId": productID})
	}
	return s.summarize(ctx, ledger), nil
}

func (s *service) Remove(ctx context.Context, sessionID, productID string) (Summary, error) {
	ledger, err := s.mutate(ctx, sessionID, func(l *Ledger) bool {
		l.Remove(productID)
		return true
	})
	if err != nil {
		return Summary{}, err
	}
	return s.summarize(ctx, ledger), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) (Summary, error) {
	ledger, err := s.mutate(ctx, sessionID, func(l *Ledger) bool {
		l.Clear()
		return true
	})
	if err != nil {
		return Summary{}, err
	}
	return s.summarize(ctx, ledger), nil
}

// mutate runs one load-modify-save cycle under the session lock. fn reports whether the
// ledger changed; unchanged ledgers are not written back.
func (s *service) mutate(ctx context.Context, sessionID string, fn func(*Ledger) bool) (*Ledger, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	ledger, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !fn(ledger) {
		return ledger, nil
	}
	payload, err := ledger.Encode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.storage.Set(ctx, s.storage.CartKey(sessionID), string(payload), s.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return ledger, nil
}

func (s *service) load(ctx context.Context, sessionID string) (*Ledger, error) {
	if !session.Valid(sessionID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	raw, ok, err := s.storage.Lookup(ctx, s.storage.CartKey(sessionID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !ok {
		return &Ledger{}, nil
	}
	return Decode([]byte(raw)), nil
}

func (s *service) summarize(ctx context.Context, l *Ledger) Summary {
	items := l.Items()
	out := Summary{
		Items:      make([]ItemView, 0, len(items)),
		TotalItems: l.TotalItems(),
	}
	for _, it := range items {
		sub := it.Product.EffectivePriceDecimal().Mul(decimal.NewFromInt(int64(it.Quantity)))
		out.Items = append(out.Items, ItemView{
			Product:  catalog.NewProductView(it.Product),
			Quantity: it.Quantity,
			Subtotal: sub.InexactFloat64(),
		})
	}
	total := l.TotalPrice()
	out.TotalPrice = total.InexactFloat64()

	if s.shipping == nil {
		return out
	}
	threshold, currency, err := s.shipping.FreeShippingThreshold(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.shipping_policy_unavailable")
		return out
	}
	out.Shipping = ShippingProgress(total, decimal.NewFromFloat(threshold), currency)
	return out
}

// ShippingProgress computes how far total is from the free shipping threshold.
// A non-positive threshold means shipping is always free.
func ShippingProgress(total, threshold decimal.Decimal, currency string) *Shipping {
	remaining := threshold.Sub(total)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return &Shipping{
		Threshold: threshold.InexactFloat64(),
		Remaining: remaining.InexactFloat64(),
		Qualifies: !total.LessThan(threshold),
		Currency:  currency,
	}
}
