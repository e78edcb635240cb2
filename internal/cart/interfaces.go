package cart

import (
	"context"
	"time"

	"github.com/persibuloi/kamenic/internal/catalog"
)

// Storage is the session document surface backed by Redis.
type Storage interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(sessionID string) string
}

// ProductFinder resolves product ids against the catalog.
type ProductFinder interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

// ShippingPolicySource reports the free shipping threshold in force.
type ShippingPolicySource interface {
	FreeShippingThreshold(ctx context.Context) (threshold float64, currency string, err error)
}
