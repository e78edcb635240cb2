package cart

import (
	"encoding/json"

	"github.com/persibuloi/kamenic/internal/catalog"
	"github.com/shopspring/decimal"
)

// Item is one cart line. Quantity stays within [1, Product.ExistenciaActual].
type Item struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// AddResult reports what an add actually did. Added is false when nothing fit.
type AddResult struct {
	Added         bool `json:"added"`
	QuantityAdded int  `json:"quantityAdded"`
	Quantity      int  `json:"quantity"`
}

// Ledger is the in-memory cart for one session.
type Ledger struct {
	items []Item
}

// Decode rebuilds a ledger from its stored form. Malformed documents yield an empty
// cart, and lines that break the quantity rules are dropped.
func Decode(raw []byte) *Ledger {
	var items []Item
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return &Ledger{}
	}
	l := &Ledger{items: make([]Item, 0, len(items))}
	for _, it := range items {
		it.Quantity = min(it.Quantity, it.Product.ExistenciaActual)
		if it.Product.ID == "" || it.Quantity <= 0 || l.index(it.Product.ID) >= 0 {
			continue
		}
		l.items = append(l.items, it)
	}
	return l
}

// Encode serializes the full cart.
func (l *Ledger) Encode() ([]byte, error) {
	items := l.items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

// Add puts qty units of p in the cart, clamped to the stock still available. qty below
// one counts as one.
func (l *Ledger) Add(p catalog.Product, qty int) AddResult {
	if qty < 1 {
		qty = 1
	}
	idx := l.index(p.ID)
	current := 0
	if idx >= 0 {
		current = l.items[idx].Quantity
	}
	headroom := p.ExistenciaActual - current
	if p.ExistenciaActual <= 0 || headroom <= 0 {
		return AddResult{Quantity: current}
	}
	added := min(qty, headroom)
	if idx >= 0 {
		l.items[idx].Product = p
		l.items[idx].Quantity += added
	} else {
		l.items = append(l.items, Item{Product: p, Quantity: added})
	}
	return AddResult{Added: true, QuantityAdded: added, Quantity: current + added}
}

// UpdateQuantity sets the quantity clamped to [1, stock]; qty <= 0 removes the line.
// It reports whether the product was in the cart.
func (l *Ledger) UpdateQuantity(id string, qty int) bool {
	idx := l.index(id)
	if idx < 0 {
		return false
	}
	stock := l.items[idx].Product.ExistenciaActual
	if qty <= 0 || stock <= 0 {
		l.removeAt(idx)
		return true
	}
	l.items[idx].Quantity = min(qty, stock)
	return true
}

func (l *Ledger) Remove(id string) {
	if idx := l.index(id); idx >= 0 {
		l.removeAt(idx)
	}
}

func (l *Ledger) Clear() {
	l.items = nil
}

// Items returns a copy of the lines in insertion order.
func (l *Ledger) Items() []Item {
	return append([]Item(nil), l.items...)
}

func (l *Ledger) TotalItems() int {
	total := 0
	for _, it := range l.items {
		total += it.Quantity
	}
	return total
}

// TotalPrice sums effective price times quantity.
func (l *Ledger) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range l.items {
		total = total.Add(it.Product.EffectivePriceDecimal().Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (l *Ledger) IsInCart(id string) bool {
	return l.index(id) >= 0
}

func (l *Ledger) ItemQuantity(id string) int {
	if idx := l.index(id); idx >= 0 {
		return l.items[idx].Quantity
	}
	return 0
}

func (l *Ledger) index(id string) int {
	for i, it := range l.items {
		if it.Product.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) removeAt(idx int) {
	l.items = append(l.items[:idx], l.items[idx+1:]...)
}
