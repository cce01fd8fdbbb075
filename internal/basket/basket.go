package basket

import (
	"errors"
	"strings"

	"github.com/rakasatria/backend-kasir/internal/pricing"
)

// ErrInvalidQty is returned when a non-positive quantity is added.
var ErrInvalidQty = errors.New("basket: quantity must be positive")

// Basket accumulates product quantities in insertion order. Adding a
// product that is already present merges quantities instead of
// appending a second entry. Product existence is the caller's concern,
// not the basket's.
type Basket struct {
	order    []string
	qty      map[string]int
	MemberID string
}

// New returns an empty basket.
func New() *Basket {
	return &Basket{qty: make(map[string]int)}
}

// AddProduct merges the given quantity into the basket. Names are
// normalised to lower case, matching the catalog's identifiers.
func (b *Basket) AddProduct(name string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQty
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return errors.New("basket: product name is required")
	}
	if _, ok := b.qty[key]; !ok {
		b.order = append(b.order, key)
	}
	b.qty[key] += qty
	return nil
}

// Items returns basket entries in insertion order.
func (b *Basket) Items() []pricing.Item {
	items := make([]pricing.Item, 0, len(b.order))
	for _, name := range b.order {
		items = append(items, pricing.Item{Product: name, Qty: b.qty[name]})
	}
	return items
}

// Len reports the number of distinct products in the basket.
func (b *Basket) Len() int { return len(b.order) }

// CalculateTotal prices the basket with the given engine. The pass does
// not mutate the basket; calling it again on an unchanged basket yields
// an identical result.
func (b *Basket) CalculateTotal(engine pricing.Engine) pricing.Result {
	return engine.Price(b.Items(), b.MemberID)
}
