package catalog

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rakasatria/backend-kasir/internal/pricing"
	"github.com/rakasatria/backend-kasir/internal/store"
)

// Catalog holds the in-memory lookup structures for one generation of
// loaded data. It is immutable after construction and safe to share
// across sequential pricing runs.
type Catalog struct {
	order   []string
	prices  map[string]decimal.Decimal
	rules   []pricing.Rule
	members map[string]struct{}
}

// Build constructs a catalog from persisted records. Product names are
// lower-cased identifiers; discount rule order is preserved from the
// file since it drives rule tie-breaks.
func Build(products []store.ProductRecord, discounts []store.DiscountRecord, members []store.MemberRecord) *Catalog {
	c := &Catalog{
		prices:  make(map[string]decimal.Decimal, len(products)),
		members: make(map[string]struct{}, len(members)),
	}
	for _, p := range products {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			continue
		}
		if _, ok := c.prices[name]; !ok {
			c.order = append(c.order, name)
		}
		c.prices[name] = p.Price
	}
	for _, d := range discounts {
		c.rules = append(c.rules, ruleFromRecord(d))
	}
	for _, m := range members {
		if m.MembershipID != "" {
			c.members[m.MembershipID] = struct{}{}
		}
	}
	return c
}

func ruleFromRecord(rec store.DiscountRecord) pricing.Rule {
	products := make([]string, 0, len(rec.Products))
	for _, p := range rec.Products {
		products = append(products, strings.ToLower(strings.TrimSpace(p)))
	}
	return pricing.Rule{
		Kind:     pricing.Kind(rec.Type),
		Products: products,
		X:        rec.X,
		Y:        rec.Y,
		Percent:  rec.Percent,
	}
}

// ProductPrice returns the unit price for a product, or zero when the
// product is unknown.
func (c *Catalog) ProductPrice(name string) decimal.Decimal {
	return c.prices[strings.ToLower(name)]
}

// HasProduct reports whether the product exists in the price list.
func (c *Catalog) HasProduct(name string) bool {
	_, ok := c.prices[strings.ToLower(name)]
	return ok
}

// Rules returns discount rules in load order.
func (c *Catalog) Rules() []pricing.Rule { return c.rules }

// IsMember reports whether the membership id is known.
func (c *Catalog) IsMember(id string) bool {
	_, ok := c.members[id]
	return ok
}

// Products returns the price list in load order.
func (c *Catalog) Products() []store.ProductRecord {
	out := make([]store.ProductRecord, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, store.ProductRecord{Name: name, Price: c.prices[name]})
	}
	return out
}

// Service owns the current catalog generation and rebuilds it from the
// store after admin mutations. Pricing runs read one generation and are
// unaffected by concurrent reloads.
type Service struct {
	store store.Store

	mu      sync.RWMutex
	current *Catalog
}

// NewService loads the initial catalog from the store.
func NewService(st store.Store) *Service {
	s := &Service{store: st}
	s.Reload()
	return s
}

// Reload rebuilds the catalog from the store.
func (s *Service) Reload() {
	cat := Build(s.store.LoadProducts(), s.store.LoadDiscounts(), s.store.LoadMembers())
	s.mu.Lock()
	s.current = cat
	s.mu.Unlock()
}

// Current returns the latest catalog generation.
func (s *Service) Current() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
