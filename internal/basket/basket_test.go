package basket

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rakasatria/backend-kasir/internal/pricing"
)

type staticCatalog struct {
	prices map[string]decimal.Decimal
}

func (c staticCatalog) ProductPrice(name string) decimal.Decimal { return c.prices[name] }
func (c staticCatalog) Rules() []pricing.Rule                    { return nil }
func (c staticCatalog) IsMember(string) bool                     { return false }

func TestAddProductMergesQuantities(t *testing.T) {
	b := New()
	if err := b.AddProduct("Apple", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := b.AddProduct("apple", 3); err != nil {
		t.Fatalf("add again: %v", err)
	}
	if err := b.AddProduct("banana", 1); err != nil {
		t.Fatalf("add banana: %v", err)
	}

	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("expected merged entries, got %d", len(items))
	}
	if items[0].Product != "apple" || items[0].Qty != 5 {
		t.Fatalf("expected apple qty 5 first, got %+v", items[0])
	}
	if items[1].Product != "banana" || items[1].Qty != 1 {
		t.Fatalf("expected banana qty 1 second, got %+v", items[1])
	}
}

func TestAddProductRejectsNonPositiveQty(t *testing.T) {
	b := New()
	if err := b.AddProduct("apple", 0); !errors.Is(err, ErrInvalidQty) {
		t.Fatalf("expected ErrInvalidQty, got %v", err)
	}
	if err := b.AddProduct("apple", -1); !errors.Is(err, ErrInvalidQty) {
		t.Fatalf("expected ErrInvalidQty, got %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("rejected adds must not touch the basket")
	}
}

func TestCalculateTotalPreservesInsertionOrder(t *testing.T) {
	cat := staticCatalog{prices: map[string]decimal.Decimal{
		"banana": decimal.RequireFromString("0.50"),
		"apple":  decimal.RequireFromString("1.00"),
	}}
	b := New()
	_ = b.AddProduct("banana", 2)
	_ = b.AddProduct("apple", 1)

	res := b.CalculateTotal(pricing.Engine{Catalog: cat})
	if len(res.Lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(res.Lines))
	}
	if res.Lines[0].Product != "banana" || res.Lines[1].Product != "apple" {
		t.Fatalf("lines must follow insertion order, got %s then %s",
			res.Lines[0].Product, res.Lines[1].Product)
	}
	if !res.Total.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("expected total 2.00, got %s", res.Total)
	}
}
