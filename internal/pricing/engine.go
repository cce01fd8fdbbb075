package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies a discount rule variant.
type Kind string

// Rule kinds understood by the engine. The strings match the persisted
// discount record format.
const (
	KindBuyXGetYFree    Kind = "buy_x_get_y_free"
	KindBuyXForPriceOfY Kind = "buy_x_for_price_of_y"
	KindBuyXForFixed    Kind = "buy_x_for_fixed_price"
	KindAnyXFromSet     Kind = "any_x_from_set_at_y_price"
	KindPercentOff      Kind = "percent_off"
	KindMemberDiscount  Kind = "member_discount"
)

// Rule captures a single discount rule as loaded from the rule store.
// Only the fields relevant to Kind are populated; pointer fields keep
// "absent" distinguishable from zero.
type Rule struct {
	Kind     Kind
	Products []string
	X        *int
	Y        *decimal.Decimal
	Percent  *decimal.Decimal
}

func (r Rule) appliesTo(product string) bool {
	for _, p := range r.Products {
		if p == product {
			return true
		}
	}
	return false
}

// Catalog is the read-only price/rule/member source consumed by the
// engine. Rules() order is significant: it is the tie-break for set
// discount selection and per-product candidate evaluation.
type Catalog interface {
	ProductPrice(name string) decimal.Decimal
	Rules() []Rule
	IsMember(id string) bool
}

// Item is one basket entry. Items are priced in basket insertion order.
type Item struct {
	Product string
	Qty     int
}

// Line is the priced result for a single basket entry. Gross is always
// unit price times quantity; Details carries the label of the winning
// rule, if any.
type Line struct {
	Product  string          `json:"product"`
	Qty      int             `json:"qty"`
	Gross    decimal.Decimal `json:"gross"`
	Discount decimal.Decimal `json:"discount"`
	Details  []string        `json:"details"`
}

// Result aggregates a full basket pass.
type Result struct {
	Total   decimal.Decimal `json:"total"`
	Savings decimal.Decimal `json:"savings"`
	Lines   []Line          `json:"lines"`
}

// Engine resolves discounts for a basket in one sequential pass.
// The zero value is unusable; Catalog must be set.
type Engine struct {
	Catalog Catalog
}

// setCarveOut is the outcome of the basket-wide set discount phase. The
// whole discount is absorbed by a single line (Product); member rules
// are suppressed for the entire pass once a set rule fired.
type setCarveOut struct {
	fired    bool
	product  string
	discount decimal.Decimal
	label    string
}

// Price computes the priced lines for the given basket items. Items are
// evaluated in the order given; set discount eligibility is resolved
// once up front so later lines cannot re-trigger it.
func (e Engine) Price(items []Item, memberID string) Result {
	carve := e.resolveSetDiscount(items)
	isMember := memberID != "" && e.Catalog.IsMember(memberID)

	res := Result{
		Total:   decimal.Zero,
		Savings: decimal.Zero,
		Lines:   make([]Line, 0, len(items)),
	}
	for _, it := range items {
		line := e.priceLine(it, carve, isMember)
		res.Total = res.Total.Add(line.Gross.Sub(line.Discount))
		res.Savings = res.Savings.Add(line.Discount)
		res.Lines = append(res.Lines, line)
	}
	return res
}

// resolveSetDiscount finds the first eligible set rule and computes its
// carve-out. Leftover units beyond the last full set are peeled from the
// cheapest matched products first and stay at full price. A set that
// would not save money is not applied.
func (e Engine) resolveSetDiscount(items []Item) setCarveOut {
	for _, rule := range e.Catalog.Rules() {
		if rule.Kind != KindAnyXFromSet || rule.X == nil || rule.Y == nil {
			continue
		}
		setQty := *rule.X
		setPrice := *rule.Y
		if setQty <= 0 {
			continue
		}

		matched := make([]Item, 0, len(items))
		totalQty := 0
		totalGross := decimal.Zero
		for _, it := range items {
			if !rule.appliesTo(it.Product) {
				continue
			}
			matched = append(matched, it)
			totalQty += it.Qty
			totalGross = totalGross.Add(e.Catalog.ProductPrice(it.Product).Mul(decimal.NewFromInt(int64(it.Qty))))
		}
		if totalQty < setQty || !totalGross.GreaterThan(setPrice) {
			continue
		}

		fullSets := totalQty / setQty
		leftover := totalQty % setQty

		remaining := make(map[string]int, len(matched))
		for _, it := range matched {
			remaining[it.Product] += it.Qty
		}
		if leftover > 0 {
			cheapest := make([]Item, len(matched))
			copy(cheapest, matched)
			sort.SliceStable(cheapest, func(i, j int) bool {
				return e.Catalog.ProductPrice(cheapest[i].Product).LessThan(e.Catalog.ProductPrice(cheapest[j].Product))
			})
			for _, it := range cheapest {
				if leftover <= 0 {
					break
				}
				if remaining[it.Product] >= leftover {
					remaining[it.Product] -= leftover
					leftover = 0
				} else {
					leftover -= remaining[it.Product]
					remaining[it.Product] = 0
				}
			}
		}

		remainingGross := decimal.Zero
		for product, qty := range remaining {
			remainingGross = remainingGross.Add(e.Catalog.ProductPrice(product).Mul(decimal.NewFromInt(int64(qty))))
		}
		discount := remainingGross.Sub(setPrice.Mul(decimal.NewFromInt(int64(fullSets))))

		// The carve-out attaches to the first basket line in the set
		// that still contributes non-leftover quantity.
		absorbing := ""
		for _, it := range items {
			if rule.appliesTo(it.Product) && remaining[it.Product] > 0 {
				absorbing = it.Product
				break
			}
		}
		if absorbing == "" {
			continue
		}
		return setCarveOut{
			fired:    true,
			product:  absorbing,
			discount: discount,
			label:    fmt.Sprintf("Set discount: %d x %d for £%s", fullSets, setQty, setPrice.StringFixed(2)),
		}
	}
	return setCarveOut{}
}

// priceLine resolves the best-of discount for a single basket entry.
// The set carve-out, when attributed to this line, is the first
// candidate and is only replaced by a strictly larger discount.
func (e Engine) priceLine(it Item, carve setCarveOut, isMember bool) Line {
	unitPrice := e.Catalog.ProductPrice(it.Product)
	gross := unitPrice.Mul(decimal.NewFromInt(int64(it.Qty)))

	best := decimal.Zero
	label := ""
	if carve.fired && carve.product == it.Product {
		best = carve.discount
		label = carve.label
	}

	for _, rule := range e.Catalog.Rules() {
		if !rule.appliesTo(it.Product) {
			continue
		}
		candidate, candidateLabel, ok := evaluateRule(rule, it, unitPrice, gross, isMember, carve.fired)
		if !ok {
			continue
		}
		if candidate.GreaterThan(best) {
			best = candidate
			label = candidateLabel
		}
	}

	line := Line{Product: it.Product, Qty: it.Qty, Gross: gross, Discount: best, Details: []string{}}
	if label != "" {
		line.Details = append(line.Details, label)
	}
	return line
}

// evaluateRule computes the discount a single per-product rule would
// grant. A quantity below the rule threshold disqualifies the rule, it
// is not an error. Member rules are suppressed for the whole pass once
// any set discount fired.
func evaluateRule(rule Rule, it Item, unitPrice, gross decimal.Decimal, isMember, setFired bool) (decimal.Decimal, string, bool) {
	switch rule.Kind {
	case KindBuyXGetYFree:
		if rule.X == nil || rule.Y == nil || it.Qty < *rule.X {
			return decimal.Zero, "", false
		}
		freeUnits := int64(it.Qty / *rule.X) * rule.Y.IntPart()
		discount := unitPrice.Mul(decimal.NewFromInt(freeUnits))
		label := fmt.Sprintf("%s %d for %d", capitalize(it.Product), *rule.X, int64(*rule.X)-rule.Y.IntPart())
		return discount, label, true

	case KindBuyXForPriceOfY:
		if rule.X == nil || rule.Y == nil || it.Qty < *rule.X {
			return decimal.Zero, "", false
		}
		groups := int64(it.Qty / *rule.X)
		remainder := int64(it.Qty % *rule.X)
		discounted := rule.Y.Mul(decimal.NewFromInt(groups)).Mul(unitPrice).
			Add(unitPrice.Mul(decimal.NewFromInt(remainder)))
		label := fmt.Sprintf("%s %d for %s", capitalize(it.Product), *rule.X, rule.Y.String())
		return gross.Sub(discounted), label, true

	case KindBuyXForFixed:
		if rule.X == nil || rule.Y == nil || it.Qty < *rule.X {
			return decimal.Zero, "", false
		}
		groups := int64(it.Qty / *rule.X)
		remainder := int64(it.Qty % *rule.X)
		discounted := rule.Y.Mul(decimal.NewFromInt(groups)).
			Add(unitPrice.Mul(decimal.NewFromInt(remainder)))
		label := fmt.Sprintf("%s %d for £%s", capitalize(it.Product), *rule.X, rule.Y.StringFixed(2))
		return gross.Sub(discounted), label, true

	case KindPercentOff:
		if rule.Percent == nil {
			return decimal.Zero, "", false
		}
		discount := gross.Mul(*rule.Percent).Div(decimal.NewFromInt(100))
		label := fmt.Sprintf("%s%% off on %s", rule.Percent.String(), capitalize(it.Product))
		return discount, label, true

	case KindMemberDiscount:
		if rule.Percent == nil || !isMember || setFired {
			return decimal.Zero, "", false
		}
		discount := gross.Mul(*rule.Percent).Div(decimal.NewFromInt(100))
		label := fmt.Sprintf("%s%% member off %s", rule.Percent.String(), capitalize(it.Product))
		return discount, label, true
	}
	return decimal.Zero, "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
