package receipt

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rakasatria/backend-kasir/internal/pricing"
)

const divider = "------------------------------------------------------"

// PriceLookup resolves unit prices for receipt lines.
type PriceLookup interface {
	ProductPrice(name string) decimal.Decimal
}

// Render formats a pricing result as a plain-text receipt. Layout only;
// every number comes straight from the pricing pass so the receipt
// reconciles with the totals by construction.
func Render(res pricing.Result, prices PriceLookup) string {
	var b strings.Builder

	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("%-32s| Price\n", "Item"))
	b.WriteString(divider + "\n")
	for _, line := range res.Lines {
		unit := prices.ProductPrice(line.Product)
		item := fmt.Sprintf("%s x %d", capitalize(line.Product), line.Qty)
		b.WriteString(fmt.Sprintf("%-32s| £%s (%s/unit)\n", item, line.Gross.StringFixed(2), unit.StringFixed(2)))
	}

	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("%-32s| £%s\n", "Sub-total", res.Total.Add(res.Savings).StringFixed(2)))
	b.WriteString(divider + "\n")
	b.WriteString("Savings\n")
	b.WriteString(divider + "\n")
	for _, line := range res.Lines {
		for _, detail := range line.Details {
			b.WriteString(fmt.Sprintf("%-32s| -£%s\n", detail, line.Discount.StringFixed(2)))
		}
	}
	b.WriteString(fmt.Sprintf("%-32s| -£%s\n", "Total savings", res.Savings.StringFixed(2)))
	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("%-32s| £%s\n", "Total to pay", res.Total.StringFixed(2)))

	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
