package checkout

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakasatria/backend-kasir/internal/basket"
	"github.com/rakasatria/backend-kasir/internal/catalog"
	"github.com/rakasatria/backend-kasir/internal/common"
	"github.com/rakasatria/backend-kasir/internal/obs"
	"github.com/rakasatria/backend-kasir/internal/pricing"
	"github.com/rakasatria/backend-kasir/internal/receipt"
)

// ItemInput is one requested basket entry.
type ItemInput struct {
	Product string `json:"product" validate:"required"`
	Qty     int    `json:"qty" validate:"required,gt=0"`
}

// Input is the checkout request payload.
type Input struct {
	MemberID string      `json:"memberId"`
	Items    []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// Output is the priced checkout response.
type Output struct {
	CheckoutID string          `json:"checkoutId"`
	Total      decimal.Decimal `json:"total"`
	Savings    decimal.Decimal `json:"savings"`
	Lines      []pricing.Line  `json:"lines"`
	Receipt    string          `json:"receipt"`
}

// Service prices checkout requests against the current catalog.
type Service struct {
	Catalog  *catalog.Service
	validate *validator.Validate
}

// NewService constructs a checkout service.
func NewService(cat *catalog.Service) (*Service, error) {
	if cat == nil {
		return nil, errors.New("checkout: catalog service is required")
	}
	return &Service{Catalog: cat, validate: validator.New()}, nil
}

// Checkout validates the payload, builds the basket, and runs one
// pricing pass. Product existence is checked here, before the basket is
// populated; the engine itself degrades silently on unknown products.
func (s *Service) Checkout(in Input) (Output, error) {
	if s == nil || s.Catalog == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if err := s.validate.Struct(in); err != nil {
		return Output{}, common.NewAppError("VALIDATION_ERROR", "invalid checkout payload", http.StatusBadRequest, err)
	}

	cat := s.Catalog.Current()
	var unknown []string
	for _, item := range in.Items {
		if !cat.HasProduct(item.Product) {
			unknown = append(unknown, strings.ToLower(strings.TrimSpace(item.Product)))
		}
	}
	if len(unknown) > 0 {
		return Output{}, common.NewAppError(
			"UNKNOWN_PRODUCT",
			fmt.Sprintf("products not available: %s", strings.Join(unknown, ", ")),
			http.StatusUnprocessableEntity,
			nil,
		)
	}

	b := basket.New()
	b.MemberID = strings.TrimSpace(in.MemberID)
	for _, item := range in.Items {
		if err := b.AddProduct(item.Product, item.Qty); err != nil {
			return Output{}, common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, err)
		}
	}

	res := b.CalculateTotal(pricing.Engine{Catalog: cat})
	observe(res)

	return Output{
		CheckoutID: uuid.NewString(),
		Total:      res.Total,
		Savings:    res.Savings,
		Lines:      res.Lines,
		Receipt:    receipt.Render(res, cat),
	}, nil
}

func observe(res pricing.Result) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues("ok").Inc()
	}
	if obs.CheckoutSavings != nil {
		savings, _ := res.Savings.Float64()
		obs.CheckoutSavings.Observe(savings)
	}
	if obs.SetDiscountTotal == nil {
		return
	}
	for _, line := range res.Lines {
		for _, detail := range line.Details {
			if strings.HasPrefix(detail, "Set discount") {
				obs.SetDiscountTotal.Inc()
				return
			}
		}
	}
}
