package checkout_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/rakasatria/backend-kasir/internal/catalog"
	"github.com/rakasatria/backend-kasir/internal/checkout"
	"github.com/rakasatria/backend-kasir/internal/store"
)

func newTestCatalog(t *testing.T) *catalog.Service {
	t.Helper()
	st := store.Store{Dir: t.TempDir()}
	require.NoError(t, st.SaveProducts([]store.ProductRecord{
		{Name: "apple", Price: decimal.RequireFromString("1.00")},
		{Name: "bean", Price: decimal.RequireFromString("1.00")},
		{Name: "pea", Price: decimal.RequireFromString("0.80")},
	}))
	x := 3
	yFree := decimal.RequireFromString("1")
	ySet := decimal.RequireFromString("2.00")
	require.NoError(t, st.SaveDiscounts([]store.DiscountRecord{
		{Type: "buy_x_get_y_free", Products: []string{"apple"}, X: &x, Y: &yFree},
		{Type: "any_x_from_set_at_y_price", Products: []string{"bean", "pea"}, X: &x, Y: &ySet},
	}))
	require.NoError(t, st.SaveMembers([]store.MemberRecord{{MembershipID: "M001", Name: "Sari"}}))
	return catalog.NewService(st)
}

func TestCheckoutPricesBasket(t *testing.T) {
	svc, err := checkout.NewService(newTestCatalog(t))
	require.NoError(t, err)

	out, err := svc.Checkout(checkout.Input{
		Items: []checkout.ItemInput{
			{Product: "apple", Qty: 4},
			{Product: "bean", Qty: 2},
			{Product: "pea", Qty: 2},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.CheckoutID)

	// apple: buy 3 get 1 free saves 1.00; set: 0.80
	require.True(t, out.Savings.Equal(decimal.RequireFromString("1.80")), "savings %s", out.Savings)
	require.True(t, out.Total.Equal(decimal.RequireFromString("5.80")), "total %s", out.Total)
	require.Len(t, out.Lines, 3)
	require.Contains(t, out.Receipt, "Total to pay")
	require.Contains(t, out.Receipt, "Set discount: 1 x 3 for £2.00")
}

func TestCheckoutMergesRepeatedItems(t *testing.T) {
	svc, err := checkout.NewService(newTestCatalog(t))
	require.NoError(t, err)

	out, err := svc.Checkout(checkout.Input{
		Items: []checkout.ItemInput{
			{Product: "apple", Qty: 2},
			{Product: "Apple", Qty: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Lines, 1)
	require.Equal(t, 4, out.Lines[0].Qty)
	require.True(t, out.Savings.Equal(decimal.RequireFromString("1.00")))
}

func TestCheckoutRejectsUnknownProducts(t *testing.T) {
	svc, err := checkout.NewService(newTestCatalog(t))
	require.NoError(t, err)

	_, err = svc.Checkout(checkout.Input{
		Items: []checkout.ItemInput{{Product: "durian", Qty: 1}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "durian")
}

func TestCheckoutRejectsEmptyAndInvalidPayloads(t *testing.T) {
	svc, err := checkout.NewService(newTestCatalog(t))
	require.NoError(t, err)

	_, err = svc.Checkout(checkout.Input{})
	require.Error(t, err)

	_, err = svc.Checkout(checkout.Input{Items: []checkout.ItemInput{{Product: "apple", Qty: 0}}})
	require.Error(t, err)
}

func TestCheckoutHandler(t *testing.T) {
	svc, err := checkout.NewService(newTestCatalog(t))
	require.NoError(t, err)
	handler := &checkout.Handler{Svc: svc}

	body, _ := json.Marshal(checkout.Input{
		Items: []checkout.ItemInput{{Product: "apple", Qty: 4}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Checkout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data checkout.Output `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Data.Total.Equal(decimal.RequireFromString("3.00")))

	badReq := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader("{broken"))
	badRec := httptest.NewRecorder()
	handler.Checkout(badRec, badReq)
	require.Equal(t, http.StatusBadRequest, badRec.Code)

	unknownBody, _ := json.Marshal(checkout.Input{
		Items: []checkout.ItemInput{{Product: "durian", Qty: 1}},
	})
	uReq := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(unknownBody))
	uRec := httptest.NewRecorder()
	handler.Checkout(uRec, uReq)
	require.Equal(t, http.StatusUnprocessableEntity, uRec.Code)
}
