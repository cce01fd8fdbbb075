package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/rakasatria/backend-kasir/internal/catalog"
	"github.com/rakasatria/backend-kasir/internal/pricing"
	"github.com/rakasatria/backend-kasir/internal/store"
)

func TestBuildNormalisesNamesAndKeepsRuleOrder(t *testing.T) {
	x := 3
	y := decimal.RequireFromString("2.00")
	pct := decimal.RequireFromString("10")

	cat := catalog.Build(
		[]store.ProductRecord{
			{Name: " Apple ", Price: decimal.RequireFromString("1.00")},
			{Name: "BEAN", Price: decimal.RequireFromString("0.65")},
		},
		[]store.DiscountRecord{
			{Type: "any_x_from_set_at_y_price", Products: []string{"Bean", "Pea"}, X: &x, Y: &y},
			{Type: "percent_off", Products: []string{"apple"}, Percent: &pct},
		},
		[]store.MemberRecord{{MembershipID: "M001", Name: "Sari"}},
	)

	require.True(t, cat.HasProduct("apple"))
	require.True(t, cat.HasProduct("Bean"))
	require.True(t, cat.ProductPrice("APPLE").Equal(decimal.RequireFromString("1.00")))
	require.True(t, cat.ProductPrice("ghost").IsZero())

	rules := cat.Rules()
	require.Len(t, rules, 2)
	require.Equal(t, pricing.KindAnyXFromSet, rules[0].Kind)
	require.Equal(t, []string{"bean", "pea"}, rules[0].Products)
	require.Equal(t, pricing.KindPercentOff, rules[1].Kind)

	require.True(t, cat.IsMember("M001"))
	require.False(t, cat.IsMember("M002"))
}

func TestServiceReloadPicksUpStoreChanges(t *testing.T) {
	st := store.Store{Dir: t.TempDir()}
	require.NoError(t, st.SaveProducts([]store.ProductRecord{
		{Name: "apple", Price: decimal.RequireFromString("1.00")},
	}))

	svc := catalog.NewService(st)
	require.True(t, svc.Current().HasProduct("apple"))
	require.False(t, svc.Current().HasProduct("banana"))

	require.NoError(t, st.SaveProducts([]store.ProductRecord{
		{Name: "apple", Price: decimal.RequireFromString("1.00")},
		{Name: "banana", Price: decimal.RequireFromString("0.50")},
	}))
	svc.Reload()
	require.True(t, svc.Current().HasProduct("banana"))
}

func TestProductsHandler(t *testing.T) {
	st := store.Store{Dir: t.TempDir()}
	require.NoError(t, st.SaveProducts([]store.ProductRecord{
		{Name: "apple", Price: decimal.RequireFromString("1.00")},
		{Name: "banana", Price: decimal.RequireFromString("0.50")},
	}))

	handler := &catalog.Handler{Service: catalog.NewService(st)}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	handler.Products(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []store.ProductRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, "apple", body.Data[0].Name)
}
