package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMissingFilesLoadAsEmpty(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	require.Empty(t, s.LoadProducts())
	require.Empty(t, s.LoadDiscounts())
	require.Empty(t, s.LoadMembers())
	require.Empty(t, s.LoadAdmins())
}

func TestCorruptFileLoadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProductsFile), []byte("{not json"), 0o644))

	s := Store{Dir: dir}
	require.Empty(t, s.LoadProducts())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := Store{Dir: t.TempDir()}

	x := 3
	y := decimal.RequireFromString("2.00")
	pct := decimal.RequireFromString("10")
	discounts := []DiscountRecord{
		{Type: "any_x_from_set_at_y_price", Products: []string{"bean", "pea"}, X: &x, Y: &y},
		{Type: "percent_off", Products: []string{"milk"}, Percent: &pct},
	}
	require.NoError(t, s.SaveDiscounts(discounts))

	loaded := s.LoadDiscounts()
	require.Len(t, loaded, 2)
	require.Equal(t, "any_x_from_set_at_y_price", loaded[0].Type)
	require.NotNil(t, loaded[0].X)
	require.Equal(t, 3, *loaded[0].X)
	require.True(t, loaded[0].Y.Equal(y))
	require.Nil(t, loaded[0].Percent)
	require.Nil(t, loaded[1].X, "absent fields must stay absent, not zero")
	require.True(t, loaded[1].Percent.Equal(pct))

	products := []ProductRecord{{Name: "bean", Price: decimal.RequireFromString("1.00")}}
	require.NoError(t, s.SaveProducts(products))
	got := s.LoadProducts()
	require.Len(t, got, 1)
	require.Equal(t, "bean", got[0].Name)
	require.True(t, got[0].Price.Equal(products[0].Price))
}

func TestAdminFileEnvelope(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	require.NoError(t, s.SaveAdmins([]AdminRecord{{Email: "admin@example.com", PasswordHash: "x"}}))

	admins := s.LoadAdmins()
	require.Len(t, admins, 1)
	require.Equal(t, "admin@example.com", admins[0].Email)
}
