package admin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *Service) {
	t.Helper()

	svc, _ := newTestService(t)
	handler := &Handler{Svc: svc}
	mw := Middleware{Service: svc}

	r := chi.NewRouter()
	r.Post("/admin/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth)
		r.Get("/admin/products", handler.ListProducts)
		r.Post("/admin/products", handler.CreateProduct)
		r.Get("/admin/discounts", handler.ListDiscounts)
		r.Post("/admin/discounts", handler.CreateDiscount)
	})
	return r, svc
}

func loginToken(t *testing.T, router http.Handler) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"email":"admin@example.com","password":"s3cret!"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `"token"`)
	start := strings.Index(body, `"token":"`) + len(`"token":"`)
	end := strings.Index(body[start:], `"`)
	return body[start : start+end]
}

func TestLoginHandler(t *testing.T) {
	router, _ := newTestRouter(t)

	token := loginToken(t, router)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"email":"admin@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")

	req = httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{broken`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductCRUDOverHTTP(t *testing.T) {
	router, svc := newTestRouter(t)
	token := loginToken(t, router)

	req := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(`{"name":"bread","price":"1.10"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, svc.catalog.Current().HasProduct("bread"))

	req = httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"bread"`)
}

func TestDiscountCRUDOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)
	token := loginToken(t, router)

	req := httptest.NewRequest(http.MethodPost, "/admin/discounts", strings.NewReader(`{"type":"percent_off","products":["apple"],"percent":"10"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/discounts", strings.NewReader(`{"type":"percent_off","products":["plutonium"],"percent":"10"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/discounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "percent_off")
}
