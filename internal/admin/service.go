package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	validator "github.com/go-playground/validator/v10"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/shopspring/decimal"

	"github.com/rakasatria/backend-kasir/internal/catalog"
	"github.com/rakasatria/backend-kasir/internal/common"
	"github.com/rakasatria/backend-kasir/internal/pricing"
	"github.com/rakasatria/backend-kasir/internal/store"
)

const defaultTokenTTL = 30 * time.Minute

// Service coordinates admin authentication and catalog data management.
type Service struct {
	store     store.Store
	catalog   *catalog.Service
	secret    []byte
	tokenTTL  time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	validate  *validator.Validate
}

// Config configures the admin service.
type Config struct {
	Store     store.Store
	Catalog   *catalog.Service
	Secret    string
	TokenTTL  time.Duration
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// LoginResult bundles the token material returned after a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProductInput is the payload for creating a product.
type ProductInput struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price" validate:"required"`
}

// DiscountInput is the payload for creating a discount rule. Optional
// fields must be present exactly when the rule kind uses them.
type DiscountInput struct {
	Type     string           `json:"type" validate:"required"`
	Products []string         `json:"products" validate:"required,min=1,dive,required"`
	X        *int             `json:"x,omitempty"`
	Y        *decimal.Decimal `json:"y,omitempty"`
	Percent  *decimal.Decimal `json:"percent,omitempty"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("admin: catalog service is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("admin: secret is required")
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-kasir"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "kasir-admin"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		store:    cfg.Store,
		catalog:  cfg.Catalog,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
		signer:   jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:   issuer,
		audience: audience,
		validate: validator.New(),
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies admin credentials and issues a signed access token.
func (s *Service) Login(email, password string) (LoginResult, error) {
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" || password == "" {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	}
	for _, admin := range s.store.LoadAdmins() {
		if strings.ToLower(admin.Email) != normalized {
			continue
		}
		ok, err := argon2id.ComparePasswordAndHash(password, admin.PasswordHash)
		if err != nil || !ok {
			break
		}
		token, expiresAt, err := s.signAccessToken(normalized)
		if err != nil {
			return LoginResult{}, fmt.Errorf("sign access token: %w", err)
		}
		return LoginResult{Token: token, ExpiresAt: expiresAt}, nil
	}
	return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}

// ParseAccessToken validates an access token and returns the subject (admin email).
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("admin: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("admin: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("admin: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("admin: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("admin: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(email string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	builder := jwt.NewBuilder().
		Subject(email).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		Expiration(expiresAt)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// ListProducts returns all persisted products.
func (s *Service) ListProducts() []store.ProductRecord {
	return s.store.LoadProducts()
}

// CreateProduct validates and persists a new product, then reloads the
// catalog so pricing sees it immediately.
func (s *Service) CreateProduct(in ProductInput) (store.ProductRecord, error) {
	if err := s.validate.Struct(in); err != nil {
		return store.ProductRecord{}, common.NewAppError("VALIDATION_ERROR", "invalid product payload", http.StatusBadRequest, err)
	}
	name := strings.ToLower(strings.TrimSpace(in.Name))
	if in.Price.IsNegative() {
		return store.ProductRecord{}, common.NewAppError("VALIDATION_ERROR", "price must not be negative", http.StatusBadRequest, nil)
	}

	products := s.store.LoadProducts()
	for _, p := range products {
		if strings.ToLower(p.Name) == name {
			return store.ProductRecord{}, common.NewAppError("PRODUCT_EXISTS", fmt.Sprintf("product %q already exists", name), http.StatusConflict, nil)
		}
	}
	record := store.ProductRecord{Name: name, Price: in.Price}
	products = append(products, record)
	if err := s.store.SaveProducts(products); err != nil {
		return store.ProductRecord{}, fmt.Errorf("save products: %w", err)
	}
	s.catalog.Reload()
	return record, nil
}

// ListDiscounts returns all persisted discount rules in file order.
func (s *Service) ListDiscounts() []store.DiscountRecord {
	return s.store.LoadDiscounts()
}

// CreateDiscount validates and persists a new discount rule. Rules are
// appended, so newly created rules rank last in tie-breaks.
func (s *Service) CreateDiscount(in DiscountInput) (store.DiscountRecord, error) {
	if err := s.validate.Struct(in); err != nil {
		return store.DiscountRecord{}, common.NewAppError("VALIDATION_ERROR", "invalid discount payload", http.StatusBadRequest, err)
	}
	record, err := s.buildDiscountRecord(in)
	if err != nil {
		return store.DiscountRecord{}, err
	}

	discounts := append(s.store.LoadDiscounts(), record)
	if err := s.store.SaveDiscounts(discounts); err != nil {
		return store.DiscountRecord{}, fmt.Errorf("save discounts: %w", err)
	}
	s.catalog.Reload()
	return record, nil
}

// buildDiscountRecord enforces the kind/field pairing invariant: each
// kind requires exactly its own fields, and absent means absent, not
// zero.
func (s *Service) buildDiscountRecord(in DiscountInput) (store.DiscountRecord, error) {
	kind := pricing.Kind(strings.TrimSpace(in.Type))
	products := make([]string, 0, len(in.Products))
	for _, p := range in.Products {
		products = append(products, strings.ToLower(strings.TrimSpace(p)))
	}

	cat := s.catalog.Current()
	var missing []string
	for _, p := range products {
		if !cat.HasProduct(p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return store.DiscountRecord{}, common.NewAppError(
			"UNKNOWN_PRODUCT",
			fmt.Sprintf("products not found: %s", strings.Join(missing, ", ")),
			http.StatusUnprocessableEntity,
			nil,
		)
	}

	record := store.DiscountRecord{Type: string(kind), Products: products}
	switch kind {
	case pricing.KindBuyXGetYFree, pricing.KindBuyXForPriceOfY, pricing.KindBuyXForFixed, pricing.KindAnyXFromSet:
		if in.X == nil || *in.X <= 0 {
			return store.DiscountRecord{}, fieldError("x is required and must be positive")
		}
		if in.Y == nil || in.Y.IsNegative() {
			return store.DiscountRecord{}, fieldError("y is required and must not be negative")
		}
		if in.Percent != nil {
			return store.DiscountRecord{}, fieldError("percent does not apply to this discount type")
		}
		record.X = in.X
		record.Y = in.Y
	case pricing.KindPercentOff, pricing.KindMemberDiscount:
		if in.Percent == nil || !in.Percent.IsPositive() || in.Percent.GreaterThan(decimal.NewFromInt(100)) {
			return store.DiscountRecord{}, fieldError("percent is required and must be in (0,100]")
		}
		if in.X != nil || in.Y != nil {
			return store.DiscountRecord{}, fieldError("x and y do not apply to this discount type")
		}
		record.Percent = in.Percent
	default:
		return store.DiscountRecord{}, fieldError(fmt.Sprintf("unknown discount type %q", in.Type))
	}
	return record, nil
}

func fieldError(msg string) error {
	return common.NewAppError("VALIDATION_ERROR", msg, http.StatusBadRequest, nil)
}

// HashPassword hashes an admin password for storage.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}
