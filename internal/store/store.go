package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// File names inside the data directory. The record shapes are fixed:
// see the admin tooling that produces them.
const (
	ProductsFile   = "products.json"
	DiscountsFile  = "discounts.json"
	MembershipFile = "membership.json"
	AdminFile      = "admin.json"
)

// ProductRecord is a persisted product price entry.
type ProductRecord struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// DiscountRecord is a persisted discount rule. Pointer fields are
// present only when the rule kind uses them.
type DiscountRecord struct {
	Type     string           `json:"type"`
	Products []string         `json:"products"`
	X        *int             `json:"x,omitempty"`
	Y        *decimal.Decimal `json:"y,omitempty"`
	Percent  *decimal.Decimal `json:"percent,omitempty"`
}

// MemberRecord is a persisted membership entry. Only the id matters to
// pricing.
type MemberRecord struct {
	MembershipID string `json:"membership_id"`
	Name         string `json:"name,omitempty"`
}

// AdminRecord holds admin login credentials. Passwords are stored as
// argon2id hashes.
type AdminRecord struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

type adminFile struct {
	Admins []AdminRecord `json:"admins"`
}

// Store reads and writes the flat-file data directory. Missing or
// corrupt files load as empty collections, never as errors: data-shape
// problems are not runtime faults here.
type Store struct {
	Dir string
}

// LoadProducts returns all persisted products.
func (s Store) LoadProducts() []ProductRecord {
	var out []ProductRecord
	loadJSON(s.path(ProductsFile), &out)
	return out
}

// SaveProducts persists the product list.
func (s Store) SaveProducts(products []ProductRecord) error {
	return s.saveJSON(ProductsFile, products)
}

// LoadDiscounts returns all persisted discount rules in file order.
// Order is significant downstream: it decides set rule selection and
// candidate evaluation order.
func (s Store) LoadDiscounts() []DiscountRecord {
	var out []DiscountRecord
	loadJSON(s.path(DiscountsFile), &out)
	return out
}

// SaveDiscounts persists the discount rule list.
func (s Store) SaveDiscounts(discounts []DiscountRecord) error {
	return s.saveJSON(DiscountsFile, discounts)
}

// LoadMembers returns the membership list.
func (s Store) LoadMembers() []MemberRecord {
	var out []MemberRecord
	loadJSON(s.path(MembershipFile), &out)
	return out
}

// SaveMembers persists the membership list.
func (s Store) SaveMembers(members []MemberRecord) error {
	return s.saveJSON(MembershipFile, members)
}

// LoadAdmins returns admin credential records.
func (s Store) LoadAdmins() []AdminRecord {
	var out adminFile
	loadJSON(s.path(AdminFile), &out)
	return out.Admins
}

// SaveAdmins persists admin credential records.
func (s Store) SaveAdmins(admins []AdminRecord) error {
	return s.saveJSON(AdminFile, adminFile{Admins: admins})
}

// Ready reports whether the data directory is usable. Used by the
// readiness probe.
func (s Store) Ready() error {
	info, err := os.Stat(s.Dir)
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", s.Dir)
	}
	return nil
}

func (s Store) path(name string) string {
	return filepath.Join(s.Dir, name)
}

func loadJSON(path string, v any) {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return
	}
	// Corrupt content leaves v at its zero value.
	_ = json.Unmarshal(data, v)
}

// saveJSON writes through a temp file and renames it into place so a
// crashed write never leaves a truncated data file behind.
func (s Store) saveJSON(name string, v any) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.Dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
