package main

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/rakasatria/backend-kasir/internal/admin"
	"github.com/rakasatria/backend-kasir/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dataDir := strings.TrimSpace(os.Getenv("DATA_DIR"))
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}
	st := store.Store{Dir: dataDir}

	seedProducts(st)
	seedDiscounts(st)
	seedMembers(st)
	seedAdmins(st)

	log.Println("Seeding completed successfully!")
}

func seedProducts(st store.Store) {
	if existing := st.LoadProducts(); len(existing) > 0 {
		log.Printf("Products already seeded (%d found), skipping", len(existing))
		return
	}
	products := []store.ProductRecord{
		{Name: "apple", Price: decimal.RequireFromString("1.00")},
		{Name: "milk", Price: decimal.RequireFromString("0.60")},
		{Name: "shampoo", Price: decimal.RequireFromString("2.50")},
		{Name: "bean", Price: decimal.RequireFromString("1.00")},
		{Name: "pea", Price: decimal.RequireFromString("0.80")},
		{Name: "bread", Price: decimal.RequireFromString("1.10")},
	}
	if err := st.SaveProducts(products); err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}
	log.Printf("Seeded %d products", len(products))
}

func seedDiscounts(st store.Store) {
	if existing := st.LoadDiscounts(); len(existing) > 0 {
		log.Printf("Discounts already seeded (%d found), skipping", len(existing))
		return
	}
	intp := func(v int) *int { return &v }
	decp := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}
	discounts := []store.DiscountRecord{
		{Type: "buy_x_get_y_free", Products: []string{"apple"}, X: intp(3), Y: decp("1")},
		{Type: "buy_x_for_price_of_y", Products: []string{"shampoo"}, X: intp(2), Y: decp("1")},
		{Type: "buy_x_for_fixed_price", Products: []string{"shampoo"}, X: intp(2), Y: decp("3.00")},
		{Type: "any_x_from_set_at_y_price", Products: []string{"bean", "pea"}, X: intp(3), Y: decp("2.00")},
		{Type: "percent_off", Products: []string{"apple"}, Percent: decp("10")},
		{Type: "member_discount", Products: []string{"milk"}, Percent: decp("20")},
	}
	if err := st.SaveDiscounts(discounts); err != nil {
		log.Fatalf("Failed to seed discounts: %v", err)
	}
	log.Printf("Seeded %d discounts", len(discounts))
}

func seedMembers(st store.Store) {
	if existing := st.LoadMembers(); len(existing) > 0 {
		log.Printf("Members already seeded (%d found), skipping", len(existing))
		return
	}
	members := []store.MemberRecord{
		{MembershipID: "M001", Name: "Siti Rahma"},
		{MembershipID: "M002", Name: "Budi Santoso"},
	}
	if err := st.SaveMembers(members); err != nil {
		log.Fatalf("Failed to seed members: %v", err)
	}
	log.Printf("Seeded %d members", len(members))
}

func seedAdmins(st store.Store) {
	if existing := st.LoadAdmins(); len(existing) > 0 {
		log.Printf("Admins already seeded (%d found), skipping", len(existing))
		return
	}
	email := strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL"))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set, skipping admin seed")
		return
	}
	hash, err := admin.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	if err := st.SaveAdmins([]store.AdminRecord{{Email: strings.ToLower(email), PasswordHash: hash}}); err != nil {
		log.Fatalf("Failed to seed admins: %v", err)
	}
	log.Printf("Seeded admin %s", strings.ToLower(email))
}
