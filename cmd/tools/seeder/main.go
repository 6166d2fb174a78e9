// Seeder populates a development database with sample inventory items and
// operational costs, then triggers the settings bootstrap.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/store/postgres"
)

type seedItem struct {
	sku     string
	name    string
	buy     string
	sell    string
	stock   int
	minimum int
}

var items = []seedItem{
	{"BRS-001", "Beras premium 5kg", "62000", "75000", 40, 5},
	{"MNY-001", "Minyak goreng 2L", "31000", "38000", 60, 5},
	{"GLA-001", "Gula pasir 1kg", "13500", "16000", 80, 10},
	{"KPI-001", "Kopi bubuk 200g", "18000", "25000", 35, 5},
	{"TEH-001", "Teh celup isi 25", "9000", "12500", 50, 5},
	{"SAB-001", "Sabun mandi batang", "3200", "5000", 120, 15},
}

var costs = map[string]string{
	"sewa ruko":     "1500000",
	"listrik":       "450000",
	"air":           "120000",
	"internet":      "350000",
	"gaji karyawan": "2200000",
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, relying on environment variables")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := postgres.Migrate(dbURL); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	pg := postgres.New(pool)
	if _, err := pg.GetOrInit(ctx); err != nil {
		log.Fatalf("bootstrap settings: %v", err)
	}

	for _, item := range items {
		_, err := pool.Exec(ctx, `
			INSERT INTO inventory_items (id, sku, name, purchase_price, selling_price, final_price, minimum_stock, stock)
			VALUES ($1, $2, $3, $4, $5, $5, $6, $7)
			ON CONFLICT (sku) DO NOTHING`,
			uuid.NewString(), item.sku, item.name,
			decimal.RequireFromString(item.buy).String(),
			decimal.RequireFromString(item.sell).String(),
			item.minimum, item.stock,
		)
		if err != nil {
			log.Fatalf("seed item %s: %v", item.sku, err)
		}
	}
	log.Printf("seeded %d inventory items", len(items))

	existing, err := pg.ListCosts(ctx)
	if err != nil {
		log.Fatalf("list costs: %v", err)
	}
	if len(existing) > 0 {
		log.Printf("operational costs already present (%d entries), skipping", len(existing))
		return
	}
	for name, amount := range costs {
		if _, err := pool.Exec(ctx, `
			INSERT INTO operational_costs (id, name, amount)
			VALUES ($1, $2, $3)`,
			uuid.NewString(), name, decimal.RequireFromString(amount).String(),
		); err != nil {
			log.Fatalf("seed cost %q: %v", name, err)
		}
	}
	log.Printf("seeded %d operational costs", len(costs))
}
