package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/wibowo/umkm-backoffice/internal/config"
	"github.com/wibowo/umkm-backoffice/internal/database"
	"github.com/wibowo/umkm-backoffice/internal/models"
	"github.com/wibowo/umkm-backoffice/internal/store"
)

var seedCategories = []string{
	"Makanan", "Minuman", "Elektronik", "Pakaian", "Aksesoris", "Kesehatan", "Rumah Tangga",
}

// seedCommand fills the database with sample catalog, customer and order
// data. Orders go through the real placement workflow so totals and stock
// stay consistent.
func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "populate the database with sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))

			var sellable []int64
			for i := 0; i < 50; i++ {
				product, err := store.CreateProduct(ctx, db, randomProduct(rng, i, 20+rng.Intn(81)))
				if err != nil {
					return fmt.Errorf("seed product: %w", err)
				}
				sellable = append(sellable, product.ID)
			}
			for i := 50; i < 60; i++ {
				if _, err := store.CreateProduct(ctx, db, randomProduct(rng, i, 1+rng.Intn(store.LowStockThreshold))); err != nil {
					return fmt.Errorf("seed low-stock product: %w", err)
				}
			}
			for i := 60; i < 65; i++ {
				if _, err := store.CreateProduct(ctx, db, randomProduct(rng, i, 0)); err != nil {
					return fmt.Errorf("seed out-of-stock product: %w", err)
				}
			}

			var customers []int64
			for i := 0; i < 30; i++ {
				email := fmt.Sprintf("pelanggan%d@example.com", i+1)
				customer, err := store.CreateCustomer(ctx, db, store.CustomerRequest{
					Name:   fmt.Sprintf("Pelanggan %d", i+1),
					Email:  &email,
					Phone:  fmt.Sprintf("0812%08d", rng.Intn(100000000)),
					Status: models.CustomerStatusActive,
				})
				if err != nil {
					return fmt.Errorf("seed customer: %w", err)
				}
				customers = append(customers, customer.ID)
			}

			for i := 0; i < 50; i++ {
				customerID := customers[rng.Intn(len(customers))]

				itemCount := 1 + rng.Intn(5)
				items := make([]store.OrderItemRequest, 0, itemCount)
				for j := 0; j < itemCount; j++ {
					items = append(items, store.OrderItemRequest{
						ProductID: sellable[rng.Intn(len(sellable))],
						Quantity:  1 + rng.Intn(3),
					})
				}

				_, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
					CustomerID: &customerID,
					Items:      items,
					OrderDate:  time.Now().AddDate(0, 0, -rng.Intn(180)),
				})
				if err != nil {
					return fmt.Errorf("seed order: %w", err)
				}
			}

			log.Printf("Seeded 65 products, 30 customers and 50 orders")
			return nil
		},
	}
}

func randomProduct(rng *rand.Rand, n, stock int) store.ProductRequest {
	return store.ProductRequest{
		Name:     fmt.Sprintf("Produk %d", n+1),
		Price:    decimal.NewFromInt(int64(5000 + rng.Intn(496)*1000)),
		Stock:    stock,
		Category: seedCategories[rng.Intn(len(seedCategories))],
		IsActive: rng.Intn(10) > 0,
	}
}
