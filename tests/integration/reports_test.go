package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wibowo/umkm-backoffice/internal/models"
	"github.com/wibowo/umkm-backoffice/internal/store"
)

func TestDashboardStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	createTestProduct(t, db, "Stok Banyak", 10000, 50)
	createTestProduct(t, db, "Stok Tipis", 5000, 3)
	createTestProduct(t, db, "Habis", 7000, 0)
	createTestCustomer(t, db, "Rina")

	stats, err := store.GetDashboardStats(ctx, db)
	if err != nil {
		t.Fatalf("Dashboard stats: %v", err)
	}

	if stats.TotalProducts != 3 {
		t.Errorf("Expected 3 products, got %d", stats.TotalProducts)
	}
	if stats.TotalCustomers != 1 {
		t.Errorf("Expected 1 customer, got %d", stats.TotalCustomers)
	}
	if stats.TotalOrders != 0 {
		t.Errorf("Expected 0 orders, got %d", stats.TotalOrders)
	}
	if stats.LowStockProducts != 2 {
		t.Errorf("Expected 2 low-stock products, got %d", stats.LowStockProducts)
	}
}

func TestMonthlySalesExcludesCancelled(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "Kopi Tubruk", 10000, 100)

	june := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	may := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	placeOrder := func(date time.Time, qty int) *models.Order {
		order, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
			Items: []store.OrderItemRequest{
				{ProductID: product.ID, Quantity: qty},
			},
			OrderDate: date,
		})
		if err != nil {
			t.Fatalf("Place order: %v", err)
		}
		return order
	}

	kept := placeOrder(june, 2)
	cancelled := placeOrder(june, 5)
	placeOrder(may, 1)

	if err := store.CancelOrder(ctx, db, cancelled.ID); err != nil {
		t.Fatalf("Cancel order: %v", err)
	}

	sales, err := store.MonthlySalesSince(ctx, db, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Monthly sales: %v", err)
	}

	if len(sales) != 2 {
		t.Fatalf("Expected 2 monthly buckets, got %d", len(sales))
	}
	if sales[0].Year != 2026 || sales[0].Month != 5 {
		t.Errorf("Expected May first, got %d-%d", sales[0].Year, sales[0].Month)
	}
	if sales[1].Month != 6 || sales[1].TotalOrders != 1 {
		t.Errorf("June should have 1 order after the cancellation, got %d", sales[1].TotalOrders)
	}
	if !sales[1].TotalSales.Equal(kept.Total) {
		t.Errorf("Expected June sales %s, got %s", kept.Total, sales[1].TotalSales)
	}

	report, err := store.MonthlySalesReport(ctx, db, 2026, 6)
	if err != nil {
		t.Fatalf("Monthly sales report: %v", err)
	}
	if report.TotalOrders != 1 {
		t.Errorf("Expected 1 order in June report, got %d", report.TotalOrders)
	}
	if !report.TotalSales.Equal(kept.Total) {
		t.Errorf("Expected June report total %s, got %s", kept.Total, report.TotalSales)
	}
}

func TestTopProductsAndProductSales(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	cheap := createTestProduct(t, db, "Gorengan", 2000, 100)
	pricey := createTestProduct(t, db, "Tumpeng", 150000, 100)

	date := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)

	_, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
		Items: []store.OrderItemRequest{
			{ProductID: cheap.ID, Quantity: 10},
			{ProductID: pricey.ID, Quantity: 1},
		},
		OrderDate: date,
	})
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}

	top, err := store.TopProducts(ctx, db, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), 5)
	if err != nil {
		t.Fatalf("Top products: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 ranked products, got %d", len(top))
	}
	if top[0].ProductID != cheap.ID || top[0].TotalQuantity != 10 {
		t.Errorf("Expected Gorengan first by quantity, got %+v", top[0])
	}

	byRevenue, err := store.MonthlyProductSales(ctx, db, 2026, 7)
	if err != nil {
		t.Fatalf("Monthly product sales: %v", err)
	}
	if byRevenue[0].ProductID != pricey.ID {
		t.Errorf("Expected Tumpeng first by revenue, got %+v", byRevenue[0])
	}
	if !byRevenue[0].TotalRevenue.Equal(decimal.NewFromInt(150000)) {
		t.Errorf("Expected revenue 150000, got %s", byRevenue[0].TotalRevenue)
	}
}

func TestStockReport(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	createTestProduct(t, db, "Aman", 10000, 40)
	createTestProduct(t, db, "Menipis", 5000, 4)
	createTestProduct(t, db, "Kosong", 8000, 0)

	report, err := store.GetStockReport(ctx, db)
	if err != nil {
		t.Fatalf("Stock report: %v", err)
	}

	if len(report.Products) != 3 {
		t.Fatalf("Expected 3 products, got %d", len(report.Products))
	}
	if report.Products[0].Name != "Kosong" {
		t.Errorf("Expected lowest stock first, got %s", report.Products[0].Name)
	}
	if len(report.LowStock) != 2 {
		t.Errorf("Expected 2 low-stock products, got %d", len(report.LowStock))
	}
	if len(report.OutOfStock) != 1 || report.OutOfStock[0].Name != "Kosong" {
		t.Errorf("Expected only Kosong out of stock, got %+v", report.OutOfStock)
	}
}
