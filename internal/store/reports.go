package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wibowo/umkm-backoffice/internal/models"
)

// LowStockThreshold is the stock level at or below which a product shows up
// in low-stock listings.
const LowStockThreshold = 10

type DashboardStats struct {
	TotalProducts    int64 `json:"total_products"`
	TotalCustomers   int64 `json:"total_customers"`
	TotalOrders      int64 `json:"total_orders"`
	LowStockProducts int64 `json:"low_stock_products"`
}

func GetDashboardStats(ctx context.Context, db *sql.DB) (*DashboardStats, error) {
	stats := &DashboardStats{}

	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM products WHERE stock <= $1)`,
		LowStockThreshold).Scan(
		&stats.TotalProducts,
		&stats.TotalCustomers,
		&stats.TotalOrders,
		&stats.LowStockProducts,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	return stats, nil
}

func RecentOrders(ctx context.Context, db *sql.DB, limit int) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY order_date DESC, id DESC
		LIMIT $1`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

type MonthlySales struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalOrders int64           `json:"total_orders"`
}

// MonthlySalesSince sums non-cancelled order totals per calendar month,
// oldest first.
func MonthlySalesSince(ctx context.Context, db *sql.DB, since time.Time) ([]MonthlySales, error) {
	query := `
		SELECT
			EXTRACT(YEAR FROM order_date)::int AS year,
			EXTRACT(MONTH FROM order_date)::int AS month,
			SUM(total),
			COUNT(*)
		FROM orders
		WHERE status <> $1
		  AND order_date >= $2
		GROUP BY year, month
		ORDER BY year, month`

	rows, err := db.QueryContext(ctx, query, models.OrderStatusCancelled, since)
	if err != nil {
		return nil, fmt.Errorf("monthly sales: %w", err)
	}
	defer rows.Close()

	var sales []MonthlySales
	for rows.Next() {
		var m MonthlySales
		if err := rows.Scan(&m.Year, &m.Month, &m.TotalSales, &m.TotalOrders); err != nil {
			return nil, fmt.Errorf("scan monthly sales: %w", err)
		}
		sales = append(sales, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return sales, nil
}

type ProductSales struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// TopProducts ranks products sold since the given time by quantity,
// excluding cancelled orders. Item snapshots are aggregated, so products
// edited after the sale keep their rank under the name they sold as.
func TopProducts(ctx context.Context, db *sql.DB, since time.Time, limit int) ([]ProductSales, error) {
	query := `
		SELECT oi.product_id, oi.product_name, SUM(oi.quantity), SUM(oi.subtotal)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status <> $1
		  AND o.order_date >= $2
		GROUP BY oi.product_id, oi.product_name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT $3`

	return queryProductSales(ctx, db, query, models.OrderStatusCancelled, since, limit)
}

type SalesReport struct {
	Orders      []models.Order  `json:"orders"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalOrders int64           `json:"total_orders"`
}

// MonthlySalesReport lists the month's non-cancelled orders newest first with
// their combined totals.
func MonthlySalesReport(ctx context.Context, db *sql.DB, year, month int) (*SalesReport, error) {
	if month < 1 || month > 12 {
		return nil, validationErr("month", "month must be between 1 and 12")
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status <> $1
		  AND EXTRACT(YEAR FROM order_date) = $2
		  AND EXTRACT(MONTH FROM order_date) = $3
		ORDER BY order_date DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, models.OrderStatusCancelled, year, month)
	if err != nil {
		return nil, fmt.Errorf("monthly sales report: %w", err)
	}
	defer rows.Close()

	report := &SalesReport{TotalSales: decimal.Zero}
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		report.Orders = append(report.Orders, order)
		report.TotalSales = report.TotalSales.Add(order.Total)
		report.TotalOrders++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return report, nil
}

// MonthlyProductSales summarizes the month's sales per product by revenue.
func MonthlyProductSales(ctx context.Context, db *sql.DB, year, month int) ([]ProductSales, error) {
	if month < 1 || month > 12 {
		return nil, validationErr("month", "month must be between 1 and 12")
	}

	query := `
		SELECT oi.product_id, oi.product_name, SUM(oi.quantity), SUM(oi.subtotal)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status <> $1
		  AND EXTRACT(YEAR FROM o.order_date) = $2
		  AND EXTRACT(MONTH FROM o.order_date) = $3
		GROUP BY oi.product_id, oi.product_name
		ORDER BY SUM(oi.subtotal) DESC`

	return queryProductSales(ctx, db, query, models.OrderStatusCancelled, year, month)
}

func queryProductSales(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]ProductSales, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("product sales: %w", err)
	}
	defer rows.Close()

	var sales []ProductSales
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.TotalQuantity, &p.TotalRevenue); err != nil {
			return nil, fmt.Errorf("scan product sales: %w", err)
		}
		sales = append(sales, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return sales, nil
}

type StockReport struct {
	Products   []models.Product `json:"products"`
	LowStock   []models.Product `json:"low_stock"`
	OutOfStock []models.Product `json:"out_of_stock"`
}

// GetStockReport lists the whole catalog lowest stock first, with low-stock
// and out-of-stock subsets broken out.
func GetStockReport(ctx context.Context, db *sql.DB) (*StockReport, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY stock, name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stock report: %w", err)
	}
	defer rows.Close()

	report := &StockReport{}
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		report.Products = append(report.Products, product)
		if product.Stock <= LowStockThreshold {
			report.LowStock = append(report.LowStock, product)
		}
		if product.Stock == 0 {
			report.OutOfStock = append(report.OutOfStock, product)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return report, nil
}
