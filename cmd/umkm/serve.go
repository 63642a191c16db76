package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/wibowo/umkm-backoffice/internal/config"
	"github.com/wibowo/umkm-backoffice/internal/database"
	"github.com/wibowo/umkm-backoffice/internal/store"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API server",
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

			log.Printf("Connected to database successfully")

			mux := http.NewServeMux()

			mux.HandleFunc("/products", handleProducts(db))
			mux.HandleFunc("/products/", handleProductByID(db))
			mux.HandleFunc("/customers", handleCustomers(db))
			mux.HandleFunc("/customers/", handleCustomerByID(db))
			mux.HandleFunc("/orders", handleOrders(db))
			mux.HandleFunc("/orders/", handleOrderByID(db))
			mux.HandleFunc("/dashboard", handleDashboard(db))
			mux.HandleFunc("/reports/sales", handleSalesReport(db))
			mux.HandleFunc("/reports/stock", handleStockReport(db))

			server := &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      mux,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			log.Printf("Server starting on port %s", cfg.Server.Port)
			return server.ListenAndServe()
		},
	}
}

type productPayload struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	IsActive    *bool   `json:"is_active"`
}

func (p productPayload) toRequest() store.ProductRequest {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return store.ProductRequest{
		Name:        p.Name,
		Description: p.Description,
		Price:       decimal.NewFromFloat(p.Price),
		Stock:       p.Stock,
		Category:    p.Category,
		IsActive:    active,
	}
}

func handleProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req productPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			product, err := store.CreateProduct(ctx, db, req.toRequest())
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, product)

		case http.MethodGet:
			page, pageSize := pageParams(r)
			filter := store.ProductFilter{
				Category:   r.URL.Query().Get("category"),
				ActiveOnly: r.URL.Query().Get("active") == "true",
			}

			result, err := store.ListProducts(ctx, db, filter, page, pageSize)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleProductByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/products/"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}

		switch r.Method {
		case http.MethodGet:
			product, err := store.GetProduct(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, product)

		case http.MethodPut:
			var req productPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			product, err := store.UpdateProduct(ctx, db, id, req.toRequest())
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, product)

		case http.MethodDelete:
			if err := store.DeleteProduct(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

type customerPayload struct {
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   string  `json:"phone"`
	Address string  `json:"address"`
	Notes   string  `json:"notes"`
	Status  string  `json:"status"`
}

func (p customerPayload) toRequest() store.CustomerRequest {
	return store.CustomerRequest{
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		Address: p.Address,
		Notes:   p.Notes,
		Status:  p.Status,
	}
}

func handleCustomers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req customerPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			customer, err := store.CreateCustomer(ctx, db, req.toRequest())
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, customer)

		case http.MethodGet:
			page, pageSize := pageParams(r)

			result, err := store.ListCustomers(ctx, db, r.URL.Query().Get("status"), page, pageSize)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCustomerByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/customers/"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid customer ID")
			return
		}

		switch r.Method {
		case http.MethodGet:
			customer, err := store.GetCustomer(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, customer)

		case http.MethodPut:
			var req customerPayload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			customer, err := store.UpdateCustomer(ctx, db, id, req.toRequest())
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, customer)

		case http.MethodDelete:
			if err := store.DeleteCustomer(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleOrders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				CustomerID *int64 `json:"customer_id"`
				Items      []struct {
					ProductID int64 `json:"product_id"`
					Quantity  int   `json:"quantity"`
				} `json:"items"`
				Notes     string `json:"notes"`
				OrderDate string `json:"order_date"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			orderDate, err := parseOrderDate(req.OrderDate)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid order date")
				return
			}

			var items []store.OrderItemRequest
			for _, item := range req.Items {
				items = append(items, store.OrderItemRequest{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
				})
			}

			order, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{
				CustomerID: req.CustomerID,
				Items:      items,
				Notes:      req.Notes,
				OrderDate:  orderDate,
			})
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, order)

		case http.MethodGet:
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			if limit < 1 || limit > 100 {
				limit = 10
			}

			result, err := store.ListOrdersCursor(ctx, db, r.URL.Query().Get("cursor"), limit)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleOrderByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rest := strings.TrimPrefix(r.URL.Path, "/orders/")
		cancel := false
		if s, ok := strings.CutSuffix(rest, "/cancel"); ok {
			rest = s
			cancel = true
		}

		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid order ID")
			return
		}

		if cancel {
			if r.Method != http.MethodPost {
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			if err := store.CancelOrder(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}
			order, err := store.GetOrder(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, order)
			return
		}

		switch r.Method {
		case http.MethodGet:
			order, err := store.GetOrder(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, order)

		case http.MethodPut:
			var req struct {
				CustomerID *int64 `json:"customer_id"`
				Status     string `json:"status"`
				Notes      string `json:"notes"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			order, err := store.UpdateOrder(ctx, db, id, store.UpdateOrderRequest{
				CustomerID: req.CustomerID,
				Status:     req.Status,
				Notes:      req.Notes,
			})
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, order)

		case http.MethodDelete:
			if err := store.DeleteOrder(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleDashboard(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		stats, err := store.GetDashboardStats(ctx, db)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		recent, err := store.RecentOrders(ctx, db, 5)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		now := time.Now()
		monthly, err := store.MonthlySalesSince(ctx, db, now.AddDate(0, -12, 0))
		if err != nil {
			respondStoreError(w, err)
			return
		}

		top, err := store.TopProducts(ctx, db, now.AddDate(0, -1, 0), 5)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"stats":         stats,
			"recent_orders": recent,
			"monthly_sales": monthly,
			"top_products":  top,
		})
	}
}

func handleSalesReport(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		now := time.Now()
		year, _ := strconv.Atoi(r.URL.Query().Get("year"))
		if year == 0 {
			year = now.Year()
		}
		month, _ := strconv.Atoi(r.URL.Query().Get("month"))
		if month == 0 {
			month = int(now.Month())
		}

		report, err := store.MonthlySalesReport(ctx, db, year, month)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		productSales, err := store.MonthlyProductSales(ctx, db, year, month)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"year":          year,
			"month":         month,
			"orders":        report.Orders,
			"total_sales":   report.TotalSales,
			"total_orders":  report.TotalOrders,
			"product_sales": productSales,
		})
	}
}

func handleStockReport(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		report, err := store.GetStockReport(ctx, db)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, report)
	}
}

func parseOrderDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func respondStoreError(w http.ResponseWriter, err error) {
	var vErr *store.ValidationError

	switch {
	case errors.As(err, &vErr):
		respondError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrCustomerNotFound),
		errors.Is(err, database.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrInsufficientStock),
		errors.Is(err, database.ErrDuplicateEmail),
		errors.Is(err, database.ErrProductInUse):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
