package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wibowo/umkm-backoffice/internal/database"
	"github.com/wibowo/umkm-backoffice/internal/models"
)

type CustomerRequest struct {
	Name    string
	Email   *string
	Phone   string
	Address string
	Notes   string
	Status  string
}

func (r CustomerRequest) validate() error {
	if r.Name == "" {
		return validationErr("name", "customer name is required")
	}
	if r.Status != "" && !models.ValidCustomerStatus(r.Status) {
		return validationErr("status", "status must be active or inactive")
	}
	return nil
}

const customerColumns = "id, name, email, phone, address, notes, status, created_at, updated_at"

func scanCustomer(row interface{ Scan(...interface{}) error }, customer *models.Customer) error {
	var email sql.NullString
	err := row.Scan(
		&customer.ID,
		&customer.Name,
		&email,
		&customer.Phone,
		&customer.Address,
		&customer.Notes,
		&customer.Status,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if email.Valid {
		customer.Email = &email.String
	}
	return nil
}

func CreateCustomer(ctx context.Context, db *sql.DB, req CustomerRequest) (*models.Customer, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.CustomerStatusActive
	}

	customer := &models.Customer{}

	query := `
		INSERT INTO customers (name, email, phone, address, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + customerColumns

	err := scanCustomer(db.QueryRowContext(ctx, query,
		req.Name, req.Email, req.Phone, req.Address, req.Notes, status), customer)
	if err != nil {
		if database.IsUniqueViolation(err, "customers_email_key") {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return customer, nil
}

func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*models.Customer, error) {
	customer := &models.Customer{}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	err := scanCustomer(db.QueryRowContext(ctx, query, id), customer)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

func UpdateCustomer(ctx context.Context, db *sql.DB, id int64, req CustomerRequest) (*models.Customer, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.CustomerStatusActive
	}

	customer := &models.Customer{}

	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, address = $4, notes = $5, status = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING ` + customerColumns

	err := scanCustomer(db.QueryRowContext(ctx, query,
		req.Name, req.Email, req.Phone, req.Address, req.Notes, status, id), customer)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		if database.IsUniqueViolation(err, "customers_email_key") {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}

	return customer, nil
}

// DeleteCustomer removes the customer. Their orders survive with customer_id
// set to NULL (guest orders), keeping sales history intact.
func DeleteCustomer(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCustomerNotFound
	}

	return nil
}

func ListCustomers(ctx context.Context, db *sql.DB, status string, page, pageSize int) (*OffsetPage, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		if !models.ValidCustomerStatus(status) {
			return nil, validationErr("status", "status must be active or inactive")
		}
		where = "WHERE status = $1"
		args = append(args, status)
	}

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers `+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`
		SELECT %s
		FROM customers
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, customerColumns, where, len(args)-1, len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var customer models.Customer
		if err := scanCustomer(rows, &customer); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      customers,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}
