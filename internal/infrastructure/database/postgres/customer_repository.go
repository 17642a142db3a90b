package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	if cust.CustomerID == 0 {
		return r.createCustomer(ctx, cust)
	}
	return r.updateCustomer(ctx, cust)
}

func (r *CustomerRepository) createCustomer(ctx context.Context, cust *customer.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("phoneNumber", cust.PhoneNumber))

	query := `
        INSERT INTO customers (first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	).Scan(
		&cust.CustomerID,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Unique constraint violation on customer insert", slog.String("phoneNumber", cust.PhoneNumber))
			return fmt.Errorf("%w: %w", customer.ErrDuplicatePhoneNumber, translatedErr)
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", translatedErr))
		return translatedErr
	}

	r.logger.InfoContext(ctx, "Customer inserted", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) updateCustomer(ctx context.Context, cust *customer.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", cust.CustomerID))

	query := `
        UPDATE customers
        SET first_name = $1,
            last_name = $2,
            age = $3,
            phone_number = $4,
            monthly_salary = $5,
            current_debt = $6,
            updated_at = NOW()
        WHERE id = $7`

	cmdTag, err := r.db.Exec(ctx, query,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.CurrentDebt,
		cust.CustomerID,
	)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", translatedErr))
		return translatedErr
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Customer update affected zero rows", slog.Int64("customerID", cust.CustomerID))
		return customer.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	query := `
        SELECT id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at
        FROM customers
        WHERE id = $1`
	status := "success"
	startTime := time.Now()

	var cust customer.Customer
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&cust.CustomerID, &cust.FirstName, &cust.LastName, &cust.Age,
		&cust.PhoneNumber, &cust.MonthlySalary, &cust.ApprovedLimit,
		&cust.CurrentDebt, &cust.CreatedAt, &cust.UpdatedAt,
	)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("FindCustomerByID", status, time.Since(startTime))

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrNotFound) {
			r.logger.WarnContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get customer by ID", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, translatedErr
	}
	return &cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	query := `
        SELECT id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at
        FROM customers
        ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		var cust customer.Customer
		err := rows.Scan(
			&cust.CustomerID, &cust.FirstName, &cust.LastName, &cust.Age,
			&cust.PhoneNumber, &cust.MonthlySalary, &cust.ApprovedLimit,
			&cust.CurrentDebt, &cust.CreatedAt, &cust.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, translateDBError(err, r.logger)
		}
		customers = append(customers, &cust)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, translateDBError(err, r.logger)
	}

	return customers, nil
}
