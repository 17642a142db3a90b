package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var _ loan.Repository = (*LoanRepository)(nil)

var errMsgFormat = "%w: %w"

const loanColumns = `id, customer_id, loan_amount, tenure_months, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at`

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Commit(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)

		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

// LockCustomer takes a row lock on the customer so concurrent loan creations
// for the same customer serialize against each other.
func (r *LoanRepository) LockCustomer(ctx context.Context, tx pgx.Tx, customerID int64) error {
	query := `SELECT id FROM customers WHERE id = $1 FOR UPDATE`

	var id int64
	err := tx.QueryRow(ctx, query, customerID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found while locking", "customer_id", customerID)
			return apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock customer row", "customer_id", customerID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) CreateLoanInTx(ctx context.Context, tx pgx.Tx, newLoan *loan.Loan) (*loan.Loan, error) {
	loanSQL := `
        INSERT INTO loans (customer_id, loan_amount, tenure_months, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING ` + loanColumns

	var created loan.Loan
	err := tx.QueryRow(ctx, loanSQL,
		newLoan.CustomerID, newLoan.LoanAmount, newLoan.TenureMonths, newLoan.InterestRate,
		newLoan.MonthlyRepayment, newLoan.EMIsPaidOnTime, newLoan.StartDate, newLoan.EndDate,
	).Scan(
		&created.ID, &created.CustomerID, &created.LoanAmount, &created.TenureMonths,
		&created.InterestRate, &created.MonthlyRepayment, &created.EMIsPaidOnTime,
		&created.StartDate, &created.EndDate, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}
	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", created.ID, "customer_id", created.CustomerID)

	updateDebtSQL := `
        UPDATE customers
        SET current_debt = current_debt + $1, updated_at = NOW()
        WHERE id = $2`

	cmdTag, err := tx.Exec(ctx, updateDebtSQL, created.LoanAmount, created.CustomerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update customer debt", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to update customer debt: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Error("Customer row missing while updating debt", slog.Int64("customerID", created.CustomerID))
		return nil, fmt.Errorf("%w: customer %d not found while updating debt", apperrors.ErrConflict, created.CustomerID)
	}

	return &created, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE id = $1`
	status := "success"
	startTime := time.Now()

	var l loan.Loan
	err := r.db.QueryRow(ctx, query, loanID).Scan(
		&l.ID, &l.CustomerID, &l.LoanAmount, &l.TenureMonths,
		&l.InterestRate, &l.MonthlyRepayment, &l.EMIsPaidOnTime,
		&l.StartDate, &l.EndDate, &l.CreatedAt, &l.UpdatedAt,
	)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetLoanByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &l, nil
}

func (r *LoanRepository) GetLoansByCustomerID(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE customer_id = $1
        ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customer loans", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	return r.scanLoans(ctx, rows, customerID)
}

func (r *LoanRepository) GetLoansByCustomerIDInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]loan.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE customer_id = $1
        ORDER BY id ASC`

	rows, err := tx.Query(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customer loans in tx", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	return r.scanLoans(ctx, rows, customerID)
}

func (r *LoanRepository) scanLoans(ctx context.Context, rows pgx.Rows, customerID int64) ([]loan.Loan, error) {
	loans := make([]loan.Loan, 0)
	for rows.Next() {
		var l loan.Loan
		err := rows.Scan(
			&l.ID, &l.CustomerID, &l.LoanAmount, &l.TenureMonths,
			&l.InterestRate, &l.MonthlyRepayment, &l.EMIsPaidOnTime,
			&l.StartDate, &l.EndDate, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "customer_id", customerID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}

	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return loans, nil
}

// SyncCustomerDebt recomputes each customer's current_debt from the loans
// that are still running. Meant for the nightly reconciliation job.
func (r *LoanRepository) SyncCustomerDebt(ctx context.Context) (int64, error) {
	logCtx := r.logger.With(slog.String("operation", "SyncCustomerDebt"))
	logCtx.DebugContext(ctx, "Attempting to sync customer debt from active loans")

	query := `
        UPDATE customers c
        SET current_debt = COALESCE(agg.total, 0), updated_at = NOW()
        FROM (
            SELECT cu.id AS customer_id, SUM(l.loan_amount) FILTER (WHERE l.end_date >= NOW()) AS total
            FROM customers cu
            LEFT JOIN loans l ON l.customer_id = cu.id
            GROUP BY cu.id
        ) agg
        WHERE c.id = agg.customer_id
          AND c.current_debt IS DISTINCT FROM COALESCE(agg.total, 0)`

	status := "success"
	startTime := time.Now()
	cmdTag, err := r.db.Exec(ctx, query)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("SyncCustomerDebt", status, time.Since(startTime))

	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to sync customer debt", slog.Any("error", err))
		return 0, fmt.Errorf("%w: failed to sync customer debt: %w", apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Finished syncing customer debt", slog.Int64("rows_updated", cmdTag.RowsAffected()))
	return cmdTag.RowsAffected(), nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {

		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
