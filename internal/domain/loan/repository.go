package loan

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	CreateLoanInTx(ctx context.Context, tx pgx.Tx, newLoan *Loan) (*Loan, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	GetLoansByCustomerID(ctx context.Context, customerID int64) ([]Loan, error)

	GetLoansByCustomerIDInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]Loan, error)

	// LockCustomer takes a row lock on the customer so concurrent
	// creations for the same customer serialize around the
	// affordability check.
	LockCustomer(ctx context.Context, tx pgx.Tx, customerID int64) error

	SyncCustomerDebt(ctx context.Context) (int64, error)

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
