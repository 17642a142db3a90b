package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/loan"
)

// DebtSyncJob reconciles each customer's current_debt column with the sum
// of their running loans. Loan creation keeps the column up to date in the
// same transaction, so this job only corrects drift, typically loans whose
// end date passed since the last run.
type DebtSyncJob struct {
	loanRepo loan.Repository
	timeout  time.Duration
	logger   *slog.Logger
}

func NewDebtSyncJob(loanRepo loan.Repository, timeout time.Duration, logger *slog.Logger) *DebtSyncJob {
	if loanRepo == nil || logger == nil {
		panic("DebtSyncJob dependencies cannot be nil")
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &DebtSyncJob{
		loanRepo: loanRepo,
		timeout:  timeout,
		logger:   logger.With("job", "DebtSync"),
	}
}

func (j *DebtSyncJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting nightly customer debt sync job.")

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	updated, err := j.loanRepo.SyncCustomerDebt(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Customer debt sync job failed.", slog.Any("error", err), slog.Duration("duration", time.Since(startTime)))
		return fmt.Errorf("cannot sync customer debt: %w", err)
	}

	j.logger.InfoContext(ctx, "Customer debt sync job finished successfully.",
		slog.Int64("customers_updated", updated),
		slog.Duration("duration", time.Since(startTime)),
	)
	return nil
}
