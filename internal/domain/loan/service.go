package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

type LoanService interface {
	CheckEligibility(ctx context.Context, customerID int64, loanAmount, interestRate float64, tenureMonths int) (*Decision, error)

	CreateLoan(ctx context.Context, customerID int64, loanAmount, interestRate float64, tenureMonths int) (*Loan, *Decision, error)

	GetLoan(ctx context.Context, loanID int64) (*Loan, *customer.Customer, error)

	ListCustomerLoans(ctx context.Context, customerID int64) ([]Loan, error)
}

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	pub             event.EventPublisher
	rules           ScoringRules
	logger          *slog.Logger
}

func NewLoanService(r Repository, cs customer.CustomerService, pub event.EventPublisher, rules ScoringRules, logger *slog.Logger) LoanService {
	return &loanServiceImpl{
		repo:            r,
		customerService: cs,
		pub:             pub,
		rules:           rules,
		logger:          logger.With("component", "loanService"),
	}
}

func (s *loanServiceImpl) CheckEligibility(ctx context.Context, customerID int64, loanAmount, interestRate float64, tenureMonths int) (*Decision, error) {
	s.logger.InfoContext(ctx, "Checking loan eligibility", "customerID", customerID)

	if err := ValidateLoanRequest(loanAmount, tenureMonths); err != nil {
		s.logger.WarnContext(ctx, "Eligibility request failed validation", slog.Any("error", err))
		return nil, err
	}

	cust, err := s.getCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.GetLoansByCustomerID(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load loan history", "customerID", customerID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to load loan history for customer %d: %v", apperrors.ErrInternalServer, customerID, err)
	}

	d, err := Decide(cust, history, loanAmount, interestRate, tenureMonths, s.rules, time.Now())
	if err != nil {
		return nil, err
	}
	monitoring.RecordDecision(d.Outcome())

	s.logger.InfoContext(ctx, "Eligibility decision made",
		"customerID", customerID, "score", d.Score, "approved", d.Approved, "correctedRate", d.CorrectedRate)
	return &d, nil
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, customerID int64, loanAmount, interestRate float64, tenureMonths int) (createdLoan *Loan, decision *Decision, err error) {
	s.logger.InfoContext(ctx, "Creating new loan", "customerID", customerID)

	if err := ValidateLoanRequest(loanAmount, tenureMonths); err != nil {
		s.logger.WarnContext(ctx, "Loan creation request failed validation", slog.Any("error", err))
		return nil, nil, err
	}

	cust, err := s.getCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.ErrorContext(ctx, "Panic occurred during loan creation", "customerID", customerID, "error", p)
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil || createdLoan == nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	// Serialize with other creations for this customer so both cannot
	// pass the affordability check against the same EMI snapshot.
	if err = s.repo.LockCustomer(ctx, tx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: customer with ID %d not found", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Failed to lock customer row", "customerID", customerID, slog.Any("error", err))
		return nil, nil, fmt.Errorf("%w: could not lock customer %d: %v", apperrors.ErrInternalServer, customerID, err)
	}

	history, err := s.repo.GetLoansByCustomerIDInTx(ctx, tx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load loan history in transaction", "customerID", customerID, slog.Any("error", err))
		return nil, nil, fmt.Errorf("%w: failed to load loan history for customer %d: %v", apperrors.ErrInternalServer, customerID, err)
	}

	d, err := Decide(cust, history, loanAmount, interestRate, tenureMonths, s.rules, time.Now())
	if err != nil {
		return nil, nil, err
	}
	monitoring.RecordDecision(d.Outcome())

	if !d.Approved {
		s.logger.InfoContext(ctx, "Loan creation rejected by decision engine",
			"customerID", customerID, "score", d.Score, "reason", d.Reason)
		return nil, &d, nil
	}

	newLoan := NewLoan(customerID, d, time.Now().Truncate(24*time.Hour))
	createdLoan, err = s.repo.CreateLoanInTx(ctx, tx, newLoan)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert approved loan", "customerID", customerID, slog.Any("error", err))
		return nil, nil, fmt.Errorf("%w: failed to save loan: %v", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		createdLoan = nil
		s.logger.ErrorContext(ctx, "Failed to commit loan creation", "customerID", customerID, slog.Any("error", err))
		return nil, nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}
	monitoring.RecordLoanCreated()

	s.publishLoanCreatedEvent(ctx, createdLoan)

	s.logger.InfoContext(ctx, "Loan created successfully", "loanID", createdLoan.ID, "customerID", customerID)
	return createdLoan, &d, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Loan, *customer.Customer, error) {
	s.logger.InfoContext(ctx, "Getting loan details", "loanID", loanID)

	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, slog.Any("error", err))
		return nil, nil, fmt.Errorf("%w: failed to get loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}

	cust, err := s.getCustomer(ctx, l.CustomerID)
	if err != nil {
		return nil, nil, err
	}

	return l, cust, nil
}

func (s *loanServiceImpl) ListCustomerLoans(ctx context.Context, customerID int64) ([]Loan, error) {
	s.logger.InfoContext(ctx, "Listing customer loans", "customerID", customerID)

	if _, err := s.getCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	loans, err := s.repo.GetLoansByCustomerID(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list customer loans", "customerID", customerID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list loans for customer %d: %v", apperrors.ErrInternalServer, customerID, err)
	}

	return loans, nil
}

func (s *loanServiceImpl) getCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	cust, err := s.customerService.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found", "customerID", customerID)
			return nil, fmt.Errorf("%w: customer with ID %d not found", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Failed to get customer details from customer service", slog.Any("error", err))
		return nil, fmt.Errorf("failed to verify customer: %w", err)
	}
	return cust, nil
}

func (s *loanServiceImpl) publishLoanCreatedEvent(ctx context.Context, l *Loan) {
	if s.pub == nil {
		return
	}
	evt := event.LoanCreatedEvent{
		Timestamp: time.Now(),
		Payload: event.LoanPayload{
			LoanID:             l.ID,
			CustomerID:         l.CustomerID,
			LoanAmount:         l.LoanAmount,
			TenureMonths:       l.TenureMonths,
			InterestRate:       l.InterestRate,
			MonthlyInstallment: l.MonthlyRepayment,
			StartDate:          l.StartDate,
			EndDate:            l.EndDate,
		},
	}
	if err := s.pub.PublishLoanCreated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Loan created, but FAILED to publish creation event", slog.Any("error", err))
	} else {
		s.logger.InfoContext(ctx, "Successfully published loan creation event")
	}
}
