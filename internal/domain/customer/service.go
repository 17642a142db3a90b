package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

const customerNotFound = "Customer not found by repository"

type CustomerService interface {
	RegisterCustomer(ctx context.Context, firstName, lastName string, age int, phoneNumber string, monthlyIncome float64) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	ListCustomers(ctx context.Context) ([]*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, eventPublisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	return &customerService{
		repo:   repo,
		pub:    eventPublisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) RegisterCustomer(ctx context.Context, firstName, lastName string, age int, phoneNumber string, monthlyIncome float64) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register new customer")

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phoneNumber = strings.TrimSpace(phoneNumber)
	if firstName == "" {
		s.logger.WarnContext(ctx, "Validation failed: first name is empty")
		return nil, apperrors.NewValidationError("first_name", "first_name is required")
	}
	if lastName == "" {
		s.logger.WarnContext(ctx, "Validation failed: last name is empty")
		return nil, apperrors.NewValidationError("last_name", "last_name is required")
	}
	if age <= 0 {
		s.logger.WarnContext(ctx, "Validation failed: non-positive age", slog.Int("age", age))
		return nil, apperrors.NewValidationError("age", "age is required")
	}
	if phoneNumber == "" {
		s.logger.WarnContext(ctx, "Validation failed: phone number is empty")
		return nil, apperrors.NewValidationError("phone_number", "phone_number is required")
	}
	if monthlyIncome <= 0 {
		s.logger.WarnContext(ctx, "Validation failed: non-positive monthly income")
		return nil, apperrors.NewValidationError("monthly_income", "monthly_income must be a positive number")
	}

	cust := NewCustomer(firstName, lastName, age, phoneNumber, monthlyIncome)
	s.logger.InfoContext(ctx, "Customer domain object created", slog.Float64("approvedLimit", cust.ApprovedLimit))

	if err := s.repo.Save(ctx, cust); err != nil {
		if errors.Is(err, ErrDuplicatePhoneNumber) || errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "Duplicate phone number on registration")
			return nil, fmt.Errorf("%w: %w", ErrDuplicatePhoneNumber, apperrors.ErrAlreadyExists)
		}
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	monitoring.RecordCustomerRegistered()

	s.publishRegisteredEvent(ctx, cust)

	s.logger.InfoContext(ctx, "Successfully registered new customer", slog.Int64("customerID", cust.CustomerID))
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to get customer by ID", slog.Int64("customerID", customerID))

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	return cust, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to list customers")

	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) publishRegisteredEvent(ctx context.Context, cust *Customer) {
	if s.pub == nil {
		return
	}
	evt := event.CustomerRegisteredEvent{
		Timestamp: time.Now(),
		Payload: event.CustomerPayload{
			CustomerID:    cust.CustomerID,
			FirstName:     cust.FirstName,
			LastName:      cust.LastName,
			PhoneNumber:   cust.PhoneNumber,
			MonthlySalary: cust.MonthlySalary,
			ApprovedLimit: cust.ApprovedLimit,
		},
	}
	if err := s.pub.PublishCustomerRegistered(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Customer registered, but FAILED to publish registration event", slog.Any("error", err))
	} else {
		s.logger.InfoContext(ctx, "Successfully published customer registration event")
	}
}
