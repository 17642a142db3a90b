package loan

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/event"
	"credit-engine/internal/pkg/apperrors"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) CreateLoanInTx(ctx context.Context, tx pgx.Tx, newLoan *Loan) (*Loan, error) {
	ret := _m.Called(ctx, tx, newLoan)

	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	ret := _m.Called(ctx, loanID)

	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetLoansByCustomerID(ctx context.Context, customerID int64) ([]Loan, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetLoansByCustomerIDInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]Loan, error) {
	ret := _m.Called(ctx, tx, customerID)

	var r0 []Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) LockCustomer(ctx context.Context, tx pgx.Tx, customerID int64) error {
	ret := _m.Called(ctx, tx, customerID)
	return ret.Error(0)
}

func (_m *MockRepository) SyncCustomerDebt(ctx context.Context) (int64, error) {
	ret := _m.Called(ctx)
	return ret.Get(0).(int64), ret.Error(1)
}

func (_m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	ret := _m.Called(ctx)

	var r0 pgx.Tx
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(pgx.Tx)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)
	return ret.Error(0)
}

func (_m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)
	return ret.Error(0)
}

type MockCustomerService struct {
	mock.Mock
}

func (_m *MockCustomerService) RegisterCustomer(ctx context.Context, firstName, lastName string, age int, phoneNumber string, monthlyIncome float64) (*customer.Customer, error) {
	ret := _m.Called(ctx, firstName, lastName, age, phoneNumber, monthlyIncome)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	ret := _m.Called(ctx)

	var r0 []*customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*customer.Customer)
	}
	return r0, ret.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (_m *MockEventPublisher) PublishCustomerRegistered(ctx context.Context, evt event.CustomerRegisteredEvent) error {
	ret := _m.Called(ctx, evt)
	return ret.Error(0)
}

func (_m *MockEventPublisher) PublishLoanCreated(ctx context.Context, evt event.LoanCreatedEvent) error {
	ret := _m.Called(ctx, evt)
	return ret.Error(0)
}

type TxMock struct {
	pgx.Tx
}

func newServiceTest() (*MockRepository, *MockCustomerService, *MockEventPublisher, LoanService) {
	mockRepo := new(MockRepository)
	mockCustomers := new(MockCustomerService)
	mockPub := new(MockEventPublisher)
	svc := NewLoanService(mockRepo, mockCustomers, mockPub, DefaultScoringRules(), logger)
	return mockRepo, mockCustomers, mockPub, svc
}

func serviceTestCustomer() *customer.Customer {
	return &customer.Customer{
		CustomerID:    1,
		FirstName:     "Aarav",
		LastName:      "Sharma",
		Age:           32,
		PhoneNumber:   "9876543210",
		MonthlySalary: 50000,
		ApprovedLimit: 1800000,
	}
}

func TestCheckEligibility_Approved(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, _, svc := newServiceTest()

	mockCustomers.On("GetCustomer", ctx, int64(1)).Return(serviceTestCustomer(), nil)
	mockRepo.On("GetLoansByCustomerID", ctx, int64(1)).Return([]Loan{}, nil)

	d, err := svc.CheckEligibility(ctx, 1, 100000, 10, 12)

	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, d.Approved)
	assert.Equal(t, 100, d.Score)
	assert.Equal(t, 10.0, d.CorrectedRate)
	mockRepo.AssertExpectations(t)
	mockCustomers.AssertExpectations(t)
}

func TestCheckEligibility_CustomerNotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, _, svc := newServiceTest()

	mockCustomers.On("GetCustomer", ctx, int64(99)).Return(nil, customer.ErrNotFound)

	d, err := svc.CheckEligibility(ctx, 99, 100000, 10, 12)

	assert.Nil(t, d)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	mockRepo.AssertNotCalled(t, "GetLoansByCustomerID")
}

func TestCheckEligibility_InvalidRequest(t *testing.T) {
	ctx := context.Background()
	_, mockCustomers, _, svc := newServiceTest()

	d, err := svc.CheckEligibility(ctx, 1, -100, 10, 12)

	assert.Nil(t, d)
	var vErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
	mockCustomers.AssertNotCalled(t, "GetCustomer")
}

func TestCreateLoan_Approved(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, mockPub, svc := newServiceTest()
	tx := &TxMock{}

	mockCustomers.On("GetCustomer", ctx, int64(1)).Return(serviceTestCustomer(), nil)
	mockRepo.On("BeginTx", ctx).Return(tx, nil)
	mockRepo.On("LockCustomer", ctx, tx, int64(1)).Return(nil)
	mockRepo.On("GetLoansByCustomerIDInTx", ctx, tx, int64(1)).Return([]Loan{}, nil)
	created := &Loan{ID: 42, CustomerID: 1, LoanAmount: 100000, TenureMonths: 12, InterestRate: 10, MonthlyRepayment: 8791.59}
	mockRepo.On("CreateLoanInTx", ctx, tx, mock.AnythingOfType("*loan.Loan")).Return(created, nil)
	mockRepo.On("CommitTx", ctx, tx).Return(nil)
	mockPub.On("PublishLoanCreated", ctx, mock.AnythingOfType("event.LoanCreatedEvent")).Return(nil)

	createdLoan, d, err := svc.CreateLoan(ctx, 1, 100000, 10, 12)

	require.NoError(t, err)
	require.NotNil(t, createdLoan)
	require.NotNil(t, d)
	assert.True(t, d.Approved)
	assert.Equal(t, int64(42), createdLoan.ID)
	assert.Equal(t, 10.0, createdLoan.InterestRate)
	mockRepo.AssertNotCalled(t, "RollbackTx")
	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestCreateLoan_RejectedDecisionRollsBack(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, mockPub, svc := newServiceTest()
	tx := &TxMock{}

	cust := serviceTestCustomer()
	// Past borrowing above the approved limit zeroes the score.
	overexposed := []Loan{{
		CustomerID:     1,
		LoanAmount:     2000000,
		TenureMonths:   24,
		EMIsPaidOnTime: 24,
		StartDate:      time.Now().AddDate(-2, 0, 0),
	}}

	mockCustomers.On("GetCustomer", ctx, int64(1)).Return(cust, nil)
	mockRepo.On("BeginTx", ctx).Return(tx, nil)
	mockRepo.On("LockCustomer", ctx, tx, int64(1)).Return(nil)
	mockRepo.On("GetLoansByCustomerIDInTx", ctx, tx, int64(1)).Return(overexposed, nil)
	mockRepo.On("RollbackTx", ctx, tx).Return(nil)

	createdLoan, d, err := svc.CreateLoan(ctx, 1, 100000, 10, 12)

	require.NoError(t, err)
	assert.Nil(t, createdLoan)
	require.NotNil(t, d)
	assert.False(t, d.Approved)
	assert.Equal(t, ReasonScoreTooLow, d.Reason)
	mockRepo.AssertNotCalled(t, "CreateLoanInTx")
	mockRepo.AssertNotCalled(t, "CommitTx")
	mockPub.AssertNotCalled(t, "PublishLoanCreated")
	mockRepo.AssertExpectations(t)
}

func TestCreateLoan_LockMissReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, _, svc := newServiceTest()
	tx := &TxMock{}

	mockCustomers.On("GetCustomer", ctx, int64(1)).Return(serviceTestCustomer(), nil)
	mockRepo.On("BeginTx", ctx).Return(tx, nil)
	mockRepo.On("LockCustomer", ctx, tx, int64(1)).Return(apperrors.ErrNotFound)
	mockRepo.On("RollbackTx", ctx, tx).Return(nil)

	createdLoan, d, err := svc.CreateLoan(ctx, 1, 100000, 10, 12)

	assert.Nil(t, createdLoan)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestCreateLoan_CommitFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, mockPub, svc := newServiceTest()
	tx := &TxMock{}

	mockCustomers.On("GetCustomer", ctx, int64(1)).Return(serviceTestCustomer(), nil)
	mockRepo.On("BeginTx", ctx).Return(tx, nil)
	mockRepo.On("LockCustomer", ctx, tx, int64(1)).Return(nil)
	mockRepo.On("GetLoansByCustomerIDInTx", ctx, tx, int64(1)).Return([]Loan{}, nil)
	mockRepo.On("CreateLoanInTx", ctx, tx, mock.AnythingOfType("*loan.Loan")).Return(&Loan{ID: 42}, nil)
	mockRepo.On("CommitTx", ctx, tx).Return(errors.New("connection reset"))
	mockRepo.On("RollbackTx", ctx, tx).Return(nil)

	createdLoan, d, err := svc.CreateLoan(ctx, 1, 100000, 10, 12)

	assert.Nil(t, createdLoan)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	mockPub.AssertNotCalled(t, "PublishLoanCreated")
	mockRepo.AssertExpectations(t)
}

func TestGetLoan(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, _, svc := newServiceTest()

	stored := &Loan{ID: 42, CustomerID: 1, LoanAmount: 100000, TenureMonths: 12, InterestRate: 10, MonthlyRepayment: 8791.59}
	mockRepo.On("GetLoanByID", ctx, int64(42)).Return(stored, nil)
	mockCustomers.On("GetCustomer", ctx, int64(1)).Return(serviceTestCustomer(), nil)

	l, cust, err := svc.GetLoan(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, stored, l)
	require.NotNil(t, cust)
	assert.Equal(t, int64(1), cust.CustomerID)
	mockRepo.AssertExpectations(t)
}

func TestGetLoan_NotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, _, svc := newServiceTest()

	mockRepo.On("GetLoanByID", ctx, int64(404)).Return(nil, apperrors.ErrNotFound)

	l, cust, err := svc.GetLoan(ctx, 404)

	assert.Nil(t, l)
	assert.Nil(t, cust)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	mockCustomers.AssertNotCalled(t, "GetCustomer")
}

func TestListCustomerLoans(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, _, svc := newServiceTest()

	loans := []Loan{{ID: 42, CustomerID: 1}, {ID: 43, CustomerID: 1}}
	mockCustomers.On("GetCustomer", ctx, int64(1)).Return(serviceTestCustomer(), nil)
	mockRepo.On("GetLoansByCustomerID", ctx, int64(1)).Return(loans, nil)

	got, err := svc.ListCustomerLoans(ctx, 1)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	mockRepo.AssertExpectations(t)
}

func TestListCustomerLoans_CustomerNotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, _, svc := newServiceTest()

	mockCustomers.On("GetCustomer", ctx, int64(99)).Return(nil, customer.ErrNotFound)

	got, err := svc.ListCustomerLoans(ctx, 99)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	mockRepo.AssertNotCalled(t, "GetLoansByCustomerID")
}

// TestCreateLoan_FullApprovalFlow walks a complete first-loan approval
// for a salaried customer with no repayment history: a perfect score,
// the requested rate kept as-is, and the computed installment well
// under half the monthly salary.
func TestCreateLoan_FullApprovalFlow(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockCustomers, mockPub, svc := newServiceTest()
	tx := &TxMock{}

	cust := &customer.Customer{
		CustomerID:    7,
		FirstName:     "Priya",
		LastName:      "Nair",
		Age:           29,
		PhoneNumber:   "9123456780",
		MonthlySalary: 80000,
		ApprovedLimit: 3000000,
	}

	mockCustomers.On("GetCustomer", ctx, int64(7)).Return(cust, nil)
	mockRepo.On("BeginTx", ctx).Return(tx, nil)
	mockRepo.On("LockCustomer", ctx, tx, int64(7)).Return(nil)
	mockRepo.On("GetLoansByCustomerIDInTx", ctx, tx, int64(7)).Return([]Loan{}, nil)

	var persisted *Loan
	mockRepo.On("CreateLoanInTx", ctx, tx, mock.AnythingOfType("*loan.Loan")).
		Run(func(args mock.Arguments) {
			persisted = args.Get(2).(*Loan)
		}).
		Return(&Loan{ID: 9, CustomerID: 7, LoanAmount: 100000, TenureMonths: 12, InterestRate: 10, MonthlyRepayment: 8791.59}, nil)
	mockRepo.On("CommitTx", ctx, tx).Return(nil)
	mockPub.On("PublishLoanCreated", ctx, mock.AnythingOfType("event.LoanCreatedEvent")).Return(nil)

	createdLoan, d, err := svc.CreateLoan(ctx, 7, 100000, 10, 12)

	require.NoError(t, err)
	require.NotNil(t, createdLoan)
	require.NotNil(t, d)

	assert.True(t, d.Approved)
	assert.Equal(t, 100, d.Score)
	assert.Equal(t, 10.0, d.CorrectedRate)
	assert.Equal(t, 8791.59, d.MonthlyInstallment)
	assert.Empty(t, d.Reason)

	require.NotNil(t, persisted)
	assert.Equal(t, int64(7), persisted.CustomerID)
	assert.Equal(t, 100000.0, persisted.LoanAmount)
	assert.Equal(t, 12, persisted.TenureMonths)
	assert.Equal(t, 10.0, persisted.InterestRate)
	assert.Equal(t, 8791.59, persisted.MonthlyRepayment)

	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}
