package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) RegisterCustomer(ctx context.Context, firstName, lastName string, age int, phoneNumber string, monthlyIncome float64) (*customer.Customer, error) {
	args := m.Called(ctx, firstName, lastName, age, phoneNumber, monthlyIncome)
	if cust, ok := args.Get(0).(*customer.Customer); ok {
		return cust, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if cust, ok := args.Get(0).(*customer.Customer); ok {
		return cust, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	args := m.Called(ctx)
	if customers, ok := args.Get(0).([]*customer.Customer); ok {
		return customers, args.Error(1)
	}
	return nil, args.Error(1)
}

func newCustomerHandlerTest() (*MockCustomerService, *CustomerHandler) {
	mockService := new(MockCustomerService)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return mockService, NewCustomerHandler(mockService, logger)
}

func TestCustomerHandlerRegisterCustomer(t *testing.T) {
	t.Run("registers a customer and returns the approved limit", func(t *testing.T) {
		mockService, handler := newCustomerHandlerTest()
		cust := &customer.Customer{
			CustomerID:    9,
			FirstName:     "Aarav",
			LastName:      "Sharma",
			Age:           32,
			PhoneNumber:   "9876543210",
			MonthlySalary: 50000,
			ApprovedLimit: 1800000,
		}
		mockService.On("RegisterCustomer", mock.Anything, "Aarav", "Sharma", 32, "9876543210", 50000.0).Return(cust, nil)

		body := `{"first_name":"Aarav","last_name":"Sharma","age":32,"monthly_income":50000,"phone_number":"9876543210"}`
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.RegisterCustomer(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.RegisterCustomerResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, int64(9), resp.CustomerID)
		assert.Equal(t, "Aarav Sharma", resp.Name)
		assert.Equal(t, 1800000.0, resp.ApprovedLimit)
		mockService.AssertExpectations(t)
	})

	t.Run("returns 400 when first_name is blank", func(t *testing.T) {
		mockService, handler := newCustomerHandlerTest()

		body := `{"first_name":"  ","last_name":"Sharma","age":32,"monthly_income":50000,"phone_number":"9876543210"}`
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.RegisterCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "RegisterCustomer")
	})

	t.Run("returns 400 for a service validation error", func(t *testing.T) {
		mockService, handler := newCustomerHandlerTest()
		mockService.On("RegisterCustomer", mock.Anything, "Aarav", "Sharma", -1, "9876543210", 50000.0).
			Return(nil, apperrors.NewValidationError("age", "age must be greater than zero"))

		body := `{"first_name":"Aarav","last_name":"Sharma","age":-1,"monthly_income":50000,"phone_number":"9876543210"}`
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.RegisterCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.ErrorResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "age", resp.Error.Field)
		mockService.AssertExpectations(t)
	})

	t.Run("returns 409 for a duplicate phone number", func(t *testing.T) {
		mockService, handler := newCustomerHandlerTest()
		mockService.On("RegisterCustomer", mock.Anything, "Aarav", "Sharma", 32, "9876543210", 50000.0).
			Return(nil, customer.ErrDuplicatePhoneNumber)

		body := `{"first_name":"Aarav","last_name":"Sharma","age":32,"monthly_income":50000,"phone_number":"9876543210"}`
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.RegisterCustomer(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestCustomerHandlerGetCustomer(t *testing.T) {
	t.Run("retrieves a customer", func(t *testing.T) {
		mockService, handler := newCustomerHandlerTest()
		cust := &customer.Customer{CustomerID: 9, FirstName: "Aarav", LastName: "Sharma"}
		mockService.On("GetCustomer", mock.Anything, int64(9)).Return(cust, nil)

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/customers/9", nil), "customerID", "9")
		rec := httptest.NewRecorder()

		handler.GetCustomer(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("returns 404 for a missing customer", func(t *testing.T) {
		mockService, handler := newCustomerHandlerTest()
		mockService.On("GetCustomer", mock.Anything, int64(99)).Return(nil, apperrors.ErrNotFound)

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/customers/99", nil), "customerID", "99")
		rec := httptest.NewRecorder()

		handler.GetCustomer(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestCustomerHandlerListCustomers(t *testing.T) {
	mockService, handler := newCustomerHandlerTest()
	customers := []*customer.Customer{
		{CustomerID: 1, FirstName: "Aarav", LastName: "Sharma"},
		{CustomerID: 2, FirstName: "Diya", LastName: "Patel"},
	}
	mockService.On("ListCustomers", mock.Anything).Return(customers, nil)

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	rec := httptest.NewRecorder()

	handler.ListCustomers(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.RegisterCustomerResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp, 2)
	mockService.AssertExpectations(t)
}
