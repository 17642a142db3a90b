package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"
)

type CustomerHandler struct {
	service customer.CustomerService
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, l *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

// RegisterCustomer registers a new customer and derives their approved limit.
//
// @Summary Register a new customer
// @Description Creates a customer record. The approved credit limit is derived from the monthly income and returned in the response.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.RegisterCustomerRequest true "Customer registration payload"
// @Success 201 {object} dto.RegisterCustomerResponse "Customer successfully registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 409 {object} dto.ErrorResponse "Phone number already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /register [post]
// @Security BearerAuth
func (h *CustomerHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	cust, err := h.service.RegisterCustomer(r.Context(), req.FirstName, req.LastName, req.Age, req.PhoneNumber, req.MonthlyIncome)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewRegisterCustomerResponse(cust))
}

// GetCustomer retrieves one customer record.
//
// @Summary Retrieve customer details
// @Description Retrieves a customer by their ID.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {object} dto.RegisterCustomerResponse "Customer details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	cust, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewRegisterCustomerResponse(cust))
}

// ListCustomers lists all registered customers.
//
// @Summary List customers
// @Description Retrieves all registered customers.
// @Tags Customers
// @Produce json
// @Success 200 {array} dto.RegisterCustomerResponse "Customers successfully retrieved"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.RegisterCustomerResponse, len(customers))
	for i, cust := range customers {
		resp[i] = dto.NewRegisterCustomerResponse(cust)
	}
	respondJSON(w, http.StatusOK, resp)
}
