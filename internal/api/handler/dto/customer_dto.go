package dto

import (
	"fmt"
	"strings"

	"credit-engine/internal/domain/customer"
)

type RegisterCustomerRequest struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Age           int     `json:"age"`
	MonthlyIncome float64 `json:"monthly_income"`
	PhoneNumber   string  `json:"phone_number"`
}

func (r *RegisterCustomerRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return fmt.Errorf("first_name cannot be empty")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return fmt.Errorf("last_name cannot be empty")
	}
	return nil
}

type RegisterCustomerResponse struct {
	CustomerID    int64   `json:"customer_id"`
	Name          string  `json:"name"`
	Age           int     `json:"age"`
	MonthlyIncome float64 `json:"monthly_income"`
	ApprovedLimit float64 `json:"approved_limit"`
	PhoneNumber   string  `json:"phone_number"`
}

type CustomerSummary struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Age         int    `json:"age"`
}

func NewRegisterCustomerResponse(cust *customer.Customer) RegisterCustomerResponse {
	if cust == nil {
		return RegisterCustomerResponse{}
	}

	return RegisterCustomerResponse{
		CustomerID:    cust.CustomerID,
		Name:          cust.FirstName + " " + cust.LastName,
		Age:           cust.Age,
		MonthlyIncome: cust.MonthlySalary,
		ApprovedLimit: cust.ApprovedLimit,
		PhoneNumber:   cust.PhoneNumber,
	}
}

func NewCustomerSummary(cust *customer.Customer) CustomerSummary {
	if cust == nil {
		return CustomerSummary{}
	}

	return CustomerSummary{
		ID:          cust.CustomerID,
		FirstName:   cust.FirstName,
		LastName:    cust.LastName,
		PhoneNumber: cust.PhoneNumber,
		Age:         cust.Age,
	}
}
