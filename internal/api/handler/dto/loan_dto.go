package dto

import (
	"fmt"

	"credit-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type EligibilityRequest struct {
	CustomerID   int64   `json:"customer_id"`
	LoanAmount   float64 `json:"loan_amount"`
	InterestRate float64 `json:"interest_rate"`
	Tenure       int     `json:"tenure"`
}

func (r *EligibilityRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customer_id must be a positive number")
	}
	return nil
}

type CreateLoanRequest struct {
	CustomerID   int64   `json:"customer_id"`
	LoanAmount   float64 `json:"loan_amount"`
	InterestRate float64 `json:"interest_rate"`
	Tenure       int     `json:"tenure"`
}

func (r *CreateLoanRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customer_id must be a positive number")
	}
	return nil
}

type EligibilityResponse struct {
	CustomerID            int64   `json:"customer_id"`
	Approval              bool    `json:"approval"`
	InterestRate          float64 `json:"interest_rate"`
	CorrectedInterestRate float64 `json:"corrected_interest_rate"`
	Tenure                int     `json:"tenure"`
	MonthlyInstallment    float64 `json:"monthly_installment"`
	Reason                string  `json:"reason,omitempty"`
}

type CreateLoanResponse struct {
	LoanID             *int64  `json:"loan_id"`
	CustomerID         int64   `json:"customer_id"`
	LoanApproved       bool    `json:"loan_approved"`
	Message            string  `json:"message,omitempty"`
	MonthlyInstallment float64 `json:"monthly_installment"`
}

type ViewLoanResponse struct {
	LoanID             int64           `json:"loan_id"`
	Customer           CustomerSummary `json:"customer"`
	LoanAmount         float64         `json:"loan_amount"`
	InterestRate       float64         `json:"interest_rate"`
	MonthlyInstallment float64         `json:"monthly_installment"`
	Tenure             int             `json:"tenure"`
}

type CustomerLoanItem struct {
	LoanID             int64   `json:"loan_id"`
	LoanAmount         float64 `json:"loan_amount"`
	InterestRate       float64 `json:"interest_rate"`
	MonthlyInstallment float64 `json:"monthly_installment"`
	RepaymentsLeft     int     `json:"repayments_left"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

// money normalizes monetary floats to two decimal places so JSON output
// does not leak binary float artifacts like 8791.589999999998.
func money(f float64) float64 {
	v, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return v
}

func NewEligibilityResponse(d *loan.Decision) EligibilityResponse {
	return EligibilityResponse{
		CustomerID:            d.CustomerID,
		Approval:              d.Approved,
		InterestRate:          d.RequestedRate,
		CorrectedInterestRate: d.CorrectedRate,
		Tenure:                d.TenureMonths,
		MonthlyInstallment:    money(d.MonthlyInstallment),
		Reason:                d.Reason,
	}
}

func NewCreateLoanResponse(createdLoan *loan.Loan, d *loan.Decision) CreateLoanResponse {
	resp := CreateLoanResponse{
		CustomerID:         d.CustomerID,
		LoanApproved:       d.Approved,
		Message:            d.Reason,
		MonthlyInstallment: money(d.MonthlyInstallment),
	}
	if createdLoan != nil {
		id := createdLoan.ID
		resp.LoanID = &id
		resp.MonthlyInstallment = money(createdLoan.MonthlyRepayment)
	}
	return resp
}

func NewViewLoanResponse(l *loan.Loan, summary CustomerSummary) ViewLoanResponse {
	return ViewLoanResponse{
		LoanID:             l.ID,
		Customer:           summary,
		LoanAmount:         l.LoanAmount,
		InterestRate:       l.InterestRate,
		MonthlyInstallment: money(l.MonthlyRepayment),
		Tenure:             l.TenureMonths,
	}
}

func NewCustomerLoanItems(loans []loan.Loan) []CustomerLoanItem {
	items := make([]CustomerLoanItem, len(loans))
	for i, l := range loans {
		items[i] = CustomerLoanItem{
			LoanID:             l.ID,
			LoanAmount:         l.LoanAmount,
			InterestRate:       l.InterestRate,
			MonthlyInstallment: money(l.MonthlyRepayment),
			RepaymentsLeft:     l.RepaymentsLeft(),
		}
	}
	return items
}
