package customer

import (
	"math"
	"time"
)

// approvedLimitRounding is the lakh granularity the approved credit
// limit is rounded up to.
const (
	approvedLimitSalaryMultiple = 36
	approvedLimitRounding       = 100_000
)

type Customer struct {
	CustomerID    int64     `json:"customerId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Age           int       `json:"age"`
	PhoneNumber   string    `json:"phoneNumber"`
	MonthlySalary float64   `json:"monthlySalary"`
	ApprovedLimit float64   `json:"approvedLimit"`
	CurrentDebt   float64   `json:"currentDebt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewCustomer builds a customer for registration. The approved limit is
// computed exactly once here and never recomputed afterwards.
func NewCustomer(firstName, lastName string, age int, phoneNumber string, monthlySalary float64) *Customer {
	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           age,
		PhoneNumber:   phoneNumber,
		MonthlySalary: monthlySalary,
		ApprovedLimit: ApprovedLimit(monthlySalary),
		CurrentDebt:   0,
	}
}

// ApprovedLimit is 36x the monthly salary, rounded up to the nearest
// 100,000.
func ApprovedLimit(monthlySalary float64) float64 {
	return math.Ceil(approvedLimitSalaryMultiple*monthlySalary/approvedLimitRounding) * approvedLimitRounding
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
