package event

import "time"

type CustomerPayload struct {
	CustomerID    int64   `json:"customerId"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	PhoneNumber   string  `json:"phoneNumber"`
	MonthlySalary float64 `json:"monthlySalary"`
	ApprovedLimit float64 `json:"approvedLimit"`
}

type CustomerRegisteredEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Payload   CustomerPayload `json:"payload"`
}

type LoanPayload struct {
	LoanID             int64     `json:"loanId"`
	CustomerID         int64     `json:"customerId"`
	LoanAmount         float64   `json:"loanAmount"`
	TenureMonths       int       `json:"tenureMonths"`
	InterestRate       float64   `json:"interestRate"`
	MonthlyInstallment float64   `json:"monthlyInstallment"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
}

type LoanCreatedEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Payload   LoanPayload `json:"payload"`
}
