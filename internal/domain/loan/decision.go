package loan

import (
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"
)

// Rejection reasons reported to the caller. These are business
// outcomes, not errors.
const (
	ReasonScoreTooLow    = "Credit score too low"
	ReasonEMICapExceeded = "EMI exceeds 50% of monthly salary"
)

// Decision is the outcome of the eligibility engine. Approved carries
// the verdict; a rejection still reports the rate and installment the
// caller was evaluated against, except in the low-score branch where
// no EMI is computed and the corrected rate echoes the requested rate.
type Decision struct {
	CustomerID         int64
	Score              int
	Approved           bool
	LoanAmount         float64
	RequestedRate      float64
	CorrectedRate      float64
	TenureMonths       int
	MonthlyInstallment float64
	Reason             string
}

// ValidateLoanRequest checks the preconditions of the decision
// contract. Each failure is a distinct validation error, never a
// Decision.
func ValidateLoanRequest(loanAmount float64, tenureMonths int) error {
	if loanAmount <= 0 {
		return apperrors.NewValidationError("loan_amount", "loan_amount must be greater than 0")
	}
	if tenureMonths <= 0 {
		return apperrors.NewValidationError("tenure", "tenure must be greater than 0")
	}
	return nil
}

// Decide scores the customer against their full loan history and maps
// the score to an approval verdict and effective interest rate. It
// performs no writes.
func Decide(cust *customer.Customer, history []Loan, loanAmount, requestedRate float64, tenureMonths int, rules ScoringRules, now time.Time) (Decision, error) {
	if err := ValidateLoanRequest(loanAmount, tenureMonths); err != nil {
		return Decision{}, err
	}

	score := CreditScore(cust, history, rules, now)
	d := Decision{
		CustomerID:    cust.CustomerID,
		Score:         score,
		LoanAmount:    loanAmount,
		RequestedRate: requestedRate,
		TenureMonths:  tenureMonths,
	}

	var rateFloor float64
	switch {
	case score > rules.HighScoreBand:
		rateFloor = requestedRate
	case score > rules.MediumScoreBand:
		rateFloor = maxRate(requestedRate, rules.MediumRateFloor)
	case score > rules.RejectScoreBand:
		rateFloor = maxRate(requestedRate, rules.LowRateFloor)
	default:
		// No EMI is computed for this branch and the corrected rate
		// deliberately echoes the requested rate.
		d.Approved = false
		d.CorrectedRate = requestedRate
		d.MonthlyInstallment = 0
		d.Reason = ReasonScoreTooLow
		return d, nil
	}

	emi := ComputeEMI(loanAmount, rateFloor, tenureMonths)
	existingEmiTotal := 0.0
	for _, l := range history {
		existingEmiTotal += l.MonthlyRepayment
	}

	d.CorrectedRate = rateFloor
	d.MonthlyInstallment = emi

	if existingEmiTotal+emi > rules.EMISalaryCapRatio*cust.MonthlySalary {
		d.Approved = false
		d.Reason = ReasonEMICapExceeded
		return d, nil
	}

	d.Approved = true
	return d, nil
}

// Outcome labels the decision for metrics.
func (d Decision) Outcome() string {
	switch {
	case d.Approved:
		return "approved"
	case d.Reason == ReasonScoreTooLow:
		return "rejected_score"
	default:
		return "rejected_affordability"
	}
}

func maxRate(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
