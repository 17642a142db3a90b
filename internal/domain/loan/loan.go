package loan

import (
	"time"
)

// DaysPerTenureMonth converts tenure months to days for the loan end
// date. A month is approximated as 30 days; downstream consumers depend
// on this approximation.
const DaysPerTenureMonth = 30

type Loan struct {
	ID               int64
	CustomerID       int64
	LoanAmount       float64
	TenureMonths     int
	InterestRate     float64
	MonthlyRepayment float64
	EMIsPaidOnTime   int
	StartDate        time.Time
	EndDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewLoan builds the record persisted after an approved decision. The
// stored interest rate is the corrected (tier) rate, not the requested
// one.
func NewLoan(customerID int64, d Decision, startDate time.Time) *Loan {
	if startDate.IsZero() {
		startDate = time.Now().Truncate(24 * time.Hour)
	}

	return &Loan{
		CustomerID:       customerID,
		LoanAmount:       d.LoanAmount,
		TenureMonths:     d.TenureMonths,
		InterestRate:     d.CorrectedRate,
		MonthlyRepayment: d.MonthlyInstallment,
		EMIsPaidOnTime:   0,
		StartDate:        startDate,
		EndDate:          startDate.AddDate(0, 0, d.TenureMonths*DaysPerTenureMonth),
	}
}

func (l *Loan) RepaymentsLeft() int {
	return l.TenureMonths - l.EMIsPaidOnTime
}
