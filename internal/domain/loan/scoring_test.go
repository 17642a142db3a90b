package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"credit-engine/internal/domain/customer"
)

var scoringNow = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

func scoringCustomer() *customer.Customer {
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

func pastLoan(amount float64, tenure, paidOnTime int, start time.Time) Loan {
	return Loan{
		CustomerID:       1,
		LoanAmount:       amount,
		TenureMonths:     tenure,
		EMIsPaidOnTime:   paidOnTime,
		MonthlyRepayment: ComputeEMI(amount, 12, tenure),
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, tenure*DaysPerTenureMonth),
	}
}

func TestCreditScore_NoHistoryIsPerfect(t *testing.T) {
	got := CreditScore(scoringCustomer(), nil, DefaultScoringRules(), scoringNow)

	assert.Equal(t, 100, got)
}

func TestCreditScore_OnTimeRatioPenalty(t *testing.T) {
	old := scoringNow.AddDate(-3, 0, 0)

	testCases := []struct {
		name     string
		history  []Loan
		expected int
	}{
		{
			name:     "all EMIs on time keeps full score",
			history:  []Loan{pastLoan(100000, 12, 12, old)},
			expected: 100,
		},
		{
			name:     "half the EMIs on time loses half the weight",
			history:  []Loan{pastLoan(100000, 12, 6, old)},
			expected: 80,
		},
		{
			name:     "no EMIs on time loses the full weight",
			history:  []Loan{pastLoan(100000, 12, 0, old)},
			expected: 60,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CreditScore(scoringCustomer(), tc.history, DefaultScoringRules(), scoringNow)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCreditScore_LoanCountPenalty(t *testing.T) {
	old := scoringNow.AddDate(-4, 0, 0)

	atThreshold := make([]Loan, 0, 6)
	for i := 0; i < 5; i++ {
		atThreshold = append(atThreshold, pastLoan(50000, 12, 12, old))
	}
	assert.Equal(t, 100, CreditScore(scoringCustomer(), atThreshold, DefaultScoringRules(), scoringNow))

	overThreshold := append(atThreshold, pastLoan(50000, 12, 12, old))
	assert.Equal(t, 90, CreditScore(scoringCustomer(), overThreshold, DefaultScoringRules(), scoringNow))
}

func TestCreditScore_CurrentYearActivityPenalty(t *testing.T) {
	thisYear := time.Date(scoringNow.Year(), time.January, 10, 0, 0, 0, 0, time.UTC)

	history := []Loan{
		pastLoan(50000, 12, 12, thisYear),
		pastLoan(50000, 12, 12, thisYear),
	}
	assert.Equal(t, 100, CreditScore(scoringCustomer(), history, DefaultScoringRules(), scoringNow))

	history = append(history, pastLoan(50000, 12, 12, thisYear))
	assert.Equal(t, 90, CreditScore(scoringCustomer(), history, DefaultScoringRules(), scoringNow))
}

func TestCreditScore_OverexposureZeroesScore(t *testing.T) {
	old := scoringNow.AddDate(-2, 0, 0)

	// Perfect repayment history, but the borrowed total exceeds the
	// approved limit of 1,800,000.
	history := []Loan{
		pastLoan(1000000, 24, 24, old),
		pastLoan(900000, 24, 24, old),
	}

	got := CreditScore(scoringCustomer(), history, DefaultScoringRules(), scoringNow)

	assert.Equal(t, 0, got)
}

func TestCreditScore_NeverNegative(t *testing.T) {
	thisYear := time.Date(scoringNow.Year(), time.February, 1, 0, 0, 0, 0, time.UTC)

	history := make([]Loan, 0, 6)
	for i := 0; i < 6; i++ {
		history = append(history, pastLoan(10000, 12, 0, thisYear))
	}

	got := CreditScore(scoringCustomer(), history, DefaultScoringRules(), scoringNow)

	assert.GreaterOrEqual(t, got, 0)
	assert.LessOrEqual(t, got, 100)
}
