package loan

import (
	"time"

	"credit-engine/internal/domain/customer"
)

// ScoringRules holds the tunable weights and thresholds of the credit
// score and the decision bands built on it. Field-compatible with
// config.ScoringConfig so the loaded configuration converts directly.
type ScoringRules struct {
	OnTimeRatioWeight     int
	LoanCountThreshold    int
	LoanCountPenalty      int
	YearActivityThreshold int
	YearActivityPenalty   int
	HighScoreBand         int
	MediumScoreBand       int
	RejectScoreBand       int
	MediumRateFloor       float64
	LowRateFloor          float64
	EMISalaryCapRatio     float64
}

func DefaultScoringRules() ScoringRules {
	return ScoringRules{
		OnTimeRatioWeight:     40,
		LoanCountThreshold:    5,
		LoanCountPenalty:      10,
		YearActivityThreshold: 2,
		YearActivityPenalty:   10,
		HighScoreBand:         50,
		MediumScoreBand:       30,
		RejectScoreBand:       10,
		MediumRateFloor:       12,
		LowRateFloor:          16,
		EMISalaryCapRatio:     0.5,
	}
}

// CreditScore derives a 0..100 creditworthiness score from the
// customer's full loan history. A customer with no history scores 100.
func CreditScore(cust *customer.Customer, history []Loan, rules ScoringRules, now time.Time) int {
	score := 100

	if len(history) > 0 {
		totalEmis := 0
		onTimeEmis := 0
		for _, l := range history {
			totalEmis += l.TenureMonths
			onTimeEmis += l.EMIsPaidOnTime
		}
		onTimeRatio := 0.0
		if totalEmis > 0 {
			onTimeRatio = float64(onTimeEmis) / float64(totalEmis)
		}
		score -= int((1 - onTimeRatio) * float64(rules.OnTimeRatioWeight))
	}

	if len(history) > rules.LoanCountThreshold {
		score -= rules.LoanCountPenalty
	}

	currentYearLoans := 0
	for _, l := range history {
		if l.StartDate.Year() == now.Year() {
			currentYearLoans++
		}
	}
	if currentYearLoans > rules.YearActivityThreshold {
		score -= rules.YearActivityPenalty
	}

	// Borrowing past the approved limit overrides every other rule.
	totalBorrowed := 0.0
	for _, l := range history {
		totalBorrowed += l.LoanAmount
	}
	if totalBorrowed > cust.ApprovedLimit {
		score = 0
	}

	if score < 0 {
		score = 0
	}
	return score
}
