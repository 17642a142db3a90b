package loan

import "math"

// ComputeEMI returns the equated monthly installment for a loan using
// the standard amortization formula:
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// where r is the monthly rate as a decimal and n the tenure in months.
// A zero rate degenerates to a flat split of the principal. Callers
// guarantee principal > 0 and tenureMonths > 0.
func ComputeEMI(principal, annualRatePercent float64, tenureMonths int) float64 {
	r := annualRatePercent / 100 / 12
	n := float64(tenureMonths)
	if r == 0 {
		return principal / n
	}
	compound := math.Pow(1+r, n)
	return roundTo(principal*r*compound/(compound-1), 2)
}

func roundTo(n float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(n*pow) / pow
}
