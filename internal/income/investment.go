package income

import (
	"math"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Financing assumptions for the advisory metrics.
const (
	loanToValue  = 0.75
	interestRate = 0.07
	termYears    = 30
)

// Investment computes financing metrics for a purchase at price. They are
// advisory and never feed the indicated value.
func Investment(price, noi float64) model.InvestmentMetrics {
	if price <= 0 {
		return model.InvestmentMetrics{}
	}
	m := model.InvestmentMetrics{LoanAmount: price * loanToValue}
	m.AnnualDebtService = MonthlyPayment(m.LoanAmount, interestRate, termYears) * 12

	equity := price - m.LoanAmount
	if equity > 0 {
		m.CashOnCash = (noi - m.AnnualDebtService) / equity
	}
	if m.AnnualDebtService > 0 {
		m.DebtServiceCoverage = noi / m.AnnualDebtService
	}
	return m
}

// MonthlyPayment is the level payment amortizing principal over years at an
// annual rate.
func MonthlyPayment(principal, annualRate float64, years int) float64 {
	n := float64(years * 12)
	if annualRate == 0 {
		return principal / n
	}
	r := annualRate / 12
	return principal * r / (1 - math.Pow(1+r, -n))
}
