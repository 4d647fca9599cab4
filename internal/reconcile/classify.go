package reconcile

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"trade-reconciler/internal/domain"
)

// breakevenBand keeps floating-point noise around zero out of Win/Loss.
var breakevenBand = decimal.RequireFromString("0.01")

var (
	tpPattern = regexp.MustCompile(`(?i)\btp\b`)
	slPattern = regexp.MustCompile(`(?i)\bsl\b`)
)

// Direction maps a deal type to a trade direction: buy is Long, anything else Short.
func Direction(dealType string) string {
	if strings.EqualFold(strings.TrimSpace(dealType), domain.DealTypeBuy) {
		return domain.DirectionLong
	}
	return domain.DirectionShort
}

// ClassifyProfit returns Win above +0.01, Loss below -0.01 and Breakeven otherwise.
func ClassifyProfit(profit decimal.Decimal) string {
	switch {
	case profit.GreaterThan(breakevenBand):
		return domain.ResultWin
	case profit.LessThan(breakevenBand.Neg()):
		return domain.ResultLoss
	default:
		return domain.ResultBreakeven
	}
}

// ExitReasonFromComment returns "TP" or "SL" when the broker comment contains
// the token as a whole word. TP is checked first.
func ExitReasonFromComment(comment string) (string, bool) {
	switch {
	case tpPattern.MatchString(comment):
		return domain.ExitReasonTP, true
	case slPattern.MatchString(comment):
		return domain.ExitReasonSL, true
	}
	return "", false
}
