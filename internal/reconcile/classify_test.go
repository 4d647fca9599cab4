package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"trade-reconciler/internal/domain"
)

func TestClassifyProfit(t *testing.T) {
	tests := []struct {
		profit string
		want   string
	}{
		{"0.02", domain.ResultWin},
		{"0.01", domain.ResultBreakeven},
		{"0", domain.ResultBreakeven},
		{"-0.01", domain.ResultBreakeven},
		{"-0.011", domain.ResultLoss},
		{"150", domain.ResultWin},
	}
	for _, tt := range tests {
		t.Run(tt.profit, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyProfit(decimal.RequireFromString(tt.profit)))
		})
	}
}

func TestDirection(t *testing.T) {
	assert.Equal(t, domain.DirectionLong, Direction("buy"))
	assert.Equal(t, domain.DirectionLong, Direction(" BUY "))
	assert.Equal(t, domain.DirectionShort, Direction("sell"))
	assert.Equal(t, domain.DirectionShort, Direction(""))
}

func TestExitReasonFromComment(t *testing.T) {
	tests := []struct {
		comment string
		want    string
		ok      bool
	}{
		{"tp 1.09512", domain.ExitReasonTP, true},
		{"[sl 1.08000]", domain.ExitReasonSL, true},
		{"SL", domain.ExitReasonSL, true},
		{"tp sl", domain.ExitReasonTP, true},
		{"stop", "", false},
		{"slippage", "", false},
		{"atp", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			got, ok := ExitReasonFromComment(tt.comment)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
