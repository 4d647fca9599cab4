package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-reconciler/internal/domain"
)

func deal(id int64, side, symbol, ts string) domain.DealRow {
	return domain.DealRow{
		DealID:  id,
		OrderID: id + 100,
		Symbol:  symbol,
		Side:    side,
		Type:    domain.DealTypeBuy,
		Time:    ts,
	}
}

func TestPair_TwoRoundTrips(t *testing.T) {
	deals := []domain.DealRow{
		deal(1, "in", "EURUSD", "2024.01.15 09:00"),
		deal(2, "out", "EURUSD", "2024.01.15 09:15"),
		deal(3, "in", "EURUSD", "2024.01.15 10:00"),
		deal(4, "out", "EURUSD", "2024.01.15 10:30"),
	}

	res := Pair(deals)

	require.Len(t, res.Pairs, 2)
	assert.Empty(t, res.Unpaired)
	for _, p := range res.Pairs {
		assert.Equal(t, p.Entry.Symbol, p.Exit.Symbol)
		assert.Equal(t, "in", p.Entry.Side)
		assert.Equal(t, "out", p.Exit.Side)
	}
	assert.Equal(t, int64(1), res.Pairs[0].Entry.DealID)
	assert.Equal(t, int64(3), res.Pairs[1].Entry.DealID)
}

func TestPair_SortsByDealID(t *testing.T) {
	deals := []domain.DealRow{
		deal(4, "out", "EURUSD", "2024.01.15 10:30"),
		deal(2, "out", "EURUSD", "2024.01.15 09:15"),
		deal(3, "in", "EURUSD", "2024.01.15 10:00"),
		deal(1, "in", "EURUSD", "2024.01.15 09:00"),
	}

	res := Pair(deals)

	require.Len(t, res.Pairs, 2)
	assert.Equal(t, int64(1), res.Pairs[0].Entry.DealID)
	assert.Equal(t, int64(2), res.Pairs[0].Exit.DealID)
	assert.Equal(t, int64(3), res.Pairs[1].Entry.DealID)
	assert.Equal(t, int64(4), res.Pairs[1].Exit.DealID)

	// Caller's slice is left untouched.
	assert.Equal(t, int64(4), deals[0].DealID)
}

func TestPair_DropsUnpairedRows(t *testing.T) {
	deals := []domain.DealRow{
		{DealID: 1, Side: "", Type: "balance"},
		deal(2, "in", "EURUSD", "2024.01.15 09:00"),
		deal(3, "in", "GBPUSD", "2024.01.15 09:01"),
		deal(4, "out", "GBPUSD", "2024.01.15 09:30"),
		deal(5, "out", "EURUSD", "2024.01.15 09:45"),
	}

	res := Pair(deals)

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "GBPUSD", res.Pairs[0].Symbol())
	assert.Equal(t, 3, res.UnpairedCount())
	assert.Equal(t, len(deals)-2*len(res.Pairs), res.UnpairedCount())
}

func TestPair_SymbolMismatchNotPaired(t *testing.T) {
	deals := []domain.DealRow{
		deal(1, "in", "EURUSD", "2024.01.15 09:00"),
		deal(2, "out", "USDJPY", "2024.01.15 09:15"),
	}

	res := Pair(deals)

	assert.Empty(t, res.Pairs)
	assert.Len(t, res.Unpaired, 2)
}

func TestPair_SideIsCaseInsensitive(t *testing.T) {
	deals := []domain.DealRow{
		deal(1, " IN", "EURUSD", "2024.01.15 09:00"),
		deal(2, "Out ", "EURUSD", "2024.01.15 09:15"),
	}

	res := Pair(deals)
	assert.Len(t, res.Pairs, 1)
}

func TestPair_Empty(t *testing.T) {
	res := Pair(nil)
	assert.Empty(t, res.Pairs)
	assert.Empty(t, res.Unpaired)
}
