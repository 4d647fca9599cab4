package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-reconciler/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func entryRow(ticket, openTime string, price float64) domain.TradeLogRow {
	return domain.TradeLogRow{
		Ticket:    ticket,
		RowType:   "ENTRY",
		Symbol:    "EURUSD",
		Type:      "BUY",
		OpenTime:  openTime,
		OpenPrice: price,
	}
}

func exitRow(ticket, closeTime string, price, profit float64) domain.TradeLogRow {
	return domain.TradeLogRow{
		Ticket:     ticket,
		RowType:    "EXIT",
		Symbol:     "EURUSD",
		Type:       "BUY",
		CloseTime:  closeTime,
		ClosePrice: price,
		Profit:     ptr(profit),
	}
}

func TestTradeIndex_EntryAndExitJoinOnTicket(t *testing.T) {
	idx := BuildTradeIndex([]domain.TradeLogRow{
		entryRow("1001", "2024.01.15 09:00:00", 1.1000),
		exitRow("1001", "2024.01.15 09:15:00", 1.1010, 10.0),
	}, 0, nil)

	rec, ok := idx.Get(1001)
	require.True(t, ok)
	require.NotNil(t, rec.Entry)
	require.NotNil(t, rec.Exit)
	assert.Equal(t, "EURUSD", rec.Symbol())
	assert.InDelta(t, 10.0, *rec.Exit.Profit, 1e-9)
	assert.False(t, rec.Entry.OpenAt.IsZero())
	assert.Equal(t, 0, idx.Stats().Dropped())
}

func TestTradeIndex_ExactDuplicateDropped(t *testing.T) {
	row := entryRow("1001", "2024.01.15 09:00:00", 1.1000)

	idx := BuildTradeIndex([]domain.TradeLogRow{row, row}, 0, nil)

	rec, ok := idx.Get(1001)
	require.True(t, ok)
	assert.NotNil(t, rec.Entry)
	assert.Nil(t, rec.Exit)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, idx.Stats().Exact)
}

func TestTradeIndex_NearDuplicateWithinWindow(t *testing.T) {
	first := entryRow("1001", "2024.01.15 09:00:00", 1.1000)
	second := entryRow("1001", "2024.01.15 09:00:02", 1.1002) // 2000 ms later, different price

	idx := BuildTradeIndex([]domain.TradeLogRow{first, second}, 0, nil)

	rec, _ := idx.Get(1001)
	assert.InDelta(t, 1.1000, rec.Entry.OpenPrice, 1e-9, "first row wins")
	assert.Equal(t, 1, idx.Stats().NearDuplicate)
	assert.Equal(t, 0, idx.Stats().TicketReuse)
}

func TestTradeIndex_SameTicketOutsideWindowFirstWins(t *testing.T) {
	first := entryRow("1001", "2024.01.15 09:00:00", 1.1000)
	later := entryRow("1001", "2024.01.15 09:01:00", 1.1050) // 60 000 ms later

	idx := BuildTradeIndex([]domain.TradeLogRow{first, later}, 0, nil)

	rec, _ := idx.Get(1001)
	assert.InDelta(t, 1.1000, rec.Entry.OpenPrice, 1e-9)
	assert.Equal(t, "2024.01.15 09:00:00", rec.Entry.OpenTime)
	assert.Equal(t, 1, idx.Stats().TicketReuse)
	assert.Equal(t, 1, idx.Len())
}

func TestTradeIndex_DifferentTicketsOutsideWindowAreDistinct(t *testing.T) {
	idx := BuildTradeIndex([]domain.TradeLogRow{
		entryRow("1001", "2024.01.15 09:00:00", 1.1000),
		entryRow("1002", "2024.01.15 09:01:00", 1.1000),
	}, 0, nil)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 0, idx.Stats().Dropped())
}

func TestTradeIndex_RowTypeNormalizationAndIgnored(t *testing.T) {
	entry := entryRow("7", "2024.01.15 09:00", 1.2)
	entry.RowType = "  entry "
	other := entryRow("8", "2024.01.15 09:00", 1.2)
	other.RowType = "MODIFY"

	idx := BuildTradeIndex([]domain.TradeLogRow{entry, other}, 0, nil)

	_, ok := idx.Get(7)
	assert.True(t, ok)
	_, ok = idx.Get(8)
	assert.False(t, ok)
	assert.Equal(t, 1, idx.Stats().IgnoredRowType)
}

func TestTradeIndex_UnparseableTicketDefaultsToZero(t *testing.T) {
	idx := BuildTradeIndex([]domain.TradeLogRow{
		entryRow("abc", "2024.01.15 09:00", 1.2),
	}, 0, nil)

	_, ok := idx.Get(0)
	assert.True(t, ok)
	assert.Equal(t, int64(0), ParseTicket(""))
	assert.Equal(t, int64(42), ParseTicket(" 42 "))
}

func TestTradeIndex_RecordsKeepFirstSeenOrder(t *testing.T) {
	idx := BuildTradeIndex([]domain.TradeLogRow{
		entryRow("30", "2024.01.15 09:00", 1.2),
		entryRow("10", "2024.01.15 09:05", 1.2),
		exitRow("30", "2024.01.15 09:30", 1.21, 5),
		entryRow("20", "2024.01.15 09:10", 1.2),
	}, 0, nil)

	var tickets []int64
	for _, r := range idx.Records() {
		tickets = append(tickets, r.Ticket)
	}
	assert.Equal(t, []int64{30, 10, 20}, tickets)
}

func TestTradeIndex_ExitDedupUsesCloseTime(t *testing.T) {
	first := exitRow("5", "2024.01.15 10:00:00", 1.3, 12.5)
	jitter := exitRow("5", "2024.01.15 10:00:01", 1.3001, 12.6)

	idx := BuildTradeIndex([]domain.TradeLogRow{first, jitter}, 0, nil)

	rec, _ := idx.Get(5)
	assert.InDelta(t, 12.5, *rec.Exit.Profit, 1e-9)
	assert.Equal(t, 1, idx.Stats().NearDuplicate)
}

func TestSignalIndex_SortedPerSymbol(t *testing.T) {
	idx := BuildSignalIndex([]domain.SignalRow{
		{Symbol: "EURUSD", Time: "2024.01.15 09:10", Type: "buy"},
		{Symbol: "GBPUSD", Time: "2024.01.15 09:00", Type: "SELL"},
		{Symbol: "EURUSD", Time: "2024.01.15 09:05", Type: "SELL"},
		{Symbol: "EURUSD", Time: "2024.01.15 09:05", Type: "BUY"},
	}, nil)

	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, []string{"EURUSD", "GBPUSD"}, idx.Symbols())

	eur := idx.ForSymbol("EURUSD")
	require.Len(t, eur, 3)
	assert.Equal(t, "2024.01.15 09:05", eur[0].Time)
	assert.Equal(t, "SELL", eur[0].Type, "equal times keep source order")
	assert.Equal(t, "BUY", eur[1].Type)
	assert.Equal(t, "BUY", eur[2].Type, "type is upper-cased")
}

func TestSignalIndex_KeepsDuplicatesAndUnparseable(t *testing.T) {
	row := domain.SignalRow{Symbol: "EURUSD", Time: "2024.01.15 09:10", Type: "BUY"}
	idx := BuildSignalIndex([]domain.SignalRow{row, row, {Symbol: "EURUSD", Time: "garbage"}}, nil)

	assert.Len(t, idx.ForSymbol("EURUSD"), 3)
	assert.Equal(t, 1, idx.Unparseable())
	assert.Nil(t, idx.ForSymbol("USDJPY"))
}
