package idhash

import (
	"testing"

	"trade-reconciler/internal/domain"
)

func TestComputeTradeKey(t *testing.T) {
	tests := []struct {
		name        string
		symbol      string
		entryDealID int64
		exitDealID  int64
		wantLen     int // hash length should be 64
	}{
		{
			name:        "basic pair",
			symbol:      "EURUSD",
			entryDealID: 1,
			exitDealID:  2,
			wantLen:     64,
		},
		{
			name:        "large ids",
			symbol:      "XAUUSD",
			entryDealID: 9876543210,
			exitDealID:  9876543299,
			wantLen:     64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeKey(tt.symbol, tt.entryDealID, tt.exitDealID)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeTradeKey() length = %d, want %d", len(got), tt.wantLen)
			}

			// Same inputs should produce same output
			got2 := ComputeTradeKey(tt.symbol, tt.entryDealID, tt.exitDealID)
			if got != got2 {
				t.Errorf("ComputeTradeKey() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeKey_DifferentInputs(t *testing.T) {
	base := ComputeTradeKey("EURUSD", 1, 2)

	if base == ComputeTradeKey("GBPUSD", 1, 2) {
		t.Error("Different symbol should produce different hash")
	}
	if base == ComputeTradeKey("EURUSD", 2, 1) {
		t.Error("Swapped deal ids should produce different hash")
	}
	if base == ComputeTradeKey("EURUSD", 1, 3) {
		t.Error("Different exit deal should produce different hash")
	}
}

func TestComputeInputFingerprint(t *testing.T) {
	profit := 12.5
	deals := []domain.DealRow{{DealID: 1, OrderID: 10, Symbol: "EURUSD", Side: "in", Time: "2024.01.15 09:00"}}
	trades := []domain.TradeLogRow{{Ticket: "10", RowType: "EXIT", Symbol: "EURUSD", Profit: &profit}}
	signals := []domain.SignalRow{{Symbol: "EURUSD", Time: "2024.01.15 08:58", Type: "BUY", Price: 1.1}}

	base := ComputeInputFingerprint(deals, trades, signals)
	if len(base) != 64 {
		t.Fatalf("ComputeInputFingerprint() length = %d, want 64", len(base))
	}
	if base != ComputeInputFingerprint(deals, trades, signals) {
		t.Error("ComputeInputFingerprint() not deterministic")
	}

	changed := profit + 1
	trades2 := []domain.TradeLogRow{{Ticket: "10", RowType: "EXIT", Symbol: "EURUSD", Profit: &changed}}
	if base == ComputeInputFingerprint(deals, trades2, signals) {
		t.Error("Different trade profit should produce different fingerprint")
	}

	if ComputeInputFingerprint(nil, nil, nil) == ComputeInputFingerprint(deals, nil, nil) {
		t.Error("Empty and non-empty inputs should differ")
	}
}
