package pipeline

import (
	"fmt"

	"trade-reconciler/internal/ingest"
	"trade-reconciler/internal/reconcile"
)

// Paths names the three input logs.
type Paths struct {
	Deals    string
	TradeLog string
	Signals  string
}

// LoadInput reads the three CSV logs.
func LoadInput(p Paths) (reconcile.Input, error) {
	deals, err := ingest.LoadFile(p.Deals, ingest.LoadDeals)
	if err != nil {
		return reconcile.Input{}, fmt.Errorf("load deals: %w", err)
	}
	tradeLog, err := ingest.LoadFile(p.TradeLog, ingest.LoadTradeLog)
	if err != nil {
		return reconcile.Input{}, fmt.Errorf("load trade log: %w", err)
	}
	signals, err := ingest.LoadFile(p.Signals, ingest.LoadSignals)
	if err != nil {
		return reconcile.Input{}, fmt.Errorf("load signals: %w", err)
	}
	return reconcile.Input{Deals: deals, TradeLog: tradeLog, Signals: signals}, nil
}
