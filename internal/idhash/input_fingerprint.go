package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"trade-reconciler/internal/domain"
)

// ComputeInputFingerprint hashes the identifying fields of all three input
// logs, in input order. Two runs over the same files share a fingerprint.
// Formula: SHA256 over "deals|n", one line per deal
// (deal_id|order_id|symbol|side|time|profit), then "trades|n" and "signals|n"
// sections built the same way.
// Returns hex-encoded hash (64 characters).
func ComputeInputFingerprint(
	deals []domain.DealRow,
	tradeRows []domain.TradeLogRow,
	signals []domain.SignalRow,
) string {
	h := sha256.New()

	fmt.Fprintf(h, "deals|%d\n", len(deals))
	for _, d := range deals {
		fmt.Fprintf(h, "%d|%d|%s|%s|%s|%s\n",
			d.DealID, d.OrderID, d.Symbol, d.Side, d.Time, d.Profit)
	}

	fmt.Fprintf(h, "trades|%d\n", len(tradeRows))
	for _, r := range tradeRows {
		profit := ""
		if r.Profit != nil {
			profit = strconv.FormatFloat(*r.Profit, 'g', -1, 64)
		}
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s\n",
			r.Ticket, r.RowType, r.Symbol, r.OpenTime, r.CloseTime, profit)
	}

	fmt.Fprintf(h, "signals|%d\n", len(signals))
	for _, s := range signals {
		fmt.Fprintf(h, "%s|%s|%s|%s\n",
			s.Symbol, s.Time, s.Type, strconv.FormatFloat(s.Price, 'g', -1, 64))
	}

	return hex.EncodeToString(h.Sum(nil))
}
