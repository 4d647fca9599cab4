package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeKey computes a deterministic key for one reconciled trade.
// Formula: SHA256(symbol|entry_deal_id|exit_deal_id)
// Returns hex-encoded hash (64 characters).
func ComputeTradeKey(symbol string, entryDealID, exitDealID int64) string {
	data := fmt.Sprintf("%s|%d|%d",
		symbol,
		entryDealID,
		exitDealID,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
