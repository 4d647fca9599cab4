package index

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/timenorm"
)

// SignalIndex holds every signal per symbol, ordered by (time ASC, seq ASC).
// No deduplication is applied. Immutable once built.
type SignalIndex struct {
	bySymbol    map[string][]*domain.SignalRecord
	total       int
	unparseable int
}

// ForSymbol returns the chronologically sorted signals for a symbol.
// The returned slice must not be modified.
func (x *SignalIndex) ForSymbol(symbol string) []*domain.SignalRecord {
	return x.bySymbol[symbol]
}

// Symbols returns indexed symbols in lexical order.
func (x *SignalIndex) Symbols() []string {
	out := make([]string, 0, len(x.bySymbol))
	for s := range x.bySymbol {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Len returns the total number of indexed signals.
func (x *SignalIndex) Len() int {
	return x.total
}

// Unparseable returns how many signals carried an unparseable timestamp.
func (x *SignalIndex) Unparseable() int {
	return x.unparseable
}

// BuildSignalIndex indexes signal rows. Rows with unparseable timestamps are
// kept with a zero time and can never fall inside a lookback window.
func BuildSignalIndex(rows []domain.SignalRow, logger *zap.Logger) *SignalIndex {
	if logger == nil {
		logger = zap.NewNop()
	}

	idx := &SignalIndex{bySymbol: make(map[string][]*domain.SignalRecord)}
	for i, row := range rows {
		rec := &domain.SignalRecord{
			Seq:          i,
			Symbol:       row.Symbol,
			Time:         row.Time,
			Type:         strings.ToUpper(strings.TrimSpace(row.Type)),
			Price:        row.Price,
			Metrics:      row.Metrics,
			Passed:       row.Passed,
			RejectReason: row.RejectReason,
		}
		if t, err := timenorm.Parse(row.Time); err == nil {
			rec.At = t
		} else {
			idx.unparseable++
		}
		idx.bySymbol[row.Symbol] = append(idx.bySymbol[row.Symbol], rec)
		idx.total++
	}

	for _, signals := range idx.bySymbol {
		sort.SliceStable(signals, func(i, j int) bool {
			if !signals[i].At.Equal(signals[j].At) {
				return signals[i].At.Before(signals[j].At)
			}
			return signals[i].Seq < signals[j].Seq
		})
	}

	if idx.unparseable > 0 {
		logger.Named("index").Warn("signals with unparseable timestamps",
			zap.Int("count", idx.unparseable))
	}
	return idx
}
