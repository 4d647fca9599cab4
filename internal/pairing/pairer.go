// Package pairing groups broker ledger rows into entry/exit deal pairs.
//
// Pairing is greedy and single-pass over rows ordered by deal id. It assumes
// the ledger never interleaves two open positions on the same symbol without
// netting; hedging-mode ledgers violate this and will pair incorrectly.
package pairing

import (
	"sort"
	"strings"

	"trade-reconciler/internal/domain"
)

// Result holds the pairs in ascending entry deal id order, plus the rows
// that found no adjacent same-symbol complement.
type Result struct {
	Pairs    []domain.DealPair
	Unpaired []domain.DealRow
}

// UnpairedCount is raw row count minus twice the pair count.
func (r Result) UnpairedCount() int {
	return len(r.Unpaired)
}

// SortDeals orders deals by (deal_id ASC, order_id ASC). The input slice is sorted in place.
func SortDeals(deals []domain.DealRow) {
	sort.SliceStable(deals, func(i, j int) bool {
		return compareDeals(&deals[i], &deals[j]) < 0
	})
}

// Pair sorts a copy of deals and scans adjacent rows: an "in" row followed by
// an "out" row on the same symbol becomes a pair and both are consumed;
// otherwise the scan advances by one. Unpaired rows are not an error.
func Pair(deals []domain.DealRow) Result {
	sorted := make([]domain.DealRow, len(deals))
	copy(sorted, deals)
	SortDeals(sorted)

	res := Result{}
	i := 0
	for i < len(sorted) {
		if i+1 < len(sorted) && isComplement(&sorted[i], &sorted[i+1]) {
			res.Pairs = append(res.Pairs, domain.DealPair{
				Entry: sorted[i],
				Exit:  sorted[i+1],
			})
			i += 2
			continue
		}
		res.Unpaired = append(res.Unpaired, sorted[i])
		i++
	}
	return res
}

// isComplement reports whether cur opens and next closes on the same symbol.
func isComplement(cur, next *domain.DealRow) bool {
	return normalizeSide(cur.Side) == domain.DealSideIn &&
		normalizeSide(next.Side) == domain.DealSideOut &&
		cur.Symbol == next.Symbol
}

func normalizeSide(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// compareDeals returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareDeals(a, b *domain.DealRow) int {
	if a.DealID != b.DealID {
		if a.DealID < b.DealID {
			return -1
		}
		return 1
	}
	if a.OrderID != b.OrderID {
		if a.OrderID < b.OrderID {
			return -1
		}
		return 1
	}
	return 0
}
