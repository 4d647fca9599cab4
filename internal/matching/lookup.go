package matching

import (
	"sort"
	"time"

	"trade-reconciler/internal/domain"
)

// lastAtOrBefore returns the index of the last signal whose time is at or
// before target, or -1 when every signal is later. signals must be sorted
// by time ascending.
func lastAtOrBefore(signals []*domain.SignalRecord, target time.Time) int {
	i := sort.Search(len(signals), func(i int) bool {
		return signals[i].At.After(target)
	})
	return i - 1
}
