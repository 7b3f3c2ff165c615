// Package dedup collapses at-least-once redeliveries of the same logical
// event and fixes the deterministic order the state machine consumes.
package dedup

import (
	"sort"

	"shelfsync/internal/domain"
)

// Result partitions a batch into the events that proceed to the state
// machine and the redeliveries that were dropped. Duplicates are expected
// steady-state noise, not errors; callers log them at debug level only.
type Result struct {
	Kept       []domain.ResolvedEvent
	Duplicates []domain.ResolvedEvent
}

// Dedup keeps the first-seen occurrence (source order) of every dedup key,
// dropping later in-batch redeliveries and any event whose key is already
// committed. Superseding corrections (same item and borrower at a different
// effective time) carry distinct keys and both survive.
//
// Survivors come back sorted by effective time; equal times order return
// before borrow so a same-instant swap reads as returned-then-reborrowed
// rather than a double borrow, with source order as the final tiebreak.
func Dedup(events []domain.ResolvedEvent, committed map[domain.DedupKey]bool) Result {
	var res Result
	seen := make(map[domain.DedupKey]bool, len(events))

	// First-seen scan must walk source order even if the caller reordered.
	scan := make([]domain.ResolvedEvent, len(events))
	copy(scan, events)
	sort.SliceStable(scan, func(i, j int) bool {
		return scan[i].SourceOrder < scan[j].SourceOrder
	})

	for _, ev := range scan {
		key := ev.Key()
		if committed[key] || seen[key] {
			res.Duplicates = append(res.Duplicates, ev)
			continue
		}
		seen[key] = true
		res.Kept = append(res.Kept, ev)
	}

	Order(res.Kept)
	return res
}

// Order sorts events into the canonical application order: effective time,
// then return before borrow, then source order.
func Order(events []domain.ResolvedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.EffectiveTime.Equal(b.EffectiveTime) {
			return a.EffectiveTime.Before(b.EffectiveTime)
		}
		if a.Action != b.Action {
			return a.Action == domain.ActionReturn
		}
		return a.SourceOrder < b.SourceOrder
	})
}
