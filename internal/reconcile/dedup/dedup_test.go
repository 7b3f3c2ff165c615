package dedup_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"shelfsync/internal/domain"
	"shelfsync/internal/reconcile/dedup"
)

var t0 = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

func event(item string, borrower int64, action domain.Action, at time.Time, order int) domain.ResolvedEvent {
	return domain.ResolvedEvent{
		ItemID:        domain.ItemID(item),
		BorrowerID:    domain.BorrowerID(borrower),
		Action:        action,
		EffectiveTime: at,
		SourceRef:     fmt.Sprintf("row:%d", order),
		SourceOrder:   order,
	}
}

func TestDedupIdenticalRedelivery(t *testing.T) {
	events := []domain.ResolvedEvent{
		event("A-018", 1, domain.ActionBorrow, t0, 0),
		event("A-018", 1, domain.ActionBorrow, t0, 1),
	}
	res := dedup.Dedup(events, nil)
	require.Len(t, res.Kept, 1)
	assert.Equal(t, 0, res.Kept[0].SourceOrder, "first-seen occurrence survives")
	assert.Len(t, res.Duplicates, 1)
}

func TestDedupSubMinuteJitterCollapses(t *testing.T) {
	events := []domain.ResolvedEvent{
		event("A-018", 1, domain.ActionBorrow, t0, 0),
		event("A-018", 1, domain.ActionBorrow, t0.Add(30*time.Second), 1),
	}
	res := dedup.Dedup(events, nil)
	assert.Len(t, res.Kept, 1)
}

func TestDedupAgainstCommitted(t *testing.T) {
	ev := event("A-018", 1, domain.ActionBorrow, t0, 0)
	res := dedup.Dedup([]domain.ResolvedEvent{ev}, map[domain.DedupKey]bool{ev.Key(): true})
	assert.Empty(t, res.Kept)
	assert.Len(t, res.Duplicates, 1)
}

func TestSupersedingCorrectionBothSurvive(t *testing.T) {
	// Same item and borrower at a different effective time is a
	// correction, not a redelivery.
	events := []domain.ResolvedEvent{
		event("A-018", 1, domain.ActionBorrow, t0, 0),
		event("A-018", 1, domain.ActionBorrow, t0.Add(2*time.Hour), 1),
	}
	res := dedup.Dedup(events, nil)
	assert.Len(t, res.Kept, 2)
}

func TestOrderSameInstantSwap(t *testing.T) {
	// An apparent same-instant swap must read returned-then-reborrowed even
	// when the sheet delivered the borrow row first.
	events := []domain.ResolvedEvent{
		event("A-018", 2, domain.ActionBorrow, t0, 0),
		event("A-018", 1, domain.ActionReturn, t0, 1),
	}
	res := dedup.Dedup(events, nil)
	require.Len(t, res.Kept, 2)
	assert.Equal(t, domain.ActionReturn, res.Kept[0].Action)
	assert.Equal(t, domain.ActionBorrow, res.Kept[1].Action)
}

func TestOrderByEffectiveTime(t *testing.T) {
	events := []domain.ResolvedEvent{
		event("A-018", 1, domain.ActionReturn, t0.Add(time.Hour), 0),
		event("A-018", 1, domain.ActionBorrow, t0, 1),
	}
	res := dedup.Dedup(events, nil)
	require.Len(t, res.Kept, 2)
	assert.True(t, res.Kept[0].EffectiveTime.Before(res.Kept[1].EffectiveTime))
}

// TestDedupProperties exercises the dedup invariants over generated
// batches: no two survivors share a key, every input is accounted for
// exactly once, and survivors come out in canonical order.
func TestDedupProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := []string{"A-001", "A-002", "B-001"}
		n := rapid.IntRange(0, 40).Draw(t, "n")

		events := make([]domain.ResolvedEvent, 0, n)
		for i := 0; i < n; i++ {
			action := domain.ActionBorrow
			if rapid.Bool().Draw(t, "isReturn") {
				action = domain.ActionReturn
			}
			events = append(events, event(
				rapid.SampledFrom(items).Draw(t, "item"),
				rapid.Int64Range(1, 3).Draw(t, "borrower"),
				action,
				t0.Add(time.Duration(rapid.IntRange(0, 120).Draw(t, "offsetSec"))*time.Second),
				i,
			))
		}

		res := dedup.Dedup(events, nil)

		if len(res.Kept)+len(res.Duplicates) != len(events) {
			t.Fatalf("lost rows: %d kept + %d dup != %d in", len(res.Kept), len(res.Duplicates), len(events))
		}
		seen := map[domain.DedupKey]bool{}
		for _, ev := range res.Kept {
			if seen[ev.Key()] {
				t.Fatalf("two survivors share key %s", ev.Key())
			}
			seen[ev.Key()] = true
		}
		for _, dup := range res.Duplicates {
			if !seen[dup.Key()] {
				t.Fatalf("duplicate %s has no surviving twin", dup.Key())
			}
		}
		for i := 1; i < len(res.Kept); i++ {
			if res.Kept[i].EffectiveTime.Before(res.Kept[i-1].EffectiveTime) {
				t.Fatalf("survivors out of order at %d", i)
			}
		}
	})
}
