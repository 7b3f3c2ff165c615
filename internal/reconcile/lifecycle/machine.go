// Package lifecycle is the item status state machine. It validates and
// applies the ordered event stream per item; anything it cannot apply is
// surfaced for manual reconciliation, never guessed around.
package lifecycle

import (
	"fmt"

	"shelfsync/internal/domain"
)

// Apply advances one item status by one action.
//
//	Available --borrow--> OnLoan
//	OnLoan    --return--> Available
//
// Lost and Archived are manual overrides set outside this engine; they do
// not accept circulation events. A borrow against OnLoan or a return against
// Available is the "teacher forgot to log the opposite action" case: the
// dedup tie-break minimizes it but cannot eliminate it, so it is rejected
// here.
func Apply(status domain.ItemStatus, action domain.Action) (domain.ItemStatus, error) {
	if !status.Circulating() {
		return status, fmt.Errorf("%w: item is %s, not circulating", domain.ErrInvalidTransition, status)
	}
	switch action {
	case domain.ActionBorrow:
		if status == domain.StatusOnLoan {
			return status, fmt.Errorf("%w: borrow while already on loan", domain.ErrInvalidTransition)
		}
		return domain.StatusOnLoan, nil
	case domain.ActionReturn:
		if status == domain.StatusAvailable {
			return status, fmt.Errorf("%w: return while already available", domain.ErrInvalidTransition)
		}
		return domain.StatusAvailable, nil
	}
	return status, fmt.Errorf("%w: action %q", domain.ErrInvalidTransition, action)
}

// Rejected is an event the machine refused, with the cause preserved for the
// rejection log.
type Rejected struct {
	Event domain.ResolvedEvent
	Err   error
}

// Outcome is the result of reducing one batch over the current item states.
type Outcome struct {
	Accepted []domain.ResolvedEvent
	// Statuses holds the post-batch status for every item that changed.
	Statuses map[domain.ItemID]domain.ItemStatus
	Rejected []Rejected
}

// Reduce folds an ordered event stream over the initial statuses. Events for
// different items are independent; within one item each rejected event
// leaves the status untouched and the stream continues, so a single forgotten
// return does not poison the rest of the item's history.
func Reduce(initial map[domain.ItemID]domain.ItemStatus, events []domain.ResolvedEvent) Outcome {
	out := Outcome{Statuses: make(map[domain.ItemID]domain.ItemStatus)}
	current := make(map[domain.ItemID]domain.ItemStatus, len(initial))
	for id, st := range initial {
		current[id] = st
	}

	for _, ev := range events {
		status, ok := current[ev.ItemID]
		if !ok {
			// Newly cataloged items start Available.
			status = domain.StatusAvailable
		}
		next, err := Apply(status, ev.Action)
		if err != nil {
			out.Rejected = append(out.Rejected, Rejected{Event: ev, Err: err})
			continue
		}
		current[ev.ItemID] = next
		out.Accepted = append(out.Accepted, ev)
		if initial[ev.ItemID] != next {
			out.Statuses[ev.ItemID] = next
		} else {
			delete(out.Statuses, ev.ItemID)
		}
	}
	return out
}
