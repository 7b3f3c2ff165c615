package domain

import (
	"fmt"
	"regexp"
)

// ItemID is the canonical catalog identifier: "{category}-{zero-padded
// label}", e.g. "A-018". The zero-pad width is a property of the category,
// taken from the catalog, so the resolver owns construction; this type only
// enforces shape.
type ItemID string

var itemIDPattern = regexp.MustCompile(`^[A-Z]+-[0-9]+$`)

// ParseItemID validates the canonical shape. It does not check catalog
// membership; that lookup belongs to the resolver.
func ParseItemID(s string) (ItemID, error) {
	if !itemIDPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return ItemID(s), nil
}

func (id ItemID) String() string {
	return string(id)
}

// ItemStatus is the lifecycle state of a catalog item.
//
// Invariant: for a circulating item the status is a pure function of the
// ordered committed event sequence; Lost and Archived are manual overrides
// set outside the reconciler and are never produced by borrow/return events.
type ItemStatus string

const (
	StatusAvailable ItemStatus = "available"
	StatusOnLoan    ItemStatus = "on_loan"
	StatusLost      ItemStatus = "lost"
	StatusArchived  ItemStatus = "archived"
)

var validItemStatuses = map[ItemStatus]bool{
	StatusAvailable: true,
	StatusOnLoan:    true,
	StatusLost:      true,
	StatusArchived:  true,
}

func (s ItemStatus) IsValid() bool {
	return validItemStatuses[s]
}

// Circulating reports whether borrow/return events may drive this status.
// Lost and Archived items are physically out of circulation, so incoming
// events against them are invalid transitions.
func (s ItemStatus) Circulating() bool {
	return s == StatusAvailable || s == StatusOnLoan
}

func (s ItemStatus) String() string {
	return string(s)
}

// Item is the catalog view the reconciler needs: identity plus lifecycle
// state. The catalog owns everything else about an item.
type Item struct {
	ID     ItemID
	Name   string
	Status ItemStatus
}
