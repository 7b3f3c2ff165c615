package domain

import (
	"fmt"
	"time"
)

// DedupGranularity is the bucket width for the dedup key's effective time.
// Form submissions are human-paced and sheet re-syncs redeliver identical
// timestamps, so one minute collapses redeliveries without merging genuine
// same-day return-then-reborrow activity.
const DedupGranularity = time.Minute

// RawRow is one row from the external source, exactly as extracted. Never
// mutated after extraction; every downstream stage works on copies or
// derived records.
type RawRow struct {
	Ref             string // stable source reference, e.g. sheet row number
	BorrowerName    string
	CategoryCode    string
	LabelRaw        string
	ActionKeyword   string
	ClientTimestamp *time.Time
	ManualDate      *time.Time // date only; coerced to end-of-day when used
	Notes           string
}

// EffectiveTime derives the ordering key for dedup and state application:
// the client timestamp when present, otherwise the manually entered date
// coerced to end-of-day. ErrMissingTimestamp when neither is usable.
func (r RawRow) EffectiveTime() (time.Time, error) {
	if r.ClientTimestamp != nil && !r.ClientTimestamp.IsZero() {
		return r.ClientTimestamp.UTC(), nil
	}
	if r.ManualDate != nil && !r.ManualDate.IsZero() {
		d := r.ManualDate.UTC()
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: row %s", ErrMissingTimestamp, r.Ref)
}

// ResolvedEvent is a canonical circulation event, append-only once committed.
type ResolvedEvent struct {
	ItemID        ItemID
	BorrowerID    BorrowerID
	Action        Action
	EffectiveTime time.Time
	SourceRef     string
	SourceOrder   int // position within the batch, dedup tie-break
	Notes         string
}

// Key returns the dedup key identifying "the same logical event" across
// at-least-once redeliveries.
func (e ResolvedEvent) Key() DedupKey {
	return DedupKey{
		ItemID:     e.ItemID,
		BorrowerID: e.BorrowerID,
		Action:     e.Action,
		Bucket:     e.EffectiveTime.UTC().Truncate(DedupGranularity),
	}
}

// DedupKey is the tuple (item, borrower, action, effective-time bucket).
// Invariant: no two committed events share a key.
type DedupKey struct {
	ItemID     ItemID
	BorrowerID BorrowerID
	Action     Action
	Bucket     time.Time
}

// String renders the key in the canonical form stored in the ledger's unique
// column.
func (k DedupKey) String() string {
	return fmt.Sprintf("%s|%d|%s|%s", k.ItemID, k.BorrowerID, k.Action, k.Bucket.UTC().Format(time.RFC3339))
}
