package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RejectReason is the operator-facing reason code on a rejection log entry.
// Closed set; DuplicateEvent is deliberately absent because duplicates are a
// no-op outcome, not a rejection.
type RejectReason string

const (
	ReasonInvalidIdentifier RejectReason = "invalid_identifier"
	ReasonUnknownBorrower   RejectReason = "unknown_borrower"
	ReasonAmbiguousBorrower RejectReason = "ambiguous_borrower"
	ReasonInvalidAction     RejectReason = "invalid_action"
	ReasonMissingTimestamp  RejectReason = "missing_timestamp"
	ReasonInvalidTransition RejectReason = "invalid_transition"
)

func (r RejectReason) String() string {
	return string(r)
}

// Rejection is one row that failed resolution or state application. It
// carries the original row so operators can correct and resubmit it through
// the normal input path; the reconciler never retries on its own.
type Rejection struct {
	ID      string
	BatchID string
	Row     RawRow
	Reason  RejectReason
	Detail  string
	At      time.Time
}

// rejectionNamespace salts deterministic rejection ids.
var rejectionNamespace = uuid.MustParse("8f1c2ab4-55d3-4c27-9a61-3be0d7c4e9f2")

// NewRejectionID derives a stable id from the row content and reason. The
// upstream redelivers rejected rows on every re-read, and the rejection log
// is written after the batch commit; a content-derived id lets both kinds of
// re-append land on the existing entry instead of creating a second one. A
// corrected resubmission changes the row content and so gets a fresh id.
func NewRejectionID(row RawRow, reason RejectReason) string {
	var ts, date string
	if row.ClientTimestamp != nil {
		ts = row.ClientTimestamp.UTC().Format(time.RFC3339Nano)
	}
	if row.ManualDate != nil {
		date = row.ManualDate.UTC().Format(time.RFC3339)
	}
	seed := strings.Join([]string{
		row.Ref,
		row.BorrowerName,
		row.CategoryCode,
		row.LabelRaw,
		row.ActionKeyword,
		ts,
		date,
		row.Notes,
		reason.String(),
	}, "|")
	return uuid.NewSHA1(rejectionNamespace, []byte(seed)).String()
}
