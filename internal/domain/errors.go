package domain

import "errors"

// Row-level resolution and transition failures. These never abort a batch:
// the service translates them into Rejection records and the rest of the
// batch proceeds. Batch-level failures use pkg/platform/sentinel instead.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrUnknownBorrower   = errors.New("unknown borrower")
	ErrAmbiguousBorrower = errors.New("ambiguous borrower")
	ErrInvalidAction     = errors.New("invalid action")
	ErrMissingTimestamp  = errors.New("missing timestamp")
	ErrInvalidTransition = errors.New("invalid transition")
)

// ReasonForError maps a row-level failure to its rejection reason code.
// The second return is false for errors outside the row-level taxonomy,
// which callers must treat as batch failures rather than rejections.
func ReasonForError(err error) (RejectReason, bool) {
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		return ReasonInvalidIdentifier, true
	case errors.Is(err, ErrUnknownBorrower):
		return ReasonUnknownBorrower, true
	case errors.Is(err, ErrAmbiguousBorrower):
		return ReasonAmbiguousBorrower, true
	case errors.Is(err, ErrInvalidAction):
		return ReasonInvalidAction, true
	case errors.Is(err, ErrMissingTimestamp):
		return ReasonMissingTimestamp, true
	case errors.Is(err, ErrInvalidTransition):
		return ReasonInvalidTransition, true
	}
	return "", false
}
