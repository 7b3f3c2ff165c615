package domain

// BorrowerID identifies a canonical borrower (a teacher in the roster).
type BorrowerID int64

// Borrower is one entry in the canonical roster the matcher scores against.
// The roster is a small closed set, tens of entries, loaded once per batch.
type Borrower struct {
	ID        BorrowerID
	Name      string
	Classroom string
}
