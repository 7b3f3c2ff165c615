package domain

import "time"

// Checkpoint is the high-water mark of committed work. Loaded at batch
// start, advanced only when the batch's atomic commit succeeds, and
// persisted inside that same transaction.
//
// The checkpoint is advisory: correctness against redelivery comes from
// dedup-key uniqueness in the ledger, the checkpoint only lets sources skip
// obviously stale exports. Offset counts events committed at HighWater so a
// re-read that delivers rows in a different order still compares stable.
type Checkpoint struct {
	HighWater time.Time
	Offset    int64
	UpdatedAt time.Time
}

// Advance returns the checkpoint after committing a batch whose newest
// effective time is latest, with n events at that instant. No-op when the
// batch is entirely older than the current mark.
func (c Checkpoint) Advance(latest time.Time, n int64, now time.Time) Checkpoint {
	if latest.Before(c.HighWater) {
		return c
	}
	if latest.Equal(c.HighWater) {
		c.Offset += n
		c.UpdatedAt = now
		return c
	}
	return Checkpoint{HighWater: latest, Offset: n, UpdatedAt: now}
}
