package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into
// batch outcomes.
//
// These represent factual states about resources, not row validation
// failures; those are modeled as rejection reasons in internal/domain.
// - ErrNotFound: entity does not exist in store
// - ErrLockHeld: the single-flight run lock is already taken
var (
	ErrNotFound = errors.New("not found")
	ErrLockHeld = errors.New("lock held")
)
