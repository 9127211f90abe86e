package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Handlers treat
// ErrPeerAlreadyPresent as a benign, additive idempotency signal rather than
// a failure (see coordinator.onPing/onPong).

var (
	// ErrInvalidParameter is returned when a room or peer lookup by
	// name/id/UUID fails to find a match.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrSameRoomName is returned by name-based room lookup when more than
	// one room shares the queried name. Callers should inspect
	// SameRoomNameError for the candidate list.
	ErrSameRoomName = errors.New("ambiguous room name")

	// ErrPeerAlreadyPresent is an additive idempotency signal from
	// PeerRegistry.Add; never surfaced as a failure.
	ErrPeerAlreadyPresent = errors.New("peer already present")

	// ErrEmptyRoom is returned when creating a room with no members besides
	// self.
	ErrEmptyRoom = errors.New("room must have at least one other member")

	// ErrIOFailure wraps socket bind/send/receive failures that are not a
	// closed-on-shutdown race.
	ErrIOFailure = errors.New("io failure")
)

// SameRoomNameError carries the ambiguous candidates for ErrSameRoomName so
// the external shell can disambiguate.
type SameRoomNameError struct {
	Name       string
	Candidates []Room
}

func (e *SameRoomNameError) Error() string {
	return "ambiguous room name: " + e.Name
}

func (e *SameRoomNameError) Unwrap() error { return ErrSameRoomName }
