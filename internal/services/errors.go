package services

import "errors"

// Sentinel errors for the identity and moderation core. Handlers map
// these onto HTTP status codes; services never touch the transport.
var (
	// ErrIdentityConflict: the assertion's subject id or email is
	// already bound to a different member record. Fatal, surfaced.
	ErrIdentityConflict = errors.New("identity already bound to another member")

	// ErrUnauthorized: actor lacks the admin role, or the approval
	// gate failed.
	ErrUnauthorized = errors.New("actor not authorized for this action")

	// ErrNotFound: single-target operation addressed a missing record.
	ErrNotFound = errors.New("record not found")

	// ErrNoOpTransition: single-target transition addressed a record
	// not in the pending state. Reported to surface operator mistakes;
	// batch operations report a zero count instead.
	ErrNoOpTransition = errors.New("record not in a transitionable state")

	// ErrBadAction: the requested transition is not a known action.
	ErrBadAction = errors.New("unknown transition action")
)
