package models

import "errors"

// Per-request outcomes of the catalog, issuer and ledger. All are reported to
// the caller; none is fatal to the process.
var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrUnknownTier      = errors.New("unknown tier")
	ErrCapacityExceeded = errors.New("tier capacity exceeded")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrAlreadyCheckedIn = errors.New("ticket already checked in")
	ErrNotCheckedIn     = errors.New("ticket not checked in")
	ErrEventHasTickets  = errors.New("event has issued tickets")

	// ErrBusy signals lock or transaction contention. Safe to retry with
	// backoff, never a hard failure.
	ErrBusy = errors.New("resource busy, retry")
)
