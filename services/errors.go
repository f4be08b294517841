// services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Engine errors the HTTP layer maps onto status codes.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrSessionFull         = errors.New("session is full")
	ErrSessionConcluded    = errors.New("session already concluded")
	ErrNotMember           = errors.New("participant is not a member of this session")
	ErrNotReady            = errors.New("session is not ready for results")
	ErrCodeSpaceExhausted  = errors.New("could not allocate a unique session code")
	ErrVoucherNotFound     = errors.New("voucher not found")
)

// ValidationError rejects a request payload; the whole payload is refused,
// nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
