package meetup

import "errors"

// Domain errors. Callers match them with errors.Is; details are attached with
// fmt.Errorf("%w: ...").
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("meetup not found")
	ErrAuthorization    = errors.New("not authorized")
	ErrCapacityExceeded = errors.New("meetup is full")
	ErrAlreadyJoined    = errors.New("already joined this meetup")
	ErrNotParticipant   = errors.New("not a participant of this meetup")
	ErrHostCannotLeave  = errors.New("host cannot leave the meetup, cancel it instead")
	ErrEventNotJoinable = errors.New("meetup is cancelled or already started")
	ErrAlreadyTerminal  = errors.New("meetup is cancelled")

	// ErrTransient marks a store call that timed out. One retry is reasonable.
	ErrTransient = errors.New("storage temporarily unavailable")
)
