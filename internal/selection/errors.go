package selection

import "errors"

var (
	// ErrCapacityExceeded means the session already holds MaxSeats seats.
	ErrCapacityExceeded = errors.New("selection is full")
	// ErrSeatUnavailable means the seat is taken, reserved or held elsewhere.
	ErrSeatUnavailable = errors.New("seat is not available")
	// ErrAlreadySelected means the seat is already in this session.
	ErrAlreadySelected = errors.New("seat already selected")
	// ErrUnknownSeat means the venue has no seat with that id.
	ErrUnknownSeat = errors.New("unknown seat")
	// ErrSessionNotFound means no open session has that id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned by a session after Close.
	ErrSessionClosed = errors.New("session closed")
)
