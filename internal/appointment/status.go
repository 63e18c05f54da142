package appointment

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTerminalStatus          = errors.New("appointment status is final")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrUnknownStatus           = errors.New("unknown appointment status")
	ErrNotPermitted            = errors.New("not permitted")
)

func ParseStatus(s string) (AppointmentStatus, error) {
	switch AppointmentStatus(s) {
	case StatusUpcoming, StatusRescheduled, StatusCompleted, StatusCancelled, StatusNoArrival:
		return AppointmentStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Terminal statuses accept no further transitions.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoArrival:
		return true
	}
	return false
}

// Active appointments occupy their slot and can still be edited.
func (s AppointmentStatus) Active() bool {
	return s == StatusUpcoming || s == StatusRescheduled
}

var explicitTransitions = map[AppointmentStatus]struct{ adminOnly bool }{
	StatusCompleted: {adminOnly: true},
	StatusNoArrival: {adminOnly: true},
	StatusCancelled: {adminOnly: false},
}

// CheckTransition decides whether actor may move an appointment from one
// status to another by an explicit status change. Rescheduled is only
// reached through an edit, see StatusAfterEdit.
func CheckTransition(from, to AppointmentStatus, by Actor) error {
	if from.Terminal() {
		return fmt.Errorf("%w: appointment is already %s", ErrTerminalStatus, from)
	}
	if !from.Active() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}

	rule, ok := explicitTransitions[to]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
	}
	if rule.adminOnly && !by.Admin {
		return fmt.Errorf("%w: only staff can mark an appointment %s", ErrNotPermitted, to)
	}
	return nil
}

// StatusAfterEdit returns the status an appointment takes when its slot is
// edited from original to edited. Moving an Upcoming appointment makes it
// Rescheduled; any other edit keeps the status.
func StatusAfterEdit(current AppointmentStatus, original, edited time.Time) (AppointmentStatus, error) {
	if current.Terminal() {
		return current, fmt.Errorf("%w: appointment is already %s", ErrTerminalStatus, current)
	}
	if current == StatusUpcoming && !original.Truncate(time.Minute).Equal(edited.Truncate(time.Minute)) {
		return StatusRescheduled, nil
	}
	return current, nil
}
