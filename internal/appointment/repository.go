package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrStaleAppointment    = errors.New("appointment changed concurrently")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// For conflict checks and the availability board
	ListAppointmentsForDay(ctx context.Context, category string, dayStart, dayEnd time.Time) ([]Appointment, error)

	// Listing and analytics
	ListAppointments(ctx context.Context, f Filter, loc *time.Location) ([]Appointment, error)
	CountAppointments(ctx context.Context, from, to time.Time) (*Stats, error)

	// Creation and updates. Writes that would double-book a slot fail with
	// slot.ErrSlotAlreadyBooked; writes whose expected status no longer
	// matches fail with ErrStaleAppointment.
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment, expected AppointmentStatus) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	SaveReview(ctx context.Context, id uuid.UUID, r Review) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
