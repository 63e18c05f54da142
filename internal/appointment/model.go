package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/autoservice-booking/internal/slot"
)

type AppointmentStatus string

const (
	StatusUpcoming    AppointmentStatus = "Upcoming"
	StatusRescheduled AppointmentStatus = "Rescheduled"
	StatusCompleted   AppointmentStatus = "Completed"
	StatusCancelled   AppointmentStatus = "Cancelled"
	StatusNoArrival   AppointmentStatus = "No Arrival"
)

// Actor is whoever is acting on an appointment.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

// Owns reports whether the actor may act on the appointment as its owner or as an admin.
func (a Actor) Owns(appt *Appointment) bool {
	return a.Admin || appt.UserID == a.UserID
}

type Review struct {
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type Appointment struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	FirstName           string
	LastName            string
	ContactNumber       string
	Email               string
	ServiceCategory     string
	ServiceType         string
	AppointmentDateTime time.Time
	Status              AppointmentStatus
	AdditionalNotes     string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Review              *Review
}

// Booking is the slot engine's view of the appointment.
func (a Appointment) Booking() slot.Booking {
	return slot.Booking{
		Category:  a.ServiceCategory,
		At:        a.AppointmentDateTime,
		Cancelled: a.Status == StatusCancelled,
	}
}

func bookings(appts []Appointment, skip uuid.UUID) []slot.Booking {
	out := make([]slot.Booking, 0, len(appts))
	for _, a := range appts {
		if a.ID == skip {
			continue
		}
		out = append(out, a.Booking())
	}
	return out
}

// Draft carries the customer-editable fields of a booking form.
type Draft struct {
	FirstName           string    `validate:"required,min=2"`
	LastName            string    `validate:"required"`
	ContactNumber       string    `validate:"required,phone"`
	Email               string    `validate:"required,email"`
	ServiceCategory     string    `validate:"required"`
	ServiceType         string    `validate:"required"`
	AppointmentDateTime time.Time `validate:"required"`
	AdditionalNotes     string    `validate:"max=2000"`
}

type Scope string

const (
	ScopeAll     Scope = ""
	ScopeCurrent Scope = "current"
	ScopeHistory Scope = "history"
)

type Filter struct {
	Scope       Scope
	UserID      *uuid.UUID
	Name        string
	Email       string
	Phone       string
	Status      AppointmentStatus
	BookedOn    *time.Time // date of CreatedAt, in the shop's location
	ScheduledOn *time.Time // date of AppointmentDateTime, in the shop's location
	Limit       int
	Offset      int
}

type Stats struct {
	From       time.Time
	To         time.Time
	Total      int
	ByStatus   map[AppointmentStatus]int
	ByCategory map[string]int
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
