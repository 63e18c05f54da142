package slot

import (
	"fmt"
	"time"
)

type Status string

const (
	Open   Status = "Open"
	Booked Status = "Booked"
	Past   Status = "Past"
)

// Slot is a point on the day's grid. It has no identity of its own.
type Slot struct {
	Start  time.Duration
	Length time.Duration
}

// At places the slot on day's calendar date, in day's location.
func (s Slot) At(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(s.Start/time.Hour), int(s.Start%time.Hour/time.Minute), 0, 0, day.Location())
}

func (s Slot) Label() string {
	return formatClock(s.Start) + " - " + formatClock(s.Start+s.Length)
}

// Booking is what the engine needs to know about an existing appointment.
type Booking struct {
	Category  string
	At        time.Time
	Cancelled bool
}

type Classified struct {
	Slot   Slot
	At     time.Time
	Status Status
}

// Classify reports whether a slot is booked, past or open for a category.
// A booked slot stays Booked after its time has gone by.
func Classify(s Slot, day time.Time, category string, bookings []Booking, now time.Time) Status {
	at := s.At(day)
	if occupied(at, category, bookings) {
		return Booked
	}
	if at.Before(now) {
		return Past
	}
	return Open
}

// RequestBooking checks that a slot may be taken and returns the absolute
// time to store on the appointment. It is an optimistic check against the
// caller's snapshot; storage enforces the same rule on write.
func RequestBooking(s Slot, day time.Time, category string, bookings []Booking, now time.Time, readOnly bool) (time.Time, error) {
	if readOnly {
		return time.Time{}, ErrSlotNotSelectable
	}

	at := s.At(day)
	switch Classify(s, day, category, bookings, now) {
	case Booked:
		return time.Time{}, fmt.Errorf("%w: %s at %s", ErrSlotAlreadyBooked, category, at.Format(time.RFC3339))
	case Past:
		return time.Time{}, fmt.Errorf("%w: %s", ErrSlotInPast, at.Format(time.RFC3339))
	}
	return at, nil
}

// Board classifies every slot of the day.
func Board(cfg Config, day time.Time, category string, bookings []Booking, now time.Time) ([]Classified, error) {
	slots, err := Enumerate(cfg)
	if err != nil {
		return nil, err
	}

	out := make([]Classified, 0, len(slots))
	for _, s := range slots {
		out = append(out, Classified{
			Slot:   s,
			At:     s.At(day),
			Status: Classify(s, day, category, bookings, now),
		})
	}
	return out, nil
}

// Key names the (category, slot) pair that concurrent bookings must serialize on.
func Key(category string, at time.Time) string {
	return fmt.Sprintf("%s|%s", category, at.UTC().Truncate(time.Minute).Format(time.RFC3339))
}

func occupied(at time.Time, category string, bookings []Booking) bool {
	for _, b := range bookings {
		if b.Cancelled || b.Category != category {
			continue
		}
		if sameMinute(b.At, at) {
			return true
		}
	}
	return false
}

func sameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}
