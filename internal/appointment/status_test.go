package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	admin    = Actor{UserID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), Admin: true}
	customer = Actor{UserID: uuid.MustParse("00000000-0000-0000-0000-00000000000c")}
)

func TestCheckTransition_FromTerminal(t *testing.T) {
	terminal := []AppointmentStatus{StatusCompleted, StatusCancelled, StatusNoArrival}
	targets := []AppointmentStatus{StatusUpcoming, StatusRescheduled, StatusCompleted, StatusCancelled, StatusNoArrival}

	for _, from := range terminal {
		for _, to := range targets {
			for _, by := range []Actor{admin, customer} {
				if err := CheckTransition(from, to, by); !errors.Is(err, ErrTerminalStatus) {
					t.Fatalf("%s -> %s (admin=%v): expected ErrTerminalStatus, got %v", from, to, by.Admin, err)
				}
			}
		}
	}
}

func TestCheckTransition_FromActive(t *testing.T) {
	cases := []struct {
		from    AppointmentStatus
		to      AppointmentStatus
		by      Actor
		wantErr error
	}{
		{StatusUpcoming, StatusCompleted, admin, nil},
		{StatusUpcoming, StatusNoArrival, admin, nil},
		{StatusUpcoming, StatusCancelled, admin, nil},
		{StatusRescheduled, StatusCompleted, admin, nil},
		{StatusRescheduled, StatusNoArrival, admin, nil},
		{StatusRescheduled, StatusCancelled, customer, nil},
		{StatusUpcoming, StatusCancelled, customer, nil},
		{StatusUpcoming, StatusCompleted, customer, ErrNotPermitted},
		{StatusRescheduled, StatusNoArrival, customer, ErrNotPermitted},
		{StatusUpcoming, StatusRescheduled, admin, ErrInvalidStatusTransition},
		{StatusRescheduled, StatusUpcoming, admin, ErrInvalidStatusTransition},
		{StatusUpcoming, StatusUpcoming, admin, ErrInvalidStatusTransition},
		{StatusUpcoming, "Archived", admin, ErrInvalidStatusTransition},
		{"Archived", StatusCancelled, admin, ErrUnknownStatus},
	}

	for _, tc := range cases {
		err := CheckTransition(tc.from, tc.to, tc.by)
		if tc.wantErr == nil && err != nil {
			t.Fatalf("%s -> %s (admin=%v): unexpected error %v", tc.from, tc.to, tc.by.Admin, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s -> %s (admin=%v): expected %v, got %v", tc.from, tc.to, tc.by.Admin, tc.wantErr, err)
		}
	}
}

func TestStatusAfterEdit(t *testing.T) {
	original := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	moved := time.Date(2024, 6, 11, 9, 30, 0, 0, time.UTC)

	got, err := StatusAfterEdit(StatusUpcoming, original, moved)
	if err != nil || got != StatusRescheduled {
		t.Fatalf("expected Rescheduled, got %s, %v", got, err)
	}

	got, err = StatusAfterEdit(StatusUpcoming, original, original.In(time.FixedZone("UTC+2", 7200)))
	if err != nil || got != StatusUpcoming {
		t.Fatalf("expected Upcoming for the same instant, got %s, %v", got, err)
	}

	got, err = StatusAfterEdit(StatusRescheduled, original, moved)
	if err != nil || got != StatusRescheduled {
		t.Fatalf("expected Rescheduled to stay, got %s, %v", got, err)
	}

	for _, s := range []AppointmentStatus{StatusCompleted, StatusCancelled, StatusNoArrival} {
		if _, err := StatusAfterEdit(s, original, moved); !errors.Is(err, ErrTerminalStatus) {
			t.Fatalf("%s: expected ErrTerminalStatus, got %v", s, err)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("No Arrival"); err != nil || s != StatusNoArrival {
		t.Fatalf("expected No Arrival, got %s, %v", s, err)
	}
	if _, err := ParseStatus("no arrival"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}
