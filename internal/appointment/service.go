package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/autoservice-booking/internal/catalog"
	"github.com/hackgods/autoservice-booking/internal/config"
	redisclient "github.com/hackgods/autoservice-booking/internal/redis"
	"github.com/hackgods/autoservice-booking/internal/slot"
)

const (
	EventAppointmentBooked        = "APPOINTMENT_BOOKED"
	EventAppointmentUpdated       = "APPOINTMENT_UPDATED"
	EventAppointmentRescheduled   = "APPOINTMENT_RESCHEDULED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentDeleted       = "APPOINTMENT_DELETED"
	EventAppointmentReviewed      = "APPOINTMENT_REVIEWED"
)

var (
	ErrSlotBeingBooked  = errors.New("slot is currently being booked, please retry")
	ErrReviewNotAllowed = errors.New("only completed appointments can be reviewed")
	ErrInvalidRating    = errors.New("rating must be between 0 and 5")
	ErrInvalidPeriod    = errors.New("period end must be after its start")
)

// Catalog resolves the categories and services a booking may name.
type Catalog interface {
	ResolveCategory(ctx context.Context, name string) (*catalog.Category, error)
}

type Service struct {
	repo      Repository
	locker    redisclient.Locker
	catalog   Catalog
	slots     slot.Config
	loc       *time.Location
	readOnly  bool // refuse to take new slots
	validator *draftValidator
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cat Catalog, cfg config.Config, logger zerolog.Logger) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:      repo,
		locker:    locker,
		catalog:   cat,
		slots:     cfg.Slots,
		loc:       loc,
		readOnly:  cfg.ReadOnly,
		validator: newDraftValidator(),
		logger:    logger.With().Str("component", "appointment").Logger(),
		now:       time.Now,
	}
}

// Availability classifies every slot of day for a service category.
func (s *Service) Availability(ctx context.Context, day time.Time, category string) ([]slot.Classified, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, &ValidationError{Fields: map[string]string{"ServiceCategory": "Service category is required"}}
	}
	cat, err := s.resolveCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	category = cat.Name

	dayStart, dayEnd := dayBounds(day, s.loc)
	appts, err := s.repo.ListAppointmentsForDay(ctx, category, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load day appointments: %w", err)
	}

	return slot.Board(s.slots, dayStart, category, bookings(appts, uuid.Nil), s.now())
}

// BookAppointment creates an Upcoming appointment in the requested slot.
// The slot is checked against a fresh read of the day while holding the
// slot lock; the storage unique index backs the same rule.
func (s *Service) BookAppointment(ctx context.Context, by Actor, d Draft) (*Appointment, error) {
	if err := s.validator.normalize(&d); err != nil {
		return nil, err
	}
	if err := s.resolveOffering(ctx, &d); err != nil {
		return nil, err
	}

	var created *Appointment

	err := s.reserve(ctx, d.ServiceCategory, d.AppointmentDateTime, uuid.Nil, func(lockCtx context.Context, at time.Time) error {
		appt, err := s.repo.CreateAppointment(lockCtx, &Appointment{
			UserID:              by.UserID,
			FirstName:           d.FirstName,
			LastName:            d.LastName,
			ContactNumber:       d.ContactNumber,
			Email:               d.Email,
			ServiceCategory:     d.ServiceCategory,
			ServiceType:         d.ServiceType,
			AppointmentDateTime: at,
			Status:              StatusUpcoming,
			AdditionalNotes:     d.AdditionalNotes,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"user_id":          by.UserID.String(),
			"service_category": appt.ServiceCategory,
			"service_type":     appt.ServiceType,
			"appointment_at":   appt.AppointmentDateTime,
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateAppointment applies an edit from the booking form. Moving an
// Upcoming appointment to another time makes it Rescheduled.
func (s *Service) UpdateAppointment(ctx context.Context, by Actor, id uuid.UUID, d Draft) (*Appointment, error) {
	appt, err := s.load(ctx, by, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.normalize(&d); err != nil {
		return nil, err
	}
	// Appointments keep the service they were booked with even if the
	// catalog has since changed, so only a new choice is checked.
	if d.ServiceCategory != appt.ServiceCategory || d.ServiceType != appt.ServiceType {
		if err := s.resolveOffering(ctx, &d); err != nil {
			return nil, err
		}
	}

	status, err := StatusAfterEdit(appt.Status, appt.AppointmentDateTime, d.AppointmentDateTime)
	if err != nil {
		return nil, err
	}

	next := *appt
	next.FirstName = d.FirstName
	next.LastName = d.LastName
	next.ContactNumber = d.ContactNumber
	next.Email = d.Email
	next.ServiceCategory = d.ServiceCategory
	next.ServiceType = d.ServiceType
	next.AdditionalNotes = d.AdditionalNotes
	next.Status = status

	moved := !appt.AppointmentDateTime.Truncate(time.Minute).Equal(d.AppointmentDateTime.Truncate(time.Minute)) ||
		appt.ServiceCategory != d.ServiceCategory

	var updated *Appointment
	write := func(wctx context.Context, at time.Time) error {
		next.AppointmentDateTime = at
		u, err := s.repo.UpdateAppointment(wctx, &next, appt.Status)
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		updated = u
		return nil
	}

	if moved {
		err = s.reserve(ctx, d.ServiceCategory, d.AppointmentDateTime, appt.ID, write)
	} else {
		err = write(ctx, appt.AppointmentDateTime)
	}
	if err != nil {
		return nil, err
	}

	event := EventAppointmentUpdated
	if moved {
		event = EventAppointmentRescheduled
	}
	s.logEvent(ctx, updated.ID, event, map[string]any{
		"from_status":      appt.Status,
		"to_status":        updated.Status,
		"from":             appt.AppointmentDateTime,
		"to":               updated.AppointmentDateTime,
		"service_category": updated.ServiceCategory,
	})

	return updated, nil
}

// ChangeStatus moves an appointment to a new status by explicit request.
func (s *Service) ChangeStatus(ctx context.Context, by Actor, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	appt, err := s.load(ctx, by, id)
	if err != nil {
		return nil, err
	}

	if err := CheckTransition(appt.Status, to, by); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		return nil, fmt.Errorf("change appointment status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentStatusChanged, map[string]any{
		"from":     appt.Status,
		"to":       to,
		"by_admin": by.Admin,
	})

	return updated, nil
}

// CancelAppointment frees the appointment's slot. Owners may cancel their own.
func (s *Service) CancelAppointment(ctx context.Context, by Actor, id uuid.UUID) (*Appointment, error) {
	return s.ChangeStatus(ctx, by, id, StatusCancelled)
}

// DeleteAppointment removes the record entirely. Staff only.
func (s *Service) DeleteAppointment(ctx context.Context, by Actor, id uuid.UUID) error {
	if !by.Admin {
		return fmt.Errorf("%w: only staff can delete appointments", ErrNotPermitted)
	}

	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("delete appointment: %w", err)
	}

	s.logEvent(ctx, id, EventAppointmentDeleted, map[string]any{})
	return nil
}

// SubmitReview attaches or replaces the rating of a completed appointment.
func (s *Service) SubmitReview(ctx context.Context, by Actor, id uuid.UUID, rating int, comment string) (*Appointment, error) {
	if rating < 0 || rating > 5 {
		return nil, ErrInvalidRating
	}

	appt, err := s.load(ctx, by, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: appointment is %s", ErrReviewNotAllowed, appt.Status)
	}

	updated, err := s.repo.SaveReview(ctx, appt.ID, Review{Rating: rating, Comment: strings.TrimSpace(comment)})
	if err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentReviewed, map[string]any{
		"rating": rating,
	})

	return updated, nil
}

// GetAppointment returns an appointment visible to the actor.
func (s *Service) GetAppointment(ctx context.Context, by Actor, id uuid.UUID) (*Appointment, error) {
	return s.load(ctx, by, id)
}

// ListAppointments lists appointments visible to the actor. Customers only
// see their own and cannot search by customer details.
func (s *Service) ListAppointments(ctx context.Context, by Actor, f Filter) ([]Appointment, error) {
	if !by.Admin {
		uid := by.UserID
		f.UserID = &uid
		f.Name, f.Email, f.Phone = "", "", ""
	}

	if f.Limit <= 0 {
		f.Limit = 20 // default
	}
	if f.Limit > 100 {
		f.Limit = 100 // max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	appointments, err := s.repo.ListAppointments(ctx, f, s.loc)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

// Stats counts appointments scheduled in [from, to) by status and category.
func (s *Service) Stats(ctx context.Context, by Actor, from, to time.Time) (*Stats, error) {
	if !by.Admin {
		return nil, fmt.Errorf("%w: only staff can view analytics", ErrNotPermitted)
	}
	if !to.After(from) {
		return nil, ErrInvalidPeriod
	}

	stats, err := s.repo.CountAppointments(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	return stats, nil
}

func (s *Service) load(ctx context.Context, by Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !by.Owns(appt) {
		return nil, ErrAppointmentNotFound
	}
	return appt, nil
}

// reserve resolves requested onto the slot grid and runs write with the
// slot's absolute time while holding the (category, slot) lock. skip names
// an appointment that must not count against its own slot.
func (s *Service) reserve(ctx context.Context, category string, requested time.Time, skip uuid.UUID, write func(ctx context.Context, at time.Time) error) error {
	local := requested.In(s.loc)
	sl, ok := s.slots.Lookup(local)
	if !ok {
		return fmt.Errorf("%w: %s", slot.ErrUnknownSlot, local.Format("2006-01-02 15:04"))
	}

	err := s.locker.WithSlotLock(ctx, slot.Key(category, sl.At(local)), func(lockCtx context.Context) error {
		// Inside the critical section re-read the day so the check sees committed bookings
		dayStart, dayEnd := dayBounds(local, s.loc)
		appts, err := s.repo.ListAppointmentsForDay(lockCtx, category, dayStart, dayEnd)
		if err != nil {
			return fmt.Errorf("load day appointments: %w", err)
		}

		at, err := slot.RequestBooking(sl, local, category, bookings(appts, skip), s.now(), s.readOnly)
		if err != nil {
			return err
		}
		return write(lockCtx, at)
	})

	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrSlotBeingBooked
	}
	return err
}

func (s *Service) resolveCategory(ctx context.Context, name string) (*catalog.Category, error) {
	cat, err := s.catalog.ResolveCategory(ctx, name)
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		return nil, &ValidationError{Fields: map[string]string{"ServiceCategory": messageFor("ServiceCategory", "catalog")}}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve category: %w", err)
	}
	return cat, nil
}

// resolveOffering checks the draft names a service listed under its category
// and rewrites both names to their catalog spelling.
func (s *Service) resolveOffering(ctx context.Context, d *Draft) error {
	cat, err := s.resolveCategory(ctx, d.ServiceCategory)
	if err != nil {
		return err
	}
	o, ok := cat.Offering(d.ServiceType)
	if !ok {
		return &ValidationError{Fields: map[string]string{"ServiceType": messageFor("ServiceType", "catalog")}}
	}
	d.ServiceCategory = cat.Name
	d.ServiceType = o.Title
	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to insert event log")
	}
}
