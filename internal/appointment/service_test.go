package appointment

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/autoservice-booking/internal/catalog"
	"github.com/hackgods/autoservice-booking/internal/config"
	redisclient "github.com/hackgods/autoservice-booking/internal/redis"
	"github.com/hackgods/autoservice-booking/internal/slot"
)

// memRepository mirrors the Postgres rules the service depends on: one
// non-cancelled appointment per (category, time) and compare-and-set updates.
type memRepository struct {
	mu     sync.Mutex
	appts  map[uuid.UUID]Appointment
	events []EventLog
}

func newMemRepository() *memRepository {
	return &memRepository{appts: map[uuid.UUID]Appointment{}}
}

func (r *memRepository) conflict(a Appointment) bool {
	if a.Status == StatusCancelled {
		return false
	}
	for _, other := range r.appts {
		if other.ID != a.ID && other.Status != StatusCancelled &&
			other.ServiceCategory == a.ServiceCategory &&
			other.AppointmentDateTime.Equal(a.AppointmentDateTime) {
			return true
		}
	}
	return false
}

func (r *memRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *memRepository) ListAppointmentsForDay(_ context.Context, category string, dayStart, dayEnd time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.appts {
		if a.ServiceCategory == category && !a.AppointmentDateTime.Before(dayStart) && a.AppointmentDateTime.Before(dayEnd) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepository) ListAppointments(_ context.Context, f Filter, _ *time.Location) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.appts {
		if f.UserID != nil && a.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Scope == ScopeCurrent && !a.Status.Active() {
			continue
		}
		if f.Scope == ScopeHistory && !a.Status.Terminal() {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentDateTime.Before(out[j].AppointmentDateTime) })
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memRepository) CountAppointments(_ context.Context, from, to time.Time) (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := &Stats{From: from, To: to, ByStatus: map[AppointmentStatus]int{}, ByCategory: map[string]int{}}
	for _, a := range r.appts {
		if a.AppointmentDateTime.Before(from) || !a.AppointmentDateTime.Before(to) {
			continue
		}
		st.Total++
		st.ByStatus[a.Status]++
		st.ByCategory[a.ServiceCategory]++
	}
	return st, nil
}

func (r *memRepository) CreateAppointment(_ context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created := *a
	created.ID = uuid.New()
	if r.conflict(created) {
		return nil, slot.ErrSlotAlreadyBooked
	}
	r.appts[created.ID] = created
	return &created, nil
}

func (r *memRepository) UpdateAppointment(_ context.Context, a *Appointment, expected AppointmentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.appts[a.ID]
	if !ok || cur.Status != expected {
		return nil, ErrStaleAppointment
	}
	if r.conflict(*a) {
		return nil, slot.ErrSlotAlreadyBooked
	}
	r.appts[a.ID] = *a
	updated := *a
	return &updated, nil
}

func (r *memRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.appts[id]
	if !ok || cur.Status != from {
		return nil, ErrStaleAppointment
	}
	cur.Status = to
	r.appts[id] = cur
	return &cur, nil
}

func (r *memRepository) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appts, id)
	return nil
}

func (r *memRepository) SaveReview(_ context.Context, id uuid.UUID, rv Review) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cur.Review = &rv
	r.appts[id] = cur
	return &cur, nil
}

func (r *memRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRepository) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.EventType)
	}
	return out
}

// busyLocker reports every key as held.
type busyLocker struct{}

func (busyLocker) WithSlotLock(context.Context, string, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

// defaultCatalog serves the starter catalog from memory.
type defaultCatalog struct{}

func (defaultCatalog) ResolveCategory(_ context.Context, name string) (*catalog.Category, error) {
	for _, c := range catalog.Defaults {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			c := c
			return &c, nil
		}
	}
	return nil, catalog.ErrCategoryNotFound
}

var testNow = time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

func newTestService(repo Repository, locker redisclient.Locker) *Service {
	return newTestServiceWith(repo, locker, config.Config{Slots: slot.Bands, Location: time.UTC})
}

func newTestServiceWith(repo Repository, locker redisclient.Locker, cfg config.Config) *Service {
	svc := NewService(repo, locker, defaultCatalog{}, cfg, zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func draftAt(at time.Time) Draft {
	d := validDraft()
	d.AppointmentDateTime = at
	return d
}

func TestBookAppointment(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo, redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	appt, err := svc.BookAppointment(ctx, customer, draftAt(at))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != StatusUpcoming {
		t.Fatalf("expected Upcoming, got %s", appt.Status)
	}
	if appt.UserID != customer.UserID {
		t.Fatalf("expected owner %s, got %s", customer.UserID, appt.UserID)
	}
	if !appt.AppointmentDateTime.Equal(at) {
		t.Fatalf("expected %s, got %s", at, appt.AppointmentDateTime)
	}

	if _, err := svc.BookAppointment(ctx, admin, draftAt(at)); !errors.Is(err, slot.ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}

	other := draftAt(at)
	other.ServiceCategory = "Tire Service"
	other.ServiceType = "Rotation"
	if _, err := svc.BookAppointment(ctx, customer, other); err != nil {
		t.Fatalf("expected another category to book the same time, got %v", err)
	}

	if got := repo.eventTypes(); len(got) != 2 || got[0] != EventAppointmentBooked {
		t.Fatalf("expected two booked events, got %v", got)
	}
}

func TestBookAppointment_Rejections(t *testing.T) {
	svc := newTestService(newMemRepository(), redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	if _, err := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC))); !errors.Is(err, slot.ErrSlotInPast) {
		t.Fatalf("expected ErrSlotInPast, got %v", err)
	}
	if _, err := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))); !errors.Is(err, slot.ErrUnknownSlot) {
		t.Fatalf("expected ErrUnknownSlot, got %v", err)
	}

	bad := draftAt(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC))
	bad.Email = "nope"
	var verr *ValidationError
	if _, err := svc.BookAppointment(ctx, customer, bad); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBookAppointment_LockHeld(t *testing.T) {
	svc := newTestService(newMemRepository(), busyLocker{})

	_, err := svc.BookAppointment(context.Background(), customer, draftAt(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)))
	if !errors.Is(err, ErrSlotBeingBooked) {
		t.Fatalf("expected ErrSlotBeingBooked, got %v", err)
	}
}

func TestBookAppointment_ConcurrentSameSlot(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo, redisclient.NewLocalSlotLocker())
	at := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.BookAppointment(context.Background(), customer, draftAt(at)); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one booking to win, got %d", success)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo, redisclient.NewLocalSlotLocker())
	ctx := context.Background()
	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

	appt, err := svc.BookAppointment(ctx, customer, draftAt(at))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	board, err := svc.Availability(ctx, at, "Oil Change")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if board[2].Status != slot.Booked {
		t.Fatalf("expected 09:30 Booked, got %s", board[2].Status)
	}

	if _, err := svc.CancelAppointment(ctx, customer, appt.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	board, _ = svc.Availability(ctx, at, "Oil Change")
	if board[2].Status != slot.Open {
		t.Fatalf("expected 09:30 Open after cancel, got %s", board[2].Status)
	}
	if _, err := svc.BookAppointment(ctx, admin, draftAt(at)); err != nil {
		t.Fatalf("expected the freed slot to be bookable, got %v", err)
	}
}

func TestUpdateAppointment_Reschedules(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo, redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	appt, err := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same := draftAt(appt.AppointmentDateTime)
	same.AdditionalNotes = "bring the spare key"
	updated, err := svc.UpdateAppointment(ctx, customer, appt.ID, same)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusUpcoming {
		t.Fatalf("expected Upcoming for an edit in place, got %s", updated.Status)
	}

	moved, err := svc.UpdateAppointment(ctx, customer, appt.ID, draftAt(time.Date(2024, 6, 11, 9, 30, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved.Status != StatusRescheduled {
		t.Fatalf("expected Rescheduled, got %s", moved.Status)
	}

	events := repo.eventTypes()
	if events[len(events)-1] != EventAppointmentRescheduled {
		t.Fatalf("expected a rescheduled event last, got %v", events)
	}
}

func TestUpdateAppointment_IntoBookedSlot(t *testing.T) {
	svc := newTestService(newMemRepository(), redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	first, _ := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)))
	if _, err := svc.BookAppointment(ctx, admin, draftAt(time.Date(2024, 6, 10, 10, 45, 0, 0, time.UTC))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.UpdateAppointment(ctx, customer, first.ID, draftAt(time.Date(2024, 6, 10, 10, 45, 0, 0, time.UTC)))
	if !errors.Is(err, slot.ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}
}

func TestUpdateAppointment_Terminal(t *testing.T) {
	svc := newTestService(newMemRepository(), redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	appt, _ := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)))
	if _, err := svc.ChangeStatus(ctx, admin, appt.ID, StatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.UpdateAppointment(ctx, customer, appt.ID, draftAt(time.Date(2024, 6, 11, 9, 30, 0, 0, time.UTC))); !errors.Is(err, ErrTerminalStatus) {
		t.Fatalf("expected ErrTerminalStatus, got %v", err)
	}
	if _, err := svc.CancelAppointment(ctx, admin, appt.ID); !errors.Is(err, ErrTerminalStatus) {
		t.Fatalf("expected ErrTerminalStatus, got %v", err)
	}
}

func TestChangeStatus_Permissions(t *testing.T) {
	svc := newTestService(newMemRepository(), redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	appt, _ := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)))

	if _, err := svc.ChangeStatus(ctx, customer, appt.ID, StatusNoArrival); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}

	stranger := Actor{UserID: uuid.New()}
	if _, err := svc.CancelAppointment(ctx, stranger, appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound for another customer, got %v", err)
	}

	updated, err := svc.ChangeStatus(ctx, admin, appt.ID, StatusNoArrival)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusNoArrival {
		t.Fatalf("expected No Arrival, got %s", updated.Status)
	}
}

func TestDeleteAppointment(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo, redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	appt, _ := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)))

	if err := svc.DeleteAppointment(ctx, customer, appt.ID); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
	if err := svc.DeleteAppointment(ctx, admin, appt.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetAppointment(ctx, admin, appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound after delete, got %v", err)
	}
	if err := svc.DeleteAppointment(ctx, admin, appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound on second delete, got %v", err)
	}
}

func TestSubmitReview(t *testing.T) {
	svc := newTestService(newMemRepository(), redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	appt, _ := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)))

	if _, err := svc.SubmitReview(ctx, customer, appt.ID, 5, "quick"); !errors.Is(err, ErrReviewNotAllowed) {
		t.Fatalf("expected ErrReviewNotAllowed before completion, got %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, admin, appt.ID, StatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitReview(ctx, customer, appt.ID, 6, ""); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}

	reviewed, err := svc.SubmitReview(ctx, customer, appt.ID, 4, "  friendly staff ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reviewed.Review == nil || reviewed.Review.Rating != 4 || reviewed.Review.Comment != "friendly staff" {
		t.Fatalf("unexpected review: %+v", reviewed.Review)
	}
}

func TestListAppointments_ScopesToOwner(t *testing.T) {
	svc := newTestService(newMemRepository(), redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	if _, err := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.BookAppointment(ctx, admin, draftAt(time.Date(2024, 6, 10, 10, 45, 0, 0, time.UTC))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mine, err := svc.ListAppointments(ctx, customer, Filter{Name: "Lovelace"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != customer.UserID {
		t.Fatalf("expected only the customer's appointment, got %d", len(mine))
	}

	all, _ := svc.ListAppointments(ctx, admin, Filter{Scope: ScopeCurrent})
	if len(all) != 2 {
		t.Fatalf("expected admin to see 2, got %d", len(all))
	}
}

func TestStats(t *testing.T) {
	svc := newTestService(newMemRepository(), redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	a, _ := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)))
	if _, err := svc.BookAppointment(ctx, customer, draftAt(time.Date(2024, 6, 10, 10, 45, 0, 0, time.UTC))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, admin, a.ID, StatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Stats(ctx, customer, from, to); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
	if _, err := svc.Stats(ctx, admin, to, from); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}

	st, err := svc.Stats(ctx, admin, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Total != 2 || st.ByStatus[StatusCompleted] != 1 || st.ByStatus[StatusUpcoming] != 1 || st.ByCategory["Oil Change"] != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestAvailability_RequiresCategory(t *testing.T) {
	svc := newTestService(newMemRepository(), redisclient.NewLocalSlotLocker())
	var verr *ValidationError
	if _, err := svc.Availability(context.Background(), testNow, " "); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAvailability_UnknownCategory(t *testing.T) {
	svc := newTestService(newMemRepository(), redisclient.NewLocalSlotLocker())
	var verr *ValidationError
	_, err := svc.Availability(context.Background(), testNow, "Car Wash")
	if !errors.As(err, &verr) || verr.Fields["ServiceCategory"] != "Unknown service category" {
		t.Fatalf("expected unknown category ValidationError, got %v", err)
	}
}

func TestAvailability_CategoryCaseInsensitive(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo, redisclient.NewLocalSlotLocker())
	ctx := context.Background()

	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	if _, err := svc.BookAppointment(ctx, customer, draftAt(at)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	board, err := svc.Availability(ctx, at, "oil change")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range board {
		if c.At.Equal(at) && c.Status != slot.Booked {
			t.Fatalf("expected %s to show as booked, got %s", at, c.Status)
		}
	}
}

func TestBookAppointment_Catalog(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo, redisclient.NewLocalSlotLocker())
	ctx := context.Background()
	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		name     string
		category string
		typ      string
		field    string
		message  string
	}{
		{"unknown category", "Definitely Not A Category", "Tire Rotation", "ServiceCategory", "Unknown service category"},
		{"type from another category", "Oil Change", "Rotation", "ServiceType", "Service type is not offered in this category"},
		{"unknown type", "Tire Service", "Tire Rotation", "ServiceType", "Service type is not offered in this category"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := draftAt(at)
			d.ServiceCategory = tc.category
			d.ServiceType = tc.typ

			_, err := svc.BookAppointment(ctx, customer, d)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Fields[tc.field] != tc.message {
				t.Fatalf("expected %s=%q, got %v", tc.field, tc.message, verr.Fields)
			}
		})
	}

	d := draftAt(at)
	d.ServiceCategory = " oil change "
	d.ServiceType = "full synthetic"
	appt, err := svc.BookAppointment(ctx, customer, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.ServiceCategory != "Oil Change" || appt.ServiceType != "Full Synthetic" {
		t.Fatalf("expected catalog spelling, got %q / %q", appt.ServiceCategory, appt.ServiceType)
	}

	// Same slot under a different spelling is still the same slot.
	if _, err := svc.BookAppointment(ctx, admin, draftAt(at)); !errors.Is(err, slot.ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}
}

func TestUpdateAppointment_CatalogOnlyChecksNewChoice(t *testing.T) {
	repo := newMemRepository()
	svc := newTestService(repo, redisclient.NewLocalSlotLocker())
	ctx := context.Background()
	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

	// A booking made under a service that has since left the catalog.
	legacy := draftAt(at)
	legacy.ServiceType = "Engine Flush"
	id := uuid.New()
	repo.appts[id] = Appointment{
		ID:                  id,
		UserID:              customer.UserID,
		FirstName:           "Ada",
		LastName:            "Lovelace",
		ContactNumber:       legacy.ContactNumber,
		Email:               legacy.Email,
		ServiceCategory:     legacy.ServiceCategory,
		ServiceType:         legacy.ServiceType,
		AppointmentDateTime: at,
		Status:              StatusUpcoming,
	}

	legacy.AdditionalNotes = "Bring the spare key"
	if _, err := svc.UpdateAppointment(ctx, customer, id, legacy); err != nil {
		t.Fatalf("expected an unchanged service to be accepted, got %v", err)
	}

	changed := legacy
	changed.ServiceType = "Brake Bleed"
	var verr *ValidationError
	if _, err := svc.UpdateAppointment(ctx, customer, id, changed); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for a new unknown service, got %v", err)
	}
}

func TestReadOnlyFreezesNewSlots(t *testing.T) {
	repo := newMemRepository()
	ctx := context.Background()
	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

	open := newTestService(repo, redisclient.NewLocalSlotLocker())
	appt, err := open.BookAppointment(ctx, customer, draftAt(at))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frozen := newTestServiceWith(repo, redisclient.NewLocalSlotLocker(), config.Config{Slots: slot.Bands, Location: time.UTC, ReadOnly: true})

	later := time.Date(2024, 6, 10, 13, 15, 0, 0, time.UTC)
	if _, err := frozen.BookAppointment(ctx, customer, draftAt(later)); !errors.Is(err, slot.ErrSlotNotSelectable) {
		t.Fatalf("expected ErrSlotNotSelectable for a new booking, got %v", err)
	}
	if _, err := frozen.UpdateAppointment(ctx, customer, appt.ID, draftAt(later)); !errors.Is(err, slot.ErrSlotNotSelectable) {
		t.Fatalf("expected ErrSlotNotSelectable for a move, got %v", err)
	}

	edit := draftAt(at)
	edit.AdditionalNotes = "Running ten minutes late"
	if _, err := frozen.UpdateAppointment(ctx, customer, appt.ID, edit); err != nil {
		t.Fatalf("expected an in-place edit to be allowed, got %v", err)
	}
	if _, err := frozen.CancelAppointment(ctx, customer, appt.ID); err != nil {
		t.Fatalf("expected cancel to be allowed, got %v", err)
	}
}
