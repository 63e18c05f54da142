package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/autoservice-booking/internal/slot"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	slotUniqueIndex = "appointments_slot_uniq"
)

const appointmentColumns = `
	a.id, a.user_id, a.first_name, a.last_name, a.contact_number, a.email,
	a.service_category, a.service_type, a.appointment_at, a.status,
	a.additional_notes, a.created_at, a.updated_at,
	r.rating, r.comment, r.created_at`

// withReview selects a single written row (from a data-modifying CTE named a)
// together with its review.
const withReview = `
	SELECT ` + appointmentColumns + `
	FROM a
	LEFT JOIN reviews r ON r.appointment_id = a.id`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var (
		rating     *int
		comment    *string
		reviewedAt *time.Time
	)

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.FirstName,
		&a.LastName,
		&a.ContactNumber,
		&a.Email,
		&a.ServiceCategory,
		&a.ServiceType,
		&a.AppointmentDateTime,
		&a.Status,
		&a.AdditionalNotes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&rating,
		&comment,
		&reviewedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, translateWriteError(err)
	}

	if rating != nil {
		a.Review = &Review{Rating: *rating}
		if comment != nil {
			a.Review.Comment = *comment
		}
		if reviewedAt != nil {
			a.Review.CreatedAt = *reviewedAt
		}
	}
	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// translateWriteError maps the slot unique index onto the engine's booking error.
func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == slotUniqueIndex:
		return fmt.Errorf("%w: %s", slot.ErrSlotAlreadyBooked, pgErr.Detail)
	case pgErr.Code == pgForeignKeyViolation:
		return ErrAppointmentNotFound
	}
	return err
}

// compareAndSet turns "no row matched" into a stale write.
func compareAndSet(a *Appointment, err error) (*Appointment, error) {
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrStaleAppointment
	}
	return a, err
}

// Interface methods

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		LEFT JOIN reviews r ON r.appointment_id = a.id
		WHERE a.id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsForDay(ctx context.Context, category string, dayStart, dayEnd time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		LEFT JOIN reviews r ON r.appointment_id = a.id
		WHERE a.service_category = $1
		  AND a.appointment_at >= $2
		  AND a.appointment_at < $3
		ORDER BY a.appointment_at
	`, category, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f Filter, loc *time.Location) ([]Appointment, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	order := "a.appointment_at DESC"
	switch f.Scope {
	case ScopeCurrent:
		where = append(where, fmt.Sprintf("a.status IN (%s, %s)", arg(StatusUpcoming), arg(StatusRescheduled)))
		order = "a.appointment_at ASC"
	case ScopeHistory:
		where = append(where, fmt.Sprintf("a.status IN (%s, %s, %s)", arg(StatusCompleted), arg(StatusCancelled), arg(StatusNoArrival)))
	}

	if f.UserID != nil {
		where = append(where, "a.user_id = "+arg(*f.UserID))
	}
	if f.Name != "" {
		where = append(where, "(a.first_name || ' ' || a.last_name) ILIKE '%' || "+arg(f.Name)+"::text || '%'")
	}
	if f.Email != "" {
		where = append(where, "a.email ILIKE '%' || "+arg(f.Email)+"::text || '%'")
	}
	if f.Phone != "" {
		where = append(where, "strpos(a.contact_number, "+arg(f.Phone)+") > 0")
	}
	if f.Status != "" {
		where = append(where, "a.status = "+arg(f.Status))
	}
	if f.BookedOn != nil {
		start, end := dayBounds(*f.BookedOn, loc)
		where = append(where, fmt.Sprintf("a.created_at >= %s AND a.created_at < %s", arg(start), arg(end)))
	}
	if f.ScheduledOn != nil {
		start, end := dayBounds(*f.ScheduledOn, loc)
		where = append(where, fmt.Sprintf("a.appointment_at >= %s AND a.appointment_at < %s", arg(start), arg(end)))
	}

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		LEFT JOIN reviews r ON r.appointment_id = a.id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, "\n\t\t  AND ")
	}
	query += "\n\t\tORDER BY " + order
	query += fmt.Sprintf("\n\t\tLIMIT %s OFFSET %s", arg(f.Limit), arg(f.Offset))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) CountAppointments(ctx context.Context, from, to time.Time) (*Stats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, service_category, count(*)
		FROM appointments
		WHERE appointment_at >= $1
		  AND appointment_at < $2
		GROUP BY status, service_category
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{
		From:       from,
		To:         to,
		ByStatus:   map[AppointmentStatus]int{},
		ByCategory: map[string]int{},
	}
	for rows.Next() {
		var (
			status   AppointmentStatus
			category string
			n        int
		)
		if err := rows.Scan(&status, &category, &n); err != nil {
			return nil, err
		}
		stats.Total += n
		stats.ByStatus[status] += n
		stats.ByCategory[category] += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		WITH a AS (
			INSERT INTO appointments (
				id, user_id, first_name, last_name, contact_number, email,
				service_category, service_type, appointment_at, status,
				additional_notes, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
			RETURNING *
		)`+withReview,
		id, a.UserID, a.FirstName, a.LastName, a.ContactNumber, a.Email,
		a.ServiceCategory, a.ServiceType, a.AppointmentDateTime, a.Status,
		a.AdditionalNotes,
	)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment, expected AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		WITH a AS (
			UPDATE appointments
			SET first_name = $2,
			    last_name = $3,
			    contact_number = $4,
			    email = $5,
			    service_category = $6,
			    service_type = $7,
			    appointment_at = $8,
			    status = $9,
			    additional_notes = $10,
			    updated_at = now()
			WHERE id = $1
			  AND status = $11
			RETURNING *
		)`+withReview,
		a.ID, a.FirstName, a.LastName, a.ContactNumber, a.Email,
		a.ServiceCategory, a.ServiceType, a.AppointmentDateTime, a.Status,
		a.AdditionalNotes, expected,
	)
	return compareAndSet(scanAppointment(row))
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		WITH a AS (
			UPDATE appointments
			SET status = $2,
			    updated_at = now()
			WHERE id = $1
			  AND status = $3
			RETURNING *
		)`+withReview,
		id, to, from,
	)
	return compareAndSet(scanAppointment(row))
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) SaveReview(ctx context.Context, id uuid.UUID, rv Review) (*Appointment, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reviews (appointment_id, rating, comment, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (appointment_id) DO UPDATE
		SET rating = EXCLUDED.rating,
		    comment = EXCLUDED.comment
	`, id, rv.Rating, rv.Comment)
	if err != nil {
		return nil, translateWriteError(err)
	}
	return r.GetAppointmentByID(ctx, id)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func dayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
