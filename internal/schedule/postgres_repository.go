package schedule

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository reads shifts and appointments and performs commit-time
// conflict checks inside a transaction.
type PostgresRepository struct {
	db pgxConn
}

// NewPostgresRepository creates a repository backed by a pgx pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("schedule: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithConn(db pgxConn) *PostgresRepository {
	if db == nil {
		panic("schedule: conn required")
	}
	return &PostgresRepository{db: db}
}

const selectShiftSQL = `
	SELECT type,
	       to_char(start_time, 'HH24:MI'),
	       to_char(end_time, 'HH24:MI'),
	       to_char(second_start_time, 'HH24:MI'),
	       to_char(second_end_time, 'HH24:MI')
	FROM work_shifts
	WHERE staff_id = $1 AND date = $2
	ORDER BY start_time
	LIMIT 1
`

// GetShift loads the shift for the practitioner and date, or nil when absent.
func (r *PostgresRepository) GetShift(ctx context.Context, practitionerID int64, date time.Time) (*WorkShift, error) {
	var (
		shiftType           string
		start, end          string
		secondStart, secEnd *string
	)
	err := r.db.QueryRow(ctx, selectShiftSQL, practitionerID, Day(date)).Scan(&shiftType, &start, &end, &secondStart, &secEnd)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: get shift: %w", err)
	}

	shift := WorkShift{PractitionerID: practitionerID, Date: Day(date), Type: ShiftType(shiftType)}
	if shift.Primary, err = parseInterval(start, end); err != nil {
		return nil, fmt.Errorf("schedule: get shift: %w", err)
	}
	if secondStart != nil && secEnd != nil {
		sec, err := parseInterval(*secondStart, *secEnd)
		if err != nil {
			return nil, fmt.Errorf("schedule: get shift: %w", err)
		}
		shift.Secondary = &sec
	}
	if err := shift.Validate(); err != nil {
		return nil, err
	}
	return &shift, nil
}

const listAppointmentsSQL = `
	SELECT id, client_id, service_id, to_char(start_time, 'HH24:MI'), duration_minutes, status
	FROM appointments
	WHERE staff_id = $1 AND appointment_date = $2 AND status <> 'cancelled'
	ORDER BY start_time
`

// ListAppointments returns live appointments ordered by start time.
func (r *PostgresRepository) ListAppointments(ctx context.Context, practitionerID int64, date time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, listAppointmentsSQL, practitionerID, Day(date))
	if err != nil {
		return nil, fmt.Errorf("schedule: list appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var (
			id, clientID, serviceID int64
			start, status           string
			duration                int
		)
		if err := rows.Scan(&id, &clientID, &serviceID, &start, &duration, &status); err != nil {
			return nil, fmt.Errorf("schedule: scan appointment: %w", err)
		}
		clock, err := ParseClock(start)
		if err != nil {
			return nil, fmt.Errorf("schedule: scan appointment %d: %w", id, err)
		}
		out = append(out, Appointment{
			ID:              strconv.FormatInt(id, 10),
			PractitionerID:  practitionerID,
			ClientID:        clientID,
			SubServiceID:    serviceID,
			Date:            Day(date),
			Start:           clock,
			DurationMinutes: duration,
			Status:          AppointmentStatus(status),
		})
	}
	return out, rows.Err()
}

const (
	advisoryLockSQL = `SELECT pg_advisory_xact_lock($1)`
	eligibilitySQL  = `SELECT EXISTS (SELECT 1 FROM staff_services WHERE staff_id = $1 AND service_id = $2)`
	overlapSQL      = `
		SELECT COUNT(*)
		FROM appointments
		WHERE staff_id = $1
		  AND appointment_date = $2
		  AND status <> 'cancelled'
		  AND id <> $5
		  AND EXTRACT(EPOCH FROM start_time)::int / 60 < $3::int + $4::int
		  AND EXTRACT(EPOCH FROM start_time)::int / 60 + duration_minutes > $3::int
	`
	insertAppointmentSQL = `
		INSERT INTO appointments (client_id, staff_id, service_id, appointment_date, start_time, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5::time, $6, 'confirmed', $7)
		RETURNING id
	`
)

// Commit inserts the appointment after re-checking eligibility and overlap
// under a per-practitioner transaction lock.
func (r *PostgresRepository) Commit(ctx context.Context, appt Appointment) (Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Appointment{}, fmt.Errorf("schedule: begin commit: %w", err)
	}
	stored, err := commitInTx(ctx, tx, appt)
	if err != nil {
		_ = tx.Rollback(ctx)
		return Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Appointment{}, fmt.Errorf("schedule: commit appointment: %w", err)
	}
	return stored, nil
}

func commitInTx(ctx context.Context, tx pgx.Tx, appt Appointment) (Appointment, error) {
	if _, err := tx.Exec(ctx, advisoryLockSQL, appt.PractitionerID); err != nil {
		return Appointment{}, fmt.Errorf("schedule: lock practitioner: %w", err)
	}

	var eligible bool
	if err := tx.QueryRow(ctx, eligibilitySQL, appt.PractitionerID, appt.SubServiceID).Scan(&eligible); err != nil {
		return Appointment{}, fmt.Errorf("schedule: check eligibility: %w", err)
	}
	if !eligible {
		return Appointment{}, ErrIneligible
	}

	if err := checkOverlap(ctx, tx, appt.PractitionerID, appt.Date, appt.Start, appt.DurationMinutes, 0); err != nil {
		return Appointment{}, err
	}

	var id int64
	err := tx.QueryRow(ctx, insertAppointmentSQL,
		appt.ClientID, appt.PractitionerID, appt.SubServiceID, Day(appt.Date), appt.Start.String(), appt.DurationMinutes, appt.Notes,
	).Scan(&id)
	if err != nil {
		return Appointment{}, fmt.Errorf("schedule: insert appointment: %w", err)
	}

	appt.ID = strconv.FormatInt(id, 10)
	appt.Date = Day(appt.Date)
	appt.Status = StatusConfirmed
	return appt, nil
}

func checkOverlap(ctx context.Context, tx pgx.Tx, practitionerID int64, date time.Time, start ClockTime, duration int, excludeID int64) error {
	var conflicts int
	err := tx.QueryRow(ctx, overlapSQL, practitionerID, Day(date), int(start), duration, excludeID).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("schedule: check overlap: %w", err)
	}
	if conflicts > 0 {
		return ErrSlotTaken
	}
	return nil
}

const (
	lockAppointmentSQL = `
		SELECT staff_id, client_id, service_id, duration_minutes
		FROM appointments
		WHERE id = $1 AND status <> 'cancelled'
		FOR UPDATE
	`
	rescheduleSQL = `UPDATE appointments SET appointment_date = $2, start_time = $3::time WHERE id = $1`
	cancelSQL     = `UPDATE appointments SET status = 'cancelled' WHERE id = $1 AND status <> 'cancelled'`
)

// Reschedule moves an appointment to a new date and start time.
func (r *PostgresRepository) Reschedule(ctx context.Context, id string, date time.Time, start ClockTime) (Appointment, error) {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Appointment{}, ErrAppointmentNotFound
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Appointment{}, fmt.Errorf("schedule: begin reschedule: %w", err)
	}
	appt, err := rescheduleInTx(ctx, tx, rowID, date, start)
	if err != nil {
		_ = tx.Rollback(ctx)
		return Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Appointment{}, fmt.Errorf("schedule: commit reschedule: %w", err)
	}
	return appt, nil
}

func rescheduleInTx(ctx context.Context, tx pgx.Tx, id int64, date time.Time, start ClockTime) (Appointment, error) {
	appt := Appointment{ID: strconv.FormatInt(id, 10), Date: Day(date), Start: start, Status: StatusConfirmed}
	err := tx.QueryRow(ctx, lockAppointmentSQL, id).Scan(&appt.PractitionerID, &appt.ClientID, &appt.SubServiceID, &appt.DurationMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrAppointmentNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("schedule: load appointment: %w", err)
	}
	if start.Add(appt.DurationMinutes) > MinutesPerDay {
		return Appointment{}, ErrPastMidnight
	}
	if _, err := tx.Exec(ctx, advisoryLockSQL, appt.PractitionerID); err != nil {
		return Appointment{}, fmt.Errorf("schedule: lock practitioner: %w", err)
	}
	if err := checkOverlap(ctx, tx, appt.PractitionerID, date, start, appt.DurationMinutes, id); err != nil {
		return Appointment{}, err
	}
	if _, err := tx.Exec(ctx, rescheduleSQL, id, Day(date), start.String()); err != nil {
		return Appointment{}, fmt.Errorf("schedule: update appointment: %w", err)
	}
	return appt, nil
}

// Cancel marks an appointment cancelled.
func (r *PostgresRepository) Cancel(ctx context.Context, id string) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrAppointmentNotFound
	}
	ct, err := r.db.Exec(ctx, cancelSQL, rowID)
	if err != nil {
		return fmt.Errorf("schedule: cancel appointment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func parseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}
