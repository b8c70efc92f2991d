package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/tutorlink/appointments/internal/model"
	"github.com/tutorlink/appointments/internal/schedule"
)

// ErrStaleStatus signals a lost compare-and-swap: the stored status no
// longer matches what the caller read. The caller re-reads and re-applies.
var ErrStaleStatus = errors.New("appointment status changed concurrently")

const appointmentColumns = `
	id, chat_id, teacher_id, student_id,
	date_time, duration_minutes, location_type, location, specific_location, meeting_type,
	status, teacher_ready, student_ready, teacher_completed, student_completed, cancellation_reason,
	is_recurring, recurring_pattern, recurring_end_date, series_id,
	price, currency, special_rate, is_trial_lesson, notes, agenda,
	preparation_materials, required_materials, reminder_time,
	created_at, updated_at`

type AppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID, &a.ChatID, &a.TeacherID, &a.StudentID,
		&a.DateTime, &a.DurationMinutes, &a.LocationType, &a.Location, &a.SpecificLocation, &a.MeetingType,
		&a.Status, &a.TeacherReady, &a.StudentReady, &a.TeacherCompleted, &a.StudentCompleted, &a.CancellationReason,
		&a.IsRecurring, &a.RecurringPattern, &a.RecurringEndDate, &a.SeriesID,
		&a.Price, &a.Currency, &a.SpecialRate, &a.IsTrialLesson, &a.Notes, &a.Agenda,
		&a.PreparationMaterials, &a.RequiredMaterials, &a.ReminderTime,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// queryer abstracts pool vs transaction so the availability source can run
// inside the commit transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const activeBetweenQuery = `
	SELECT ` + appointmentColumns + `
	FROM appointments
	WHERE (teacher_id = ANY($1::bigint[]) OR student_id = ANY($1::bigint[]))
	  AND status IN ('pending', 'confirmed')
	  AND date_time < $3
	  AND date_time + make_interval(mins => duration_minutes) > $2
	ORDER BY date_time`

func activeBetween(ctx context.Context, q queryer, teacherID, studentID int64, from, to time.Time) ([]*model.Appointment, error) {
	participants := []int64{teacherID, studentID}

	rows, err := q.Query(ctx, activeBetweenQuery, participants, from, to)
	if err != nil {
		return nil, fmt.Errorf("query active appointments: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// ActiveBetween implements schedule.AppointmentSource against committed state.
func (r *AppointmentRepository) ActiveBetween(ctx context.Context, teacherID, studentID int64, from, to time.Time) ([]*model.Appointment, error) {
	return activeBetween(ctx, r.pool, teacherID, studentID, from, to)
}

// txSource is the transaction-bound view handed to the commit-time
// re-validation, so the overlap rule sees the latest committed state.
type txSource struct {
	tx pgx.Tx
}

func (s txSource) ActiveBetween(ctx context.Context, teacherID, studentID int64, from, to time.Time) ([]*model.Appointment, error) {
	return activeBetween(ctx, s.tx, teacherID, studentID, from, to)
}

// CreateAtomic inserts every appointment or none. Inside one transaction it
// takes per-participant advisory locks, re-runs the caller's validation
// against transaction-visible state, then inserts. Transient serialization
// and deadlock failures are retried; validation failures are not.
func (r *AppointmentRepository) CreateAtomic(
	ctx context.Context,
	appts []*model.Appointment,
	validate func(ctx context.Context, src schedule.AppointmentSource) error,
) error {
	if len(appts) == 0 {
		return nil
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.createAtomicOnce(ctx, appts, validate)
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *AppointmentRepository) createAtomicOnce(
	ctx context.Context,
	appts []*model.Appointment,
	validate func(ctx context.Context, src schedule.AppointmentSource) error,
) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockParticipants(ctx, tx, appts[0].TeacherID, appts[0].StudentID); err != nil {
		return err
	}

	if validate != nil {
		if err := validate(ctx, txSource{tx: tx}); err != nil {
			return err
		}
	}

	for _, a := range appts {
		if err := insertAppointment(ctx, tx, a); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// lockParticipants serializes bookings per participant. Locks are taken in
// id order so two pairs sharing a participant cannot deadlock.
func lockParticipants(ctx context.Context, tx pgx.Tx, teacherID, studentID int64) error {
	first, second := teacherID, studentID
	if second < first {
		first, second = second, first
	}
	for _, id := range []int64{first, second} {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, id); err != nil {
			return fmt.Errorf("acquire participant lock: %w", err)
		}
	}
	return nil
}

func insertAppointment(ctx context.Context, tx pgx.Tx, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, chat_id, teacher_id, student_id,
			date_time, duration_minutes, location_type, location, specific_location, meeting_type,
			status, cancellation_reason,
			is_recurring, recurring_pattern, recurring_end_date, series_id,
			price, currency, special_rate, is_trial_lesson, notes, agenda,
			preparation_materials, required_materials, reminder_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		RETURNING created_at, updated_at`

	err := tx.QueryRow(
		ctx, query,
		a.ID, a.ChatID, a.TeacherID, a.StudentID,
		a.DateTime, a.DurationMinutes, a.LocationType, a.Location, a.SpecificLocation, a.MeetingType,
		a.Status, a.CancellationReason,
		a.IsRecurring, a.RecurringPattern, a.RecurringEndDate, a.SeriesID,
		a.Price, a.Currency, a.SpecialRate, a.IsTrialLesson, a.Notes, a.Agenda,
		a.PreparationMaterials, a.RequiredMaterials, a.ReminderTime,
	).Scan(&a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// GetByID returns the appointment or nil when unknown.
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	a, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	return a, nil
}

// ListFilter narrows List results. Zero values mean "any".
type ListFilter struct {
	ChatID *int64
	Status model.Status
	From   *time.Time
	To     *time.Time
}

// List returns one page of matching appointments ordered by start time,
// plus the total match count for pagination.
func (r *AppointmentRepository) List(ctx context.Context, filter ListFilter, page, limit int) ([]*model.Appointment, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	where := "TRUE"
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ChatID != nil {
		where += " AND chat_id = " + arg(*filter.ChatID)
	}
	if filter.Status != "" {
		where += " AND status = " + arg(filter.Status)
	}
	if filter.From != nil {
		where += " AND date_time >= " + arg(*filter.From)
	}
	if filter.To != nil {
		where += " AND date_time < " + arg(*filter.To)
	}

	var total int
	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM appointments WHERE "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	query := "SELECT " + appointmentColumns + " FROM appointments WHERE " + where +
		" ORDER BY date_time" +
		" LIMIT " + arg(limit) + " OFFSET " + arg((page-1)*limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, total, rows.Err()
}

// ListBySeries returns every occurrence of a recurring series in order.
func (r *AppointmentRepository) ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE series_id = $1 ORDER BY date_time`

	rows, err := r.pool.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list series appointments: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// UpdateStatusCAS persists a lifecycle step, guarded by the status the
// caller based its decision on. Zero rows affected means another actor got
// there first.
func (r *AppointmentRepository) UpdateStatusCAS(ctx context.Context, a *model.Appointment, expected model.Status) error {
	query := `
		UPDATE appointments
		SET status = $1,
		    teacher_ready = $2,
		    student_ready = $3,
		    teacher_completed = $4,
		    student_completed = $5,
		    cancellation_reason = $6,
		    updated_at = now()
		WHERE id = $7 AND status = $8
		RETURNING updated_at`

	err := r.pool.QueryRow(
		ctx, query,
		a.Status, a.TeacherReady, a.StudentReady,
		a.TeacherCompleted, a.StudentCompleted, a.CancellationReason,
		a.ID, expected,
	).Scan(&a.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStaleStatus
		}
		return fmt.Errorf("update appointment status: %w", err)
	}
	return nil
}

// UpdateReadiness persists one side's readiness flag without touching the
// other side's column, so two participants toggling at the same time cannot
// overwrite each other. Guarded on the confirmed status the lifecycle
// requires; zero rows means the appointment moved on concurrently.
func (r *AppointmentRepository) UpdateReadiness(ctx context.Context, id uuid.UUID, side model.Side, ready bool) (*model.Appointment, error) {
	column := "student_ready"
	if side == model.SideTeacher {
		column = "teacher_ready"
	}

	query := `
		UPDATE appointments
		SET ` + column + ` = $1, updated_at = now()
		WHERE id = $2 AND status = 'confirmed'
		RETURNING ` + appointmentColumns

	a, err := scanAppointment(r.pool.QueryRow(ctx, query, ready, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("update readiness: %w", err)
	}
	return a, nil
}

// CancelExpiredPending cancels requests nobody answered before their start
// time and returns them so the sweeper can notify the owning chats.
// Pending -> cancelled matches the reject edge of the lifecycle table.
func (r *AppointmentRepository) CancelExpiredPending(ctx context.Context, now time.Time, reason string) ([]*model.Appointment, error) {
	query := `
		UPDATE appointments
		SET status = 'cancelled', cancellation_reason = $1, updated_at = now()
		WHERE status = 'pending' AND date_time <= $2
		RETURNING ` + appointmentColumns

	rows, err := r.pool.Query(ctx, query, reason, now)
	if err != nil {
		return nil, fmt.Errorf("cancel expired pending: %w", err)
	}
	defer rows.Close()

	var cancelled []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		cancelled = append(cancelled, a)
	}
	return cancelled, rows.Err()
}
