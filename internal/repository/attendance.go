package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

const attendanceColumns = `id, identity_kind, identity_id, date, check_in_time, check_out_time,
	status, hours_worked, created_at, updated_at`

// AttendanceRepository relies on UNIQUE(identity_kind, identity_id, date)
// and conditional updates for per-day exclusion.
type AttendanceRepository struct {
	pool PgxPool
}

func NewAttendanceRepository(pool PgxPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

func (r *AttendanceRepository) CreateIfAbsent(ctx context.Context, rec *domain.AttendanceRecord) (bool, error) {
	query := `
		INSERT INTO attendance_records (
			id, identity_kind, identity_id, guest_id, date, check_in_time, check_out_time,
			status, hours_worked, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (identity_kind, identity_id, date) DO NOTHING
	`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	var guestID *uuid.UUID
	if rec.IdentityKind == domain.IdentityGuest {
		id := rec.IdentityID
		guestID = &id
	}

	result, err := r.pool.Exec(ctx, query,
		rec.ID,
		string(rec.IdentityKind),
		rec.IdentityID,
		guestID,
		rec.Date.Time(time.UTC),
		rec.CheckInTime,
		rec.CheckOutTime,
		string(rec.Status),
		rec.HoursWorked,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, domain.ErrGuestNotFound
		}
		return false, fmt.Errorf("create attendance: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *AttendanceRepository) Get(ctx context.Context, key domain.AttendanceKey) (*domain.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE identity_kind = $1 AND identity_id = $2 AND date = $3
	`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, string(key.Kind), key.ID, key.Date.Time(time.UTC)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return rec, nil
}

// CompleteCheckOut only updates records that have no check-out yet.
func (r *AttendanceRepository) CompleteCheckOut(ctx context.Context, rec *domain.AttendanceRecord) (bool, error) {
	query := `
		UPDATE attendance_records
		SET check_out_time = $4, hours_worked = $5, status = $6, updated_at = $7
		WHERE identity_kind = $1 AND identity_id = $2 AND date = $3
			AND check_out_time IS NULL
	`

	result, err := r.pool.Exec(ctx, query,
		string(rec.IdentityKind),
		rec.IdentityID,
		rec.Date.Time(time.UTC),
		rec.CheckOutTime,
		rec.HoursWorked,
		string(rec.Status),
		rec.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("complete check-out: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// ListByIdentity returns records newest first. A non-positive limit returns
// everything.
func (r *AttendanceRepository) ListByIdentity(ctx context.Context, identity domain.Identity, limit int) ([]*domain.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE identity_kind = $1 AND identity_id = $2
		ORDER BY date DESC
		LIMIT $3
	`

	var lim *int
	if limit > 0 {
		lim = &limit
	}

	rows, err := r.pool.Query(ctx, query, string(identity.Kind), identity.ID, lim)
	if err != nil {
		return nil, fmt.Errorf("list attendance by identity: %w", err)
	}
	return collectRecords(rows)
}

func (r *AttendanceRepository) ListByDate(ctx context.Context, date domain.Date) ([]*domain.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE date = $1
		ORDER BY check_in_time
	`

	rows, err := r.pool.Query(ctx, query, date.Time(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]*domain.AttendanceRecord, error) {
	defer rows.Close()

	records := make([]*domain.AttendanceRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (*domain.AttendanceRecord, error) {
	var (
		rec    domain.AttendanceRecord
		kind   string
		status string
		date   time.Time
	)

	err := row.Scan(
		&rec.ID,
		&kind,
		&rec.IdentityID,
		&date,
		&rec.CheckInTime,
		&rec.CheckOutTime,
		&status,
		&rec.HoursWorked,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.IdentityKind = domain.IdentityKind(kind)
	rec.Status = domain.AttendanceStatus(status)
	rec.Date = domain.DateOf(date.UTC())
	return &rec, nil
}
