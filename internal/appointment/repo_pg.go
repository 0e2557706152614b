package appointment

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insuhealth/appointment-service/internal/apperr"
)

// schemaSQL is embedded so the service can self-bootstrap its table.
//
//go:embed schema.sql
var schemaSQL string

// PGRepository is the durable Postgres-backed appointment store.
type PGRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PGRepository)(nil)

// NewPGRepository creates a connection pool and fails fast if the database is
// unreachable.
func NewPGRepository(ctx context.Context, dbURL string) (*PGRepository, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PGRepository{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schemaSQL)
	return err
}

// Ping validates database connectivity for readiness checks.
func (r *PGRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (r *PGRepository) Close() {
	r.pool.Close()
}

const apptCols = `id, insured_id, schedule_id, country_iso, status, created_at, updated_at, expires_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.InsuredID, &a.ScheduleID, &a.CountryISO,
		&a.Status, &a.CreatedAt, &a.UpdatedAt, &a.ExpiresAt)
	return &a, err
}

// PutIfAbsent inserts the record; the primary-key conflict path produces no
// row from RETURNING, which surfaces as pgx.ErrNoRows.
func (r *PGRepository) PutIfAbsent(ctx context.Context, appt *Appointment) error {
	var one int
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (`+apptCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO NOTHING
		RETURNING 1
	`, appt.ID, appt.InsuredID, appt.ScheduleID, appt.CountryISO,
		appt.Status, appt.CreatedAt, appt.UpdatedAt, appt.ExpiresAt).Scan(&one)

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Conflict("Appointment already exists")
	}
	if err != nil {
		return apperr.Internal("failed to save appointment", err)
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Appointment")
	}
	if err != nil {
		return nil, apperr.Internal("failed to retrieve appointment", err)
	}
	return a, nil
}

func (r *PGRepository) ListByInsuredID(ctx context.Context, insuredID string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE insured_id = $1
		ORDER BY created_at DESC
	`, insuredID)
	if err != nil {
		return nil, apperr.Internal("failed to retrieve appointments", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, apperr.Internal("failed to scan appointment", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("failed to retrieve appointments", err)
	}
	return out, nil
}

// UpdateStatus is conditional on existence: zero rows affected means the id
// is unknown.
func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, updatedAt)
	if err != nil {
		return apperr.Internal("failed to update appointment status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Appointment")
	}
	return nil
}

// Scan reads limit+1 rows so hasMore never needs a second round trip.
func (r *PGRepository) Scan(ctx context.Context, f ListFilter) ([]Appointment, bool, error) {
	query := `SELECT ` + apptCols + ` FROM appointments`
	var (
		where []string
		args  []interface{}
	)
	if f.CountryISO != "" {
		args = append(args, f.CountryISO)
		where = append(where, fmt.Sprintf("country_iso = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	args = append(args, f.Limit+1, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, apperr.Internal("failed to scan appointments", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, false, apperr.Internal("failed to scan appointment", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, apperr.Internal("failed to scan appointments", err)
	}

	hasMore := len(out) > f.Limit
	if hasMore {
		out = out[:f.Limit]
	}
	return out, hasMore, nil
}
