package enrichment

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insuhealth/appointment-service/internal/apperr"
)

//go:embed schema.sql
var schemaSQL string

// PGStore is one country's relational enrichment store.
type PGStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

// NewPGStore creates a connection pool against the country's database and
// fails fast if it is unreachable.
func NewPGStore(ctx context.Context, dbURL string) (*PGStore, error) {
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
	return &PGStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

func (s *PGStore) Close() {
	s.pool.Close()
}

const enrichedCols = `id, insured_id, schedule_id, country_iso, status, created_at, updated_at,
	doctor_id, doctor_name, specialty_id, specialty_name,
	medical_center_id, center_name, center_address,
	appointment_cost, currency, tax_rate, processed_at, processed_by`

func scanEnriched(row pgx.Row) (*Enriched, error) {
	var e Enriched
	err := row.Scan(&e.ID, &e.InsuredID, &e.ScheduleID, &e.CountryISO, &e.Status,
		&e.CreatedAt, &e.UpdatedAt,
		&e.DoctorID, &e.DoctorName, &e.SpecialtyID, &e.SpecialtyName,
		&e.MedicalCenterID, &e.CenterName, &e.CenterAddress,
		&e.AppointmentCost, &e.Currency, &e.TaxRate, &e.ProcessedAt, &e.ProcessedBy)
	return &e, err
}

// Upsert is the idempotent write the worker relies on under redelivery:
// replays of the same id overwrite mutable fields in place.
func (s *PGStore) Upsert(ctx context.Context, rec *Enriched) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enriched_appointments (`+enrichedCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT (id) DO UPDATE SET
			status            = EXCLUDED.status,
			updated_at        = EXCLUDED.updated_at,
			doctor_id         = EXCLUDED.doctor_id,
			doctor_name       = EXCLUDED.doctor_name,
			specialty_id      = EXCLUDED.specialty_id,
			specialty_name    = EXCLUDED.specialty_name,
			medical_center_id = EXCLUDED.medical_center_id,
			center_name       = EXCLUDED.center_name,
			center_address    = EXCLUDED.center_address,
			appointment_cost  = EXCLUDED.appointment_cost,
			currency          = EXCLUDED.currency,
			tax_rate          = EXCLUDED.tax_rate,
			processed_at      = EXCLUDED.processed_at,
			processed_by      = EXCLUDED.processed_by
	`, rec.ID, rec.InsuredID, rec.ScheduleID, rec.CountryISO, rec.Status,
		rec.CreatedAt, rec.UpdatedAt,
		rec.DoctorID, rec.DoctorName, rec.SpecialtyID, rec.SpecialtyName,
		rec.MedicalCenterID, rec.CenterName, rec.CenterAddress,
		rec.AppointmentCost, rec.Currency, rec.TaxRate, rec.ProcessedAt, rec.ProcessedBy)
	if err != nil {
		return apperr.Internal("failed to upsert enriched appointment", err)
	}
	return nil
}

func (s *PGStore) GetByID(ctx context.Context, id string) (*Enriched, error) {
	e, err := scanEnriched(s.pool.QueryRow(ctx,
		`SELECT `+enrichedCols+` FROM enriched_appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Enriched appointment")
	}
	if err != nil {
		return nil, apperr.Internal("failed to retrieve enriched appointment", err)
	}
	return e, nil
}

func (s *PGStore) ListByInsuredID(ctx context.Context, insuredID string) ([]Enriched, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+enrichedCols+` FROM enriched_appointments
		WHERE insured_id = $1
		ORDER BY processed_at DESC
	`, insuredID)
	if err != nil {
		return nil, apperr.Internal("failed to list enriched appointments", err)
	}
	defer rows.Close()

	var out []Enriched
	for rows.Next() {
		e, err := scanEnriched(rows)
		if err != nil {
			return nil, apperr.Internal("failed to scan enriched appointment", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("failed to list enriched appointments", err)
	}
	return out, nil
}
