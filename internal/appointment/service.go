package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insuhealth/appointment-service/internal/apperr"
	"github.com/insuhealth/appointment-service/internal/metrics"
)

// EventPublisher announces lifecycle transitions to the event transport.
// Implemented by messaging.LifecyclePublisher.
type EventPublisher interface {
	PublishAppointmentCreated(ctx context.Context, appt *Appointment) error
	PublishAppointmentUpdated(ctx context.Context, appt *Appointment) error
}

// Service owns the appointment state machine. It validates input, writes the
// key-value store, and publishes lifecycle events. Stateless; safe for
// concurrent use.
type Service struct {
	repo      Repository
	publisher EventPublisher
	logger    zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, publisher EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With().Str("component", "appointment-service").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Create validates the request, persists a pending record, and publishes the
// Created lifecycle event. When the publish fails after a successful store
// write the error propagates and the record remains persisted as pending;
// recovery is an out-of-band re-drive.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	if err := ValidateCreateRequest(&req); err != nil {
		s.logger.Warn().Err(err).Msg("create request failed validation")
		return nil, err
	}

	now := s.now()
	appt := &Appointment{
		ID:         s.newID(),
		InsuredID:  req.InsuredID,
		ScheduleID: req.ScheduleID,
		CountryISO: req.CountryISO,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.AddDate(0, 0, ExpiryDays).Unix(),
	}

	// Ids are generated fresh, so a conflict here means an id-generation
	// collision, not user error.
	if err := s.repo.PutIfAbsent(ctx, appt); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appt.ID).Msg("failed to persist appointment")
		return nil, err
	}

	if err := s.publisher.PublishAppointmentCreated(ctx, appt); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appt.ID).
			Msg("created event publish failed, record remains pending unannounced")
		return nil, err
	}

	metrics.AppointmentsCreated.WithLabelValues(appt.CountryISO).Inc()
	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("country_iso", appt.CountryISO).
		Msg("appointment created")

	return &CreateResponse{
		ID:      appt.ID,
		Message: "Appointment creation is being processed",
		Status:  StatusPending,
	}, nil
}

// GetByInsuredID returns all appointments for the insured party, newest
// first. The id is zero-padded before the length check.
func (s *Service) GetByInsuredID(ctx context.Context, insuredID string) ([]Appointment, error) {
	insuredID = NormalizeInsuredID(insuredID)
	if len(insuredID) != insuredIDLen {
		return nil, apperr.NotFound("Insured party")
	}

	appts, err := s.repo.ListByInsuredID(ctx, insuredID)
	if err != nil {
		s.logger.Error().Err(err).Str("insured_id", insuredID).Msg("failed to list appointments")
		return nil, err
	}
	return appts, nil
}

// GetAll returns one filtered page of appointments, newest first.
func (s *Service) GetAll(ctx context.Context, f ListFilter) (*Page, error) {
	if err := ValidateListFilter(&f); err != nil {
		return nil, err
	}

	appts, hasMore, err := s.repo.Scan(ctx, f)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to scan appointments")
		return nil, err
	}
	return &Page{
		Appointments: appts,
		Total:        len(appts),
		Limit:        f.Limit,
		Offset:       f.Offset,
		HasMore:      hasMore,
	}, nil
}

// UpdateStatus transitions the record. Terminal states are absorbing: a
// transition back to pending is rejected. There is no optimistic-concurrency
// check beyond existence, so concurrent updates resolve last-write-wins on
// updatedAt.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !ValidStatuses[status] {
		return apperr.Validation("Invalid status: " + string(status))
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if status == StatusPending && current.Status.Terminal() {
		return apperr.Validation("cannot transition a terminal appointment back to pending")
	}

	now := s.now()
	if err := s.repo.UpdateStatus(ctx, id, status, now); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", id).Msg("failed to update status")
		return err
	}

	current.Status = status
	current.UpdatedAt = now
	if err := s.publisher.PublishAppointmentUpdated(ctx, current); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", id).Msg("updated event publish failed")
		return err
	}

	s.logger.Info().Str("appointment_id", id).Str("status", string(status)).Msg("appointment status updated")
	return nil
}
