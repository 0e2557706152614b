package enrichment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/insuhealth/appointment-service/internal/apperr"
	"github.com/insuhealth/appointment-service/internal/appointment"
	"github.com/insuhealth/appointment-service/internal/messaging"
	"github.com/insuhealth/appointment-service/internal/metrics"
)

// Worker processes one country's appointment-created events: look up the
// record, enrich it, upsert the country store, emit a completion signal.
// Every error returns to the transport, whose redelivery and dead-letter
// policy is the sole recovery path; idempotent effects make blind retry safe.
type Worker struct {
	country  string
	workerID string

	appointments appointment.Repository
	store        Store
	provider     Provider
	bus          messaging.Bus
	busName      string
	logger       zerolog.Logger

	now func() time.Time
}

func NewWorker(
	country, workerID string,
	appointments appointment.Repository,
	store Store,
	provider Provider,
	bus messaging.Bus,
	busName string,
	logger zerolog.Logger,
) *Worker {
	return &Worker{
		country:      country,
		workerID:     workerID,
		appointments: appointments,
		store:        store,
		provider:     provider,
		bus:          bus,
		busName:      busName,
		logger:       logger.With().Str("component", "enrichment-worker").Str("country_iso", country).Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Handle implements messaging.Handler for a single delivered message.
func (w *Worker) Handle(ctx context.Context, msg messaging.Message) error {
	err := w.process(ctx, msg)
	if err != nil {
		metrics.EnrichmentFailures.WithLabelValues(w.country).Inc()
	}
	return err
}

func (w *Worker) process(ctx context.Context, msg messaging.Message) error {
	var event messaging.LifecycleEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		w.logger.Error().Err(err).Str("message_id", msg.ID).Msg("undecodable lifecycle event")
		return apperr.Internal("failed to decode lifecycle event", err)
	}

	// The subscription already filters by country; this re-check guards
	// against misrouted messages, which are dropped without error so the
	// transport does not retry them.
	if event.CountryISO != w.country {
		w.logger.Warn().
			Str("message_id", msg.ID).
			Str("event_country", event.CountryISO).
			Msg("message for a different country, dropping")
		metrics.EnrichmentMisroutes.WithLabelValues(w.country).Inc()
		return nil
	}

	// An event referencing an id the store does not have is non-recoverable
	// for this message; fail it so retry and dead-lettering engage.
	appt, err := w.appointments.GetByID(ctx, event.ID)
	if err != nil {
		w.logger.Error().Err(err).
			Str("message_id", msg.ID).
			Str("appointment_id", event.ID).
			Msg("appointment referenced by event not found")
		return err
	}

	enriched, err := w.provider.Enrich(ctx, appt)
	if err != nil {
		w.logger.Error().Err(err).Str("appointment_id", appt.ID).Msg("enrichment failed")
		return err
	}

	if err := w.store.Upsert(ctx, enriched); err != nil {
		w.logger.Error().Err(err).Str("appointment_id", appt.ID).Msg("enrichment store upsert failed")
		return err
	}

	if err := w.sendCompletion(ctx, appt.ID); err != nil {
		return err
	}

	metrics.EnrichmentsProcessed.WithLabelValues(w.country).Inc()
	w.logger.Info().
		Str("appointment_id", appt.ID).
		Str("message_id", msg.ID).
		Msg("appointment enriched")
	return nil
}

func (w *Worker) sendCompletion(ctx context.Context, appointmentID string) error {
	event := messaging.CompletionEvent{
		AppointmentID: appointmentID,
		CountryISO:    w.country,
		Status:        string(appointment.StatusCompleted),
		Timestamp:     w.now(),
		ProcessedBy:   w.workerID,
	}
	detail, err := json.Marshal(event)
	if err != nil {
		return apperr.Internal("failed to encode completion event", err)
	}

	results, err := w.bus.PutEvents(ctx, w.busName, []messaging.Entry{{
		Source:     messaging.SourceAppointments,
		DetailType: messaging.DetailTypeCompletion,
		Detail:     detail,
	}})
	if err != nil {
		return apperr.ExternalService("completion-bus", "failed to send completion event", err)
	}
	for _, res := range results {
		if res.Err != nil {
			w.logger.Error().Err(res.Err).
				Str("appointment_id", appointmentID).
				Str("entry_id", res.EntryID).
				Msg("completion event entry failed")
			return apperr.ExternalService("completion-bus", "completion event entry failed", res.Err)
		}
	}
	return nil
}
