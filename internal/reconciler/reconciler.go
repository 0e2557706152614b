// Package reconciler finalizes appointments: it consumes completion signals
// from the routed bus and transitions the key-value store record to its
// terminal state.
package reconciler

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

// Reconciler applies completion events directly to the appointment store.
// This is a trusted internal consumer, so it bypasses the lifecycle service's
// public validation path. Errors propagate per message to the transport's
// retry mechanism.
type Reconciler struct {
	appointments appointment.Repository
	logger       zerolog.Logger
	now          func() time.Time
}

func New(appointments appointment.Repository, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		appointments: appointments,
		logger:       logger.With().Str("component", "completion-reconciler").Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Handle implements messaging.Handler for one enveloped completion message.
func (r *Reconciler) Handle(ctx context.Context, msg messaging.Message) error {
	var envelope messaging.BusEnvelope
	if err := json.Unmarshal(msg.Body, &envelope); err != nil {
		r.logger.Error().Err(err).Str("message_id", msg.ID).Msg("undecodable bus envelope")
		metrics.ReconcileFailures.Inc()
		return apperr.Internal("failed to decode bus envelope", err)
	}

	var event messaging.CompletionEvent
	if err := json.Unmarshal(envelope.Detail, &event); err != nil {
		r.logger.Error().Err(err).Str("message_id", msg.ID).Msg("undecodable completion event")
		metrics.ReconcileFailures.Inc()
		return apperr.Internal("failed to decode completion event", err)
	}

	if err := r.appointments.UpdateStatus(ctx, event.AppointmentID, appointment.StatusCompleted, r.now()); err != nil {
		r.logger.Error().Err(err).
			Str("appointment_id", event.AppointmentID).
			Str("country_iso", event.CountryISO).
			Msg("failed to finalize appointment")
		metrics.ReconcileFailures.Inc()
		return err
	}

	metrics.CompletionsReconciled.Inc()
	r.logger.Info().
		Str("appointment_id", event.AppointmentID).
		Str("country_iso", event.CountryISO).
		Str("processed_by", event.ProcessedBy).
		Msg("appointment completed")
	return nil
}
