package messaging

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/insuhealth/appointment-service/internal/apperr"
	"github.com/insuhealth/appointment-service/internal/appointment"
	"github.com/insuhealth/appointment-service/internal/metrics"
)

// LifecyclePublisher announces appointment transitions on the lifecycle
// topic, carrying countryISO and eventType as routable attributes so
// per-country subscriptions can filter without inspecting the payload.
type LifecyclePublisher struct {
	transport TopicPublisher
	topic     string
	logger    zerolog.Logger
}

var _ appointment.EventPublisher = (*LifecyclePublisher)(nil)

func NewLifecyclePublisher(transport TopicPublisher, topic string, logger zerolog.Logger) *LifecyclePublisher {
	return &LifecyclePublisher{
		transport: transport,
		topic:     topic,
		logger:    logger.With().Str("component", "lifecycle-publisher").Logger(),
	}
}

func (p *LifecyclePublisher) PublishAppointmentCreated(ctx context.Context, appt *appointment.Appointment) error {
	event := LifecycleEvent{
		ID:         appt.ID,
		InsuredID:  appt.InsuredID,
		ScheduleID: appt.ScheduleID,
		CountryISO: appt.CountryISO,
		Timestamp:  appt.CreatedAt,
		EventType:  EventTypeCreated,
	}
	attrs := map[string]string{
		AttrCountryISO: appt.CountryISO,
		AttrEventType:  string(EventTypeCreated),
	}
	return p.publish(ctx, event, attrs)
}

func (p *LifecyclePublisher) PublishAppointmentUpdated(ctx context.Context, appt *appointment.Appointment) error {
	event := LifecycleEvent{
		ID:         appt.ID,
		InsuredID:  appt.InsuredID,
		ScheduleID: appt.ScheduleID,
		CountryISO: appt.CountryISO,
		Status:     string(appt.Status),
		Timestamp:  appt.UpdatedAt,
		EventType:  EventTypeUpdated,
	}
	attrs := map[string]string{
		AttrCountryISO: appt.CountryISO,
		AttrEventType:  string(EventTypeUpdated),
		AttrStatus:     string(appt.Status),
	}
	return p.publish(ctx, event, attrs)
}

func (p *LifecyclePublisher) publish(ctx context.Context, event LifecycleEvent, attrs map[string]string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return apperr.Internal("failed to encode lifecycle event", err)
	}
	if err := p.transport.Publish(ctx, p.topic, payload, attrs); err != nil {
		p.logger.Error().Err(err).
			Str("appointment_id", event.ID).
			Str("event_type", string(event.EventType)).
			Msg("lifecycle event publish failed")
		return apperr.Internal("failed to publish appointment event", err)
	}
	metrics.EventsPublished.WithLabelValues(string(event.EventType)).Inc()
	p.logger.Info().
		Str("appointment_id", event.ID).
		Str("event_type", string(event.EventType)).
		Str("country_iso", event.CountryISO).
		Msg("lifecycle event published")
	return nil
}
