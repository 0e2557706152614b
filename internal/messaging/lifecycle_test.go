package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/insuhealth/appointment-service/internal/apperr"
	"github.com/insuhealth/appointment-service/internal/appointment"
	"github.com/insuhealth/appointment-service/internal/metrics"
)

type capturePublisher struct {
	topic   string
	payload []byte
	attrs   map[string]string
	err     error
}

func (c *capturePublisher) Publish(_ context.Context, topic string, payload []byte, attrs map[string]string) error {
	if c.err != nil {
		return c.err
	}
	c.topic = topic
	c.payload = payload
	c.attrs = attrs
	return nil
}

func testAppointment() *appointment.Appointment {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	return &appointment.Appointment{
		ID:         "appt-1",
		InsuredID:  "00042",
		ScheduleID: 7,
		CountryISO: "PE",
		Status:     appointment.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestPublishAppointmentCreated(t *testing.T) {
	capture := &capturePublisher{}
	pub := NewLifecyclePublisher(capture, TopicAppointmentLifecycle, zerolog.Nop())

	if err := pub.PublishAppointmentCreated(context.Background(), testAppointment()); err != nil {
		t.Fatal(err)
	}
	if capture.topic != TopicAppointmentLifecycle {
		t.Errorf("topic = %q", capture.topic)
	}
	if capture.attrs[AttrCountryISO] != "PE" || capture.attrs[AttrEventType] != string(EventTypeCreated) {
		t.Errorf("attrs = %v", capture.attrs)
	}

	var event LifecycleEvent
	if err := json.Unmarshal(capture.payload, &event); err != nil {
		t.Fatal(err)
	}
	if event.ID != "appt-1" || event.InsuredID != "00042" || event.ScheduleID != 7 {
		t.Errorf("event = %+v", event)
	}
	if event.EventType != EventTypeCreated {
		t.Errorf("eventType = %q", event.EventType)
	}
	if event.Status != "" {
		t.Errorf("created event carries status %q, want empty", event.Status)
	}
}

func TestPublishAppointmentUpdatedCarriesStatus(t *testing.T) {
	capture := &capturePublisher{}
	pub := NewLifecyclePublisher(capture, TopicAppointmentLifecycle, zerolog.Nop())

	appt := testAppointment()
	appt.Status = appointment.StatusCompleted
	if err := pub.PublishAppointmentUpdated(context.Background(), appt); err != nil {
		t.Fatal(err)
	}
	if capture.attrs[AttrStatus] != "completed" {
		t.Errorf("status attribute = %q", capture.attrs[AttrStatus])
	}
	var event LifecycleEvent
	if err := json.Unmarshal(capture.payload, &event); err != nil {
		t.Fatal(err)
	}
	if event.Status != "completed" || event.EventType != EventTypeUpdated {
		t.Errorf("event = %+v", event)
	}
}

func TestPublishIncrementsCounter(t *testing.T) {
	capture := &capturePublisher{}
	pub := NewLifecyclePublisher(capture, TopicAppointmentLifecycle, zerolog.Nop())

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(string(EventTypeCreated)))
	if err := pub.PublishAppointmentCreated(context.Background(), testAppointment()); err != nil {
		t.Fatal(err)
	}
	after := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(string(EventTypeCreated)))
	if after != before+1 {
		t.Errorf("published counter delta = %v, want 1", after-before)
	}
}

func TestPublishFailureLeavesCounterUntouched(t *testing.T) {
	capture := &capturePublisher{err: errors.New("broker unavailable")}
	pub := NewLifecyclePublisher(capture, TopicAppointmentLifecycle, zerolog.Nop())

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(string(EventTypeCreated)))
	if err := pub.PublishAppointmentCreated(context.Background(), testAppointment()); err == nil {
		t.Fatal("expected publish error")
	}
	after := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(string(EventTypeCreated)))
	if after != before {
		t.Errorf("published counter moved on failure: delta = %v", after-before)
	}
}

func TestPublishTransportFailure(t *testing.T) {
	capture := &capturePublisher{err: errors.New("broker unavailable")}
	pub := NewLifecyclePublisher(capture, TopicAppointmentLifecycle, zerolog.Nop())

	err := pub.PublishAppointmentCreated(context.Background(), testAppointment())
	if !apperr.IsKind(err, apperr.KindInternal) {
		t.Fatalf("kind = %v, want internal", apperr.KindOf(err))
	}
}
