package reconciler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/insuhealth/appointment-service/internal/apperr"
	"github.com/insuhealth/appointment-service/internal/appointment"
	"github.com/insuhealth/appointment-service/internal/messaging"
)

func completionMessage(t *testing.T, appointmentID string) messaging.Message {
	t.Helper()
	detail, err := json.Marshal(messaging.CompletionEvent{
		AppointmentID: appointmentID,
		CountryISO:    "PE",
		Status:        string(appointment.StatusCompleted),
		Timestamp:     time.Now().UTC(),
		ProcessedBy:   "worker-pe",
	})
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(messaging.BusEnvelope{
		ID:         "evt-1",
		Source:     messaging.SourceAppointments,
		DetailType: messaging.DetailTypeCompletion,
		Time:       time.Now().UTC(),
		Detail:     detail,
	})
	if err != nil {
		t.Fatal(err)
	}
	return messaging.Message{ID: "msg-1", Body: body}
}

func TestReconcilerFinalizesAppointment(t *testing.T) {
	repo := appointment.NewMemoryRepository()
	repo.PutIfAbsent(context.Background(), &appointment.Appointment{
		ID:        "appt-1",
		InsuredID: "00042",
		Status:    appointment.StatusPending,
		CreatedAt: time.Now().UTC(),
	})
	r := New(repo, zerolog.Nop())

	if err := r.Handle(context.Background(), completionMessage(t, "appt-1")); err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetByID(context.Background(), "appt-1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != appointment.StatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
}

func TestReconcilerRedeliveryIsIdempotent(t *testing.T) {
	repo := appointment.NewMemoryRepository()
	repo.PutIfAbsent(context.Background(), &appointment.Appointment{
		ID:        "appt-1",
		Status:    appointment.StatusPending,
		CreatedAt: time.Now().UTC(),
	})
	r := New(repo, zerolog.Nop())

	msg := completionMessage(t, "appt-1")
	for i := 0; i < 3; i++ {
		if err := r.Handle(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
	}
	stored, _ := repo.GetByID(context.Background(), "appt-1")
	if stored.Status != appointment.StatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
}

func TestReconcilerUnknownAppointmentFails(t *testing.T) {
	r := New(appointment.NewMemoryRepository(), zerolog.Nop())
	err := r.Handle(context.Background(), completionMessage(t, "missing"))
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("kind = %v, want not-found", apperr.KindOf(err))
	}
}

func TestReconcilerUndecodableEnvelopeFails(t *testing.T) {
	r := New(appointment.NewMemoryRepository(), zerolog.Nop())
	err := r.Handle(context.Background(), messaging.Message{ID: "msg-1", Body: []byte("not json")})
	if !apperr.IsKind(err, apperr.KindInternal) {
		t.Fatalf("kind = %v, want internal", apperr.KindOf(err))
	}
}

func TestReconcilerUndecodableDetailFails(t *testing.T) {
	r := New(appointment.NewMemoryRepository(), zerolog.Nop())
	body, _ := json.Marshal(messaging.BusEnvelope{
		ID:         "evt-1",
		Source:     messaging.SourceAppointments,
		DetailType: messaging.DetailTypeCompletion,
		Detail:     json.RawMessage(`"a string, not an object"`),
	})
	err := r.Handle(context.Background(), messaging.Message{ID: "msg-1", Body: body})
	if !apperr.IsKind(err, apperr.KindInternal) {
		t.Fatalf("kind = %v, want internal", apperr.KindOf(err))
	}
}
