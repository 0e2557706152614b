// Package messaging defines the event payloads carried between pipeline
// stages and the transport contracts they travel over. The concrete managed
// queue/bus technologies stay behind the TopicPublisher and Bus interfaces;
// MemoryTransport is the in-process implementation used for local runs and
// tests.
package messaging

import (
	"encoding/json"
	"time"
)

// EventType discriminates lifecycle events.
type EventType string

const (
	EventTypeCreated EventType = "AppointmentCreated"
	EventTypeUpdated EventType = "AppointmentUpdated"
)

// Routable attribute keys attached to published lifecycle events. Subscribers
// filter on these at subscription time.
const (
	AttrCountryISO = "countryISO"
	AttrEventType  = "eventType"
	AttrStatus     = "status"
)

// LifecycleEvent announces that an appointment was created or updated.
type LifecycleEvent struct {
	ID         string    `json:"id"`
	InsuredID  string    `json:"insuredId"`
	ScheduleID int       `json:"scheduleId"`
	CountryISO string    `json:"countryISO"`
	Status     string    `json:"status,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	EventType  EventType `json:"eventType"`
}

// CompletionEvent signals that a country worker finished enriching an
// appointment. It rides the routed bus wrapped in a BusEnvelope.
type CompletionEvent struct {
	AppointmentID string    `json:"appointmentId"`
	CountryISO    string    `json:"countryISO"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	ProcessedBy   string    `json:"processedBy"`
}

// BusEnvelope is the wrapper the routed bus puts around every entry before
// delivering it to downstream consumers.
type BusEnvelope struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	DetailType string          `json:"detail-type"`
	Time       time.Time       `json:"time"`
	Detail     json.RawMessage `json:"detail"`
}

// Well-known routing names shared by publishers and consumers.
const (
	SourceAppointments        = "insuhealth.appointments"
	DetailTypeCompletion      = "Appointment Completion"
	TopicAppointmentLifecycle = "appointment-lifecycle"
	BusAppointmentEvents      = "appointment-events"
	QueueCompletion           = "appointment-completion-queue"
)

// CountryQueue returns the per-country worker queue name.
func CountryQueue(countryISO string) string {
	switch countryISO {
	case "PE":
		return "appointment-pe-queue"
	case "CL":
		return "appointment-cl-queue"
	}
	return "appointment-" + countryISO + "-queue"
}
