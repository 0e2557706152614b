// Package appointment owns the appointment lifecycle: the record model, the
// key-value store contract, and the service that creates, queries, and
// transitions appointments while announcing lifecycle events.
package appointment

import "time"

// Status is the lifecycle state of an appointment. Transitions form a DAG:
// pending → {completed, failed}; terminal states are absorbing.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ValidStatuses holds the closed status set for validation.
var ValidStatuses = map[Status]bool{
	StatusPending:   true,
	StatusCompleted: true,
	StatusFailed:    true,
}

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Country holds the fixed per-country schedule applied during enrichment.
type Country struct {
	Code     string
	Name     string
	Currency string
	TaxRate  float64
}

// Countries is the closed set of supported countries.
var Countries = map[string]Country{
	"PE": {Code: "PE", Name: "Peru", Currency: "PEN", TaxRate: 0.18},
	"CL": {Code: "CL", Name: "Chile", Currency: "CLP", TaxRate: 0.19},
}

// SupportedCountry reports whether code is in the supported set.
func SupportedCountry(code string) bool {
	_, ok := Countries[code]
	return ok
}

// ExpiryDays is the default window after which a record becomes eligible for
// automatic removal by the store. A hint only; nothing enforces it here.
const ExpiryDays = 30

// Appointment is the durable record held by the key-value store.
type Appointment struct {
	ID         string    `json:"id"`
	InsuredID  string    `json:"insuredId"`
	ScheduleID int       `json:"scheduleId"`
	CountryISO string    `json:"countryISO"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	// ExpiresAt is a unix-seconds expiry hint for the store's TTL mechanism.
	ExpiresAt int64 `json:"expiresAt,omitempty"`
}

// CreateRequest is the POST /appointments payload.
type CreateRequest struct {
	InsuredID  string `json:"insuredId"`
	ScheduleID int    `json:"scheduleId"`
	CountryISO string `json:"countryISO"`
}

// CreateResponse acknowledges an accepted creation request.
type CreateResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Status  Status `json:"status"`
}

// ListFilter limits and pages a scan over all appointments.
type ListFilter struct {
	CountryISO string
	Status     string
	Limit      int
	Offset     int
}

// Pagination bounds for ListFilter.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is one page of appointments ordered newest-created-first.
type Page struct {
	Appointments []Appointment `json:"appointments"`
	Total        int           `json:"total"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
	HasMore      bool          `json:"hasMore"`
}
