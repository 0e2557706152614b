// Package enrichment implements the country workers: they consume created
// appointments, attach simulated medical-center detail, persist to the
// country's relational store, and emit completion signals.
package enrichment

import "time"

// Enriched is the relational-store record: the appointment plus the medical
// metadata produced during country processing. Keyed by appointment id;
// re-processing the same id overwrites mutable fields, never duplicates rows.
type Enriched struct {
	ID         string    `json:"id"`
	InsuredID  string    `json:"insuredId"`
	ScheduleID int       `json:"scheduleId"`
	CountryISO string    `json:"countryISO"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	DoctorID        int     `json:"doctorId"`
	DoctorName      string  `json:"doctorName"`
	SpecialtyID     int     `json:"specialtyId"`
	SpecialtyName   string  `json:"specialtyName"`
	MedicalCenterID int     `json:"medicalCenterId"`
	CenterName      string  `json:"centerName"`
	CenterAddress   string  `json:"centerAddress"`
	AppointmentCost float64 `json:"appointmentCost"`
	Currency        string  `json:"currency"`
	TaxRate         float64 `json:"taxRate"`

	ProcessedAt time.Time `json:"processedAt"`
	ProcessedBy string    `json:"processedBy"`
}
