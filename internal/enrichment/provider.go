package enrichment

import (
	"context"
	"time"

	"github.com/insuhealth/appointment-service/internal/apperr"
	"github.com/insuhealth/appointment-service/internal/appointment"
)

// Provider produces the enriched record for an appointment. Injected into the
// worker so tests can substitute a deterministic stub.
type Provider interface {
	Enrich(ctx context.Context, appt *appointment.Appointment) (*Enriched, error)
}

// centerCatalog is the fixed simulated medical-center data per country. A
// real integration would query the country's medical-center systems instead.
type centerCatalog struct {
	doctorID      int
	doctorName    string
	specialtyID   int
	specialtyName string
	centerID      int
	centerName    string
	centerAddress string
	cost          float64
}

var catalogs = map[string]centerCatalog{
	"PE": {
		doctorID:      1001,
		doctorName:    "Dr. María García",
		specialtyID:   2001,
		specialtyName: "Cardiología",
		centerID:      3001,
		centerName:    "Centro Médico Lima Centro",
		centerAddress: "Av. Javier Prado Este 4200, Lima, Perú",
		cost:          150.00,
	},
	"CL": {
		doctorID:      2001,
		doctorName:    "Dr. Carlos Rodríguez",
		specialtyID:   3001,
		specialtyName: "Medicina Interna",
		centerID:      4001,
		centerName:    "Centro Médico Santiago Centro",
		centerAddress: "Av. Providencia 1234, Santiago, Chile",
		cost:          45000.00,
	},
}

// SimulatedProvider builds enriched records from the fixed per-country
// catalog. Delay imitates the latency of the external medical-center call;
// zero in tests.
type SimulatedProvider struct {
	country  string
	workerID string
	delay    time.Duration
	now      func() time.Time
}

var _ Provider = (*SimulatedProvider)(nil)

func NewSimulatedProvider(country, workerID string, delay time.Duration) *SimulatedProvider {
	return &SimulatedProvider{
		country:  country,
		workerID: workerID,
		delay:    delay,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *SimulatedProvider) Enrich(ctx context.Context, appt *appointment.Appointment) (*Enriched, error) {
	catalog, ok := catalogs[p.country]
	if !ok {
		return nil, apperr.Internal("no enrichment catalog for country "+p.country, nil)
	}
	country, ok := appointment.Countries[p.country]
	if !ok {
		return nil, apperr.Internal("unsupported country "+p.country, nil)
	}

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	now := p.now()
	return &Enriched{
		ID:         appt.ID,
		InsuredID:  appt.InsuredID,
		ScheduleID: appt.ScheduleID,
		CountryISO: appt.CountryISO,
		Status:     string(appointment.StatusCompleted),
		CreatedAt:  appt.CreatedAt,
		UpdatedAt:  now,

		DoctorID:        catalog.doctorID,
		DoctorName:      catalog.doctorName,
		SpecialtyID:     catalog.specialtyID,
		SpecialtyName:   catalog.specialtyName,
		MedicalCenterID: catalog.centerID,
		CenterName:      catalog.centerName,
		CenterAddress:   catalog.centerAddress,
		AppointmentCost: catalog.cost,
		Currency:        country.Currency,
		TaxRate:         country.TaxRate,

		ProcessedAt: now,
		ProcessedBy: p.workerID,
	}, nil
}
