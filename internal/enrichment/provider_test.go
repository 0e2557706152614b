package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/insuhealth/appointment-service/internal/appointment"
)

func pendingAppointment(country string) *appointment.Appointment {
	created := time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC)
	return &appointment.Appointment{
		ID:         "appt-1",
		InsuredID:  "00042",
		ScheduleID: 7,
		CountryISO: country,
		Status:     appointment.StatusPending,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestSimulatedProviderPE(t *testing.T) {
	p := NewSimulatedProvider("PE", "worker-pe", 0)
	enriched, err := p.Enrich(context.Background(), pendingAppointment("PE"))
	if err != nil {
		t.Fatal(err)
	}

	if enriched.Currency != "PEN" {
		t.Errorf("currency = %q, want PEN", enriched.Currency)
	}
	if enriched.TaxRate != 0.18 {
		t.Errorf("taxRate = %v, want 0.18", enriched.TaxRate)
	}
	if enriched.AppointmentCost != 150.00 {
		t.Errorf("cost = %v, want 150.00", enriched.AppointmentCost)
	}
	if enriched.DoctorID != 1001 || enriched.DoctorName != "Dr. María García" {
		t.Errorf("doctor = %d/%q", enriched.DoctorID, enriched.DoctorName)
	}
	if enriched.SpecialtyID != 2001 || enriched.SpecialtyName != "Cardiología" {
		t.Errorf("specialty = %d/%q", enriched.SpecialtyID, enriched.SpecialtyName)
	}
	if enriched.MedicalCenterID != 3001 {
		t.Errorf("center = %d, want 3001", enriched.MedicalCenterID)
	}
	if enriched.Status != string(appointment.StatusCompleted) {
		t.Errorf("status = %q, want completed", enriched.Status)
	}
	if enriched.ProcessedBy != "worker-pe" {
		t.Errorf("processedBy = %q", enriched.ProcessedBy)
	}
	if enriched.ID != "appt-1" || enriched.InsuredID != "00042" || enriched.ScheduleID != 7 {
		t.Errorf("appointment fields not carried over: %+v", enriched)
	}
}

func TestSimulatedProviderCL(t *testing.T) {
	p := NewSimulatedProvider("CL", "worker-cl", 0)
	enriched, err := p.Enrich(context.Background(), pendingAppointment("CL"))
	if err != nil {
		t.Fatal(err)
	}

	if enriched.Currency != "CLP" {
		t.Errorf("currency = %q, want CLP", enriched.Currency)
	}
	if enriched.TaxRate != 0.19 {
		t.Errorf("taxRate = %v, want 0.19", enriched.TaxRate)
	}
	if enriched.AppointmentCost != 45000.00 {
		t.Errorf("cost = %v, want 45000.00", enriched.AppointmentCost)
	}
	if enriched.DoctorID != 2001 || enriched.DoctorName != "Dr. Carlos Rodríguez" {
		t.Errorf("doctor = %d/%q", enriched.DoctorID, enriched.DoctorName)
	}
	if enriched.SpecialtyName != "Medicina Interna" || enriched.MedicalCenterID != 4001 {
		t.Errorf("specialty/center = %q/%d", enriched.SpecialtyName, enriched.MedicalCenterID)
	}
}

func TestSimulatedProviderUnknownCountry(t *testing.T) {
	p := NewSimulatedProvider("BR", "worker-br", 0)
	if _, err := p.Enrich(context.Background(), pendingAppointment("BR")); err == nil {
		t.Fatal("expected error for country with no catalog")
	}
}

func TestSimulatedProviderHonorsContextDuringDelay(t *testing.T) {
	p := NewSimulatedProvider("PE", "worker-pe", time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Enrich(ctx, pendingAppointment("PE")); err == nil {
		t.Fatal("expected context error")
	}
}
