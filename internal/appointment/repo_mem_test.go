package appointment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/insuhealth/appointment-service/internal/apperr"
)

func seedRepo(t *testing.T, n int) *MemoryRepository {
	t.Helper()
	repo := NewMemoryRepository()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		country := "PE"
		if i%2 == 1 {
			country = "CL"
		}
		err := repo.PutIfAbsent(context.Background(), &Appointment{
			ID:         fmt.Sprintf("appt-%02d", i),
			InsuredID:  "00042",
			ScheduleID: i + 1,
			CountryISO: country,
			Status:     StatusPending,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return repo
}

func TestPutIfAbsentRejectsDuplicate(t *testing.T) {
	repo := NewMemoryRepository()
	appt := &Appointment{ID: "appt-1", Status: StatusPending}

	if err := repo.PutIfAbsent(context.Background(), appt); err != nil {
		t.Fatal(err)
	}
	err := repo.PutIfAbsent(context.Background(), appt)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
	}
}

func TestGetByIDMissing(t *testing.T) {
	repo := NewMemoryRepository()
	_, err := repo.GetByID(context.Background(), "missing")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("kind = %v, want not-found", apperr.KindOf(err))
	}
}

func TestGetByIDReturnsCopy(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PutIfAbsent(context.Background(), &Appointment{ID: "appt-1", Status: StatusPending})

	got, _ := repo.GetByID(context.Background(), "appt-1")
	got.Status = StatusFailed

	again, _ := repo.GetByID(context.Background(), "appt-1")
	if again.Status != StatusPending {
		t.Error("caller mutation leaked into the store")
	}
}

func TestUpdateStatusMissing(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.UpdateStatus(context.Background(), "missing", StatusCompleted, time.Now())
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("kind = %v, want not-found", apperr.KindOf(err))
	}
}

func TestListByInsuredIDOrdering(t *testing.T) {
	repo := seedRepo(t, 4)

	appts, err := repo.ListByInsuredID(context.Background(), "00042")
	if err != nil {
		t.Fatal(err)
	}
	if len(appts) != 4 {
		t.Fatalf("len = %d, want 4", len(appts))
	}
	// Seeded with ascending timestamps, so newest first means reverse order.
	for i, want := range []string{"appt-03", "appt-02", "appt-01", "appt-00"} {
		if appts[i].ID != want {
			t.Errorf("appts[%d].ID = %s, want %s", i, appts[i].ID, want)
		}
	}
}

func TestScanPaging(t *testing.T) {
	repo := seedRepo(t, 5)

	tests := []struct {
		name    string
		filter  ListFilter
		wantIDs []string
		hasMore bool
	}{
		{
			name:    "first page",
			filter:  ListFilter{Limit: 2},
			wantIDs: []string{"appt-04", "appt-03"},
			hasMore: true,
		},
		{
			name:    "middle page",
			filter:  ListFilter{Limit: 2, Offset: 2},
			wantIDs: []string{"appt-02", "appt-01"},
			hasMore: true,
		},
		{
			name:    "last page",
			filter:  ListFilter{Limit: 2, Offset: 4},
			wantIDs: []string{"appt-00"},
			hasMore: false,
		},
		{
			name:    "offset beyond end",
			filter:  ListFilter{Limit: 2, Offset: 10},
			wantIDs: nil,
			hasMore: false,
		},
		{
			name:    "country filter",
			filter:  ListFilter{CountryISO: "CL", Limit: 10},
			wantIDs: []string{"appt-03", "appt-01"},
			hasMore: false,
		},
		{
			name:    "exact boundary has no more",
			filter:  ListFilter{Limit: 5},
			wantIDs: []string{"appt-04", "appt-03", "appt-02", "appt-01", "appt-00"},
			hasMore: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appts, hasMore, err := repo.Scan(context.Background(), tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if hasMore != tt.hasMore {
				t.Errorf("hasMore = %v, want %v", hasMore, tt.hasMore)
			}
			if len(appts) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(appts), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if appts[i].ID != want {
					t.Errorf("appts[%d].ID = %s, want %s", i, appts[i].ID, want)
				}
			}
		})
	}
}

func TestScanStatusFilter(t *testing.T) {
	repo := seedRepo(t, 3)
	repo.UpdateStatus(context.Background(), "appt-01", StatusCompleted, time.Now())

	appts, _, err := repo.Scan(context.Background(), ListFilter{Status: "completed", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(appts) != 1 || appts[0].ID != "appt-01" {
		t.Errorf("completed scan = %+v, want just appt-01", appts)
	}
}
