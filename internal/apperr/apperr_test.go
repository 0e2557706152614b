package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusPerKind(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("Appointment"), http.StatusNotFound},
		{Conflict("exists"), http.StatusConflict},
		{Internal("boom", nil), http.StatusInternalServerError},
		{ExternalService("completion-bus", "put failed", nil), http.StatusBadGateway},
	}
	for _, c := range cases {
		if got := c.err.HTTPStatus(); got != c.want {
			t.Errorf("%s: status = %d, want %d", c.err.Code, got, c.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("update status: %w", NotFound("Appointment"))
	if KindOf(err) != KindNotFound {
		t.Fatalf("KindOf(wrapped) = %v, want KindNotFound", KindOf(err))
	}
	if !IsKind(err, KindNotFound) {
		t.Fatal("IsKind(wrapped, KindNotFound) = false")
	}
}

func TestKindOfForeignErrorDefaultsToInternal(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("foreign errors must map to KindInternal")
	}
}

func TestMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("failed to save appointment", cause)
	if got := err.Error(); got != "failed to save appointment: connection refused" {
		t.Fatalf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable via errors.Is")
	}
}

func TestNotFoundMessage(t *testing.T) {
	if got := NotFound("Appointment").Error(); got != "Appointment not found" {
		t.Fatalf("Error() = %q", got)
	}
}
