package observability_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"overlook_hotel/internal/adapters/observability"
	"overlook_hotel/internal/domain"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveTransition(domain.StatusPending, domain.StatusConfirmed)
	observability.ObserveRejection(&domain.OverlapError{RoomID: 1})

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"overlook_http_requests_total",
		`overlook_reservation_transitions_total{from="PENDING",to="CONFIRMED"}`,
		`overlook_booking_rejections_total{reason="overlap"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestRejectionReason(t *testing.T) {
	cases := map[string]error{
		"capacity":           fmt.Errorf("wrapped: %w", &domain.CapacityError{}),
		"invalid_transition": &domain.InvalidTransitionError{},
		"not_found":          domain.NotFound(domain.EntityRoom, 1),
		"":                   fmt.Errorf("dial tcp: refused"),
	}
	for want, err := range cases {
		if got := observability.RejectionReason(err); got != want {
			t.Errorf("%v: got %q, want %q", err, got, want)
		}
	}
}
