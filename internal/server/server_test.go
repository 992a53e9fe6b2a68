package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vesselware/voyagelog/internal/app"
	"github.com/vesselware/voyagelog/internal/overlay"
	"github.com/vesselware/voyagelog/internal/trips"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	return New("127.0.0.1:0",
		filepath.Join(dir, "trips.json"),
		filepath.Join(dir, "annotations.json"),
		zap.NewNop().Sugar())
}

func TestHealth(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %q, want ok status", rec.Body.String())
	}
}

func TestTripsServedFromSnapshot(t *testing.T) {
	s := testServer(t)

	end := time.Date(2022, 5, 14, 12, 0, 0, 0, time.UTC)
	tripList := []*trips.Trip{{
		ID:            "trip-1",
		Start:         time.Date(2022, 5, 14, 9, 0, 0, 0, time.UTC),
		End:           &end,
		StartLocation: "Son",
		Events: []*trips.Event{
			{Time: time.Date(2022, 5, 14, 9, 0, 0, 0, time.UTC), State: trips.StateMotoring},
		},
	}}
	if err := app.WriteSnapshot(s.SnapshotPath, tripList); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trips", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []*trips.Trip
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "trip-1" || got[0].StartLocation != "Son" {
		t.Errorf("got %+v, want the snapshot trip back", got)
	}
}

func TestTripsMissingSnapshot(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trips", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when no snapshot exists", rec.Code)
	}
}

func TestAnnotationsRoundTrip(t *testing.T) {
	s := testServer(t)

	// No annotations yet: empty list, not an error
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/annotations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty annotations body = %q, want []", rec.Body.String())
	}

	payload := `[{"time":"2022-05-14T10:00:00Z","value":"Picked up guest mooring"}]`
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/annotations", strings.NewReader(payload)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d, want 204", rec.Code)
	}

	saved, err := overlay.LoadAnnotations(s.AnnotationsPath)
	if err != nil {
		t.Fatalf("LoadAnnotations: %v", err)
	}
	if len(saved) != 1 || saved[0].Value != "Picked up guest mooring" {
		t.Errorf("saved annotations = %+v", saved)
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/annotations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "guest mooring") {
		t.Errorf("GET body = %q, want stored annotation", rec.Body.String())
	}
}

func TestPutAnnotationsRejectsGarbage(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/annotations", strings.NewReader("not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
