package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jusunglee/bahn-go/internal/models"
	"github.com/jusunglee/bahn-go/internal/upstream"
	"github.com/jusunglee/bahn-go/pkg/bahn"
)

type fakeClient struct {
	stations   []models.StationRecord
	departures []models.DepartureView
	err        error
}

func (f *fakeClient) SearchStations(ctx context.Context, pattern string, limit int) ([]models.StationRecord, error) {
	return f.stations, f.err
}

func (f *fakeClient) ResolveStationEVA(ctx context.Context, pattern string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "8000207", nil
}

func (f *fakeClient) GetDepartures(ctx context.Context, stationID string, start, end time.Time, includeRecent bool) ([]models.DepartureView, error) {
	return f.departures, f.err
}

func newTestRouter(client bahn.Client) *mux.Router {
	r := mux.NewRouter()
	NewHandler(client).RegisterRoutes(r)
	return r
}

func TestHandleDepartures(t *testing.T) {
	planned := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	actual := planned.Add(6 * time.Minute)
	delay := 6
	client := &fakeClient{
		departures: []models.DepartureView{{
			StopID:           "s1",
			StationEVA:       "8000207",
			DeparturePlanned: &planned,
			DepartureActual:  &actual,
			DelayMinutes:     &delay,
			DestinationName:  "Frankfurt(Main)Hbf",
		}},
	}

	req := httptest.NewRequest("GET", "/departures/8000207?hours=2", nil)
	w := httptest.NewRecorder()
	newTestRouter(client).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response struct {
		Data []models.DepartureResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Data) != 1 {
		t.Fatalf("Expected 1 departure, got %d", len(response.Data))
	}
	dep := response.Data[0]
	if dep.DeparturePlanned == nil || *dep.DeparturePlanned != "2024-03-01T10:00:00" {
		t.Errorf("Unexpected planned time: %v", dep.DeparturePlanned)
	}
	if dep.DelayMinutes == nil || *dep.DelayMinutes != 6 {
		t.Errorf("Unexpected delay: %v", dep.DelayMinutes)
	}
}

func TestHandleDeparturesBadParams(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "negative hours", url: "/departures/8000207?hours=-1"},
		{name: "unparseable hours", url: "/departures/8000207?hours=soon"},
		{name: "bad start", url: "/departures/8000207?start=yesterday&end=2024-03-01T10:00:00"},
		{name: "missing end", url: "/departures/8000207?start=2024-03-01T10:00:00"},
	}

	client := &fakeClient{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			w := httptest.NewRecorder()
			newTestRouter(client).ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "lookup failure",
			err:        &bahn.StationLookupError{Pattern: "X"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "rate limited",
			err:        &upstream.RateLimitError{Path: "/fchg/8000207"},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "auth rejected",
			err:        &upstream.AuthError{Reason: "bad key"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "upstream broken",
			err:        &upstream.UpstreamError{Status: 503, Body: "maintenance"},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/departures/8000207", nil)
			w := httptest.NewRecorder()
			newTestRouter(&fakeClient{err: tt.err}).ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestHandleSearch(t *testing.T) {
	client := &fakeClient{
		stations: []models.StationRecord{{Name: "Köln Hbf", EVA: "8000207"}},
	}

	req := httptest.NewRequest("GET", "/stations/K%C3%B6ln", nil)
	w := httptest.NewRecorder()
	newTestRouter(client).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response struct {
		Data []models.StationRecord `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Data) != 1 || response.Data[0].EVA != "8000207" {
		t.Errorf("Unexpected response: %+v", response.Data)
	}
}

func TestHandleResolve(t *testing.T) {
	req := httptest.NewRequest("GET", "/resolve/K%C3%B6ln%20Hbf", nil)
	w := httptest.NewRecorder()
	newTestRouter(&fakeClient{}).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Data["eva"] != "8000207" {
		t.Errorf("Unexpected resolve response: %v", response.Data)
	}
}
