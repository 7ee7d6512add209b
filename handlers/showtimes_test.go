package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"marquee/models"
	"marquee/services/letterboxd"
)

type stubService struct {
	envelope models.ShowtimesEnvelope
	err      error
	gotPath  string
}

func (s *stubService) Get(_ context.Context, listPath string) (models.ShowtimesEnvelope, error) {
	s.gotPath = listPath
	if s.err != nil {
		return models.ShowtimesEnvelope{}, s.err
	}
	return s.envelope, nil
}

func showtimesRouter(svc *stubService) *mux.Router {
	h := NewShowtimesHandler(svc)
	r := mux.NewRouter()
	r.HandleFunc("/api/showtimes/{listPath:.+}", h.Get).Methods("GET")
	r.HandleFunc("/api/showtimes/{listPath:.+}", h.Options).Methods("OPTIONS")
	return r
}

func TestGetShowtimes(t *testing.T) {
	start := time.Date(2026, 9, 1, 18, 30, 0, 0, time.UTC)
	svc := &stubService{envelope: models.NewShowtimesEnvelope([]models.Show{{
		ID:        "kinepolis:42",
		StartDate: start,
		EndDate:   start.Add(2 * time.Hour),
		Film:      models.Film{Title: "Film A"},
		Chain:     models.ChainKinepolis,
	}})}

	req := httptest.NewRequest("GET", "/api/showtimes/105424/watchlist", nil)
	rec := httptest.NewRecorder()
	showtimesRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if svc.gotPath != "105424/watchlist" {
		t.Errorf("expected multi-segment list path to reach the service, got %q", svc.gotPath)
	}

	var decoded models.ShowtimesEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	shows := decoded.Data.Showtimes.Data
	if len(shows) != 1 || shows[0].ID != "kinepolis:42" {
		t.Errorf("unexpected payload: %+v", shows)
	}
}

func TestGetShowtimesEmptyResult(t *testing.T) {
	svc := &stubService{envelope: models.NewShowtimesEnvelope(nil)}

	req := httptest.NewRequest("GET", "/api/showtimes/105424/watchlist", nil)
	rec := httptest.NewRecorder()
	showtimesRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// The UI expects an array either way, never null.
	var decoded struct {
		Data struct {
			Showtimes struct {
				Data json.RawMessage `json:"data"`
			} `json:"showtimes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(decoded.Data.Showtimes.Data) != "[]" {
		t.Errorf("expected empty array, got %s", decoded.Data.Showtimes.Data)
	}
}

func TestGetShowtimesListNotFound(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("fetch list: %w", letterboxd.ErrListNotFound)}

	req := httptest.NewRequest("GET", "/api/showtimes/nobody/watchlist", nil)
	rec := httptest.NewRecorder()
	showtimesRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "list not found - check the username or list URL" {
		t.Errorf("unexpected error message: %q", body["error"])
	}
}

func TestGetShowtimesUpstreamError(t *testing.T) {
	svc := &stubService{err: errors.New("letterboxd request: connection refused")}

	req := httptest.NewRequest("GET", "/api/showtimes/105424/watchlist", nil)
	rec := httptest.NewRecorder()
	showtimesRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestGetShowtimesEmptyListPath(t *testing.T) {
	svc := &stubService{}
	h := NewShowtimesHandler(svc)

	// A path of only slashes trims to nothing.
	req := httptest.NewRequest("GET", "/api/showtimes/%2F", nil)
	req = mux.SetURLVars(req, map[string]string{"listPath": "/"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOptionsShowtimes(t *testing.T) {
	svc := &stubService{}
	req := httptest.NewRequest("OPTIONS", "/api/showtimes/105424/watchlist", nil)
	rec := httptest.NewRecorder()
	showtimesRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotPath != "" {
		t.Error("OPTIONS must not hit the service")
	}
}
