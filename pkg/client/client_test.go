package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/techwithPranab/ride-offers/internal/models"
	"github.com/techwithPranab/ride-offers/internal/wire"
)

func completeDraft() models.RideOfferDraft {
	return models.RideOfferDraft{
		Source: &models.Location{
			Name: "Airport", Address: "Airport Rd",
			Coordinates: models.Coordinates{Latitude: 12.9, Longitude: 77.6},
		},
		Destination: &models.Location{
			Name: "Downtown", Address: "Main St",
			Coordinates: models.Coordinates{Latitude: 12.8, Longitude: 77.5},
		},
		Schedule: &models.Schedule{Departure: time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)},
		Pricing:  &models.Pricing{Seats: 4, PricePerSeat: 100},
	}
}

func TestPublishSendsWirePayload(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/ride-offers" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(wire.Offer{ID: "offer-1", Status: "published"})
	}))
	defer srv.Close()

	sub := NewSubmitter(New(srv.URL, "tok-123"))
	id, err := sub.Publish(context.Background(), completeDraft())
	if err != nil {
		t.Fatal(err)
	}
	if id != "offer-1" {
		t.Fatalf("id %q", id)
	}
	if sub.State() != StatePublished {
		t.Fatalf("state %s", sub.State())
	}
	if sub.Draft() != nil {
		t.Fatal("draft not consumed after success")
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("auth header %q", gotAuth)
	}

	var payload wire.OfferPayload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("payload not JSON: %v (%s)", err, gotBody)
	}
	if payload.Status != "published" || payload.Pricing.Seats != 4 || payload.Pricing.PricePerSeat != 100 {
		t.Fatalf("payload %+v", payload)
	}
	// wire order is [longitude, latitude]
	if payload.Source.Coordinates != (wire.Point{77.6, 12.9}) {
		t.Fatalf("coords %v", payload.Source.Coordinates)
	}
	if !strings.Contains(string(gotBody), `"coordinates":[77.6,12.9]`) {
		t.Fatalf("raw body lost lng,lat order: %s", gotBody)
	}
}

func TestUnauthorizedRetainsDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	sub := NewSubmitter(New(srv.URL, "expired"))
	_, err := sub.Publish(context.Background(), completeDraft())
	if !errors.Is(err, ErrReauthenticate) {
		t.Fatalf("expected ErrReauthenticate, got %v", err)
	}
	if !strings.Contains(err.Error(), "log in again") {
		t.Fatalf("message does not mention re-authentication: %v", err)
	}
	// the draft is preserved so the user can retry after logging in
	if sub.Draft() == nil || sub.Draft().Source.Name != "Airport" {
		t.Fatalf("draft cleared on failure: %+v", sub.Draft())
	}
	if sub.State() != StateIdle {
		t.Fatalf("failed submit must return to idle, got %s", sub.State())
	}
}

func TestBadRequestMapsToCheckDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"seats out of range"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	sub := NewSubmitter(New(srv.URL, "tok"))
	_, err := sub.Publish(context.Background(), completeDraft())
	if !errors.Is(err, ErrCheckDetails) {
		t.Fatalf("expected ErrCheckDetails, got %v", err)
	}
	if !strings.Contains(err.Error(), "seats out of range") {
		t.Fatalf("server detail lost: %v", err)
	}
}

func TestNetworkErrorMapsToCheckConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	sub := NewSubmitter(New(srv.URL, "tok"))
	_, err := sub.Publish(context.Background(), completeDraft())
	if !errors.Is(err, ErrCheckConnection) {
		t.Fatalf("expected ErrCheckConnection, got %v", err)
	}
	if sub.Draft() == nil {
		t.Fatal("draft cleared on network failure")
	}
}

func TestServerErrorIsGeneric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"db down"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.CreateOffer(context.Background(), wire.OfferPayload{})
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

func TestSaveDraftState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload wire.OfferPayload
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.Status != "draft" {
			t.Errorf("status %q", payload.Status)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(wire.Offer{ID: "offer-2", Status: "draft"})
	}))
	defer srv.Close()

	sub := NewSubmitter(New(srv.URL, "tok"))
	id, err := sub.SaveDraft(context.Background(), completeDraft())
	if err != nil {
		t.Fatal(err)
	}
	if id != "offer-2" || sub.State() != StateSaved {
		t.Fatalf("id=%q state=%s", id, sub.State())
	}
}

func TestIncompleteDraftFailsLocally(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	sub := NewSubmitter(New(srv.URL, "tok"))
	d := completeDraft()
	d.Pricing = nil
	if _, err := sub.Publish(context.Background(), d); err == nil {
		t.Fatal("incomplete draft accepted")
	}
	if calls != 0 {
		t.Fatal("incomplete draft reached the network")
	}
}

func TestListOffers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method %s", r.Method)
		}
		json.NewEncoder(w).Encode(map[string]any{"offers": []wire.Offer{{ID: "a"}, {ID: "b"}}})
	}))
	defer srv.Close()

	offers, err := New(srv.URL, "tok").ListOffers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(offers) != 2 || offers[0].ID != "a" {
		t.Fatalf("offers %+v", offers)
	}
}

func TestSearchPlaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/places/search" {
			t.Errorf("path %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "airport" || r.URL.Query().Get("lat") == "" {
			t.Errorf("query %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []models.Location{{Name: "Airport"}}})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	bias := &models.Coordinates{Latitude: 12.9, Longitude: 77.6}
	locs, err := c.Search(context.Background(), "airport", bias)
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 1 || locs[0].Name != "Airport" {
		t.Fatalf("locs %+v", locs)
	}

	// below the minimum query length nothing goes out
	locs, err = c.Search(context.Background(), "ai", bias)
	if err != nil || locs != nil {
		t.Fatalf("short query: locs=%v err=%v", locs, err)
	}
}

func TestCancelOffer(t *testing.T) {
	var gotPath, gotReason string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req wire.CancelRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotReason = req.Reason
		json.NewEncoder(w).Encode(map[string]string{"id": "o1", "status": "cancelled"})
	}))
	defer srv.Close()

	if err := New(srv.URL, "tok").CancelOffer(context.Background(), "o1", "plans changed"); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/v1/ride-offers/o1/cancel" || gotReason != "plans changed" {
		t.Fatalf("path=%q reason=%q", gotPath, gotReason)
	}
}
