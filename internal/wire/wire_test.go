package wire

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/techwithPranab/ride-offers/internal/models"
)

func sampleDraft() models.RideOfferDraft {
	end := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	return models.RideOfferDraft{
		Source: &models.Location{
			Name: "Airport", Address: "Airport Rd",
			Coordinates: models.Coordinates{Latitude: 12.9, Longitude: 77.6},
			PlaceID:     "pl_airport",
		},
		Destination: &models.Location{
			Name: "Downtown", Address: "Main St",
			Coordinates: models.Coordinates{Latitude: 12.8, Longitude: 77.5},
		},
		Stops: []models.Stop{
			{ID: "s1", Location: models.Location{Name: "Mall", Coordinates: models.Coordinates{Latitude: 12.85, Longitude: 77.55}}},
			{ID: "s2", Location: models.Location{Name: "Station", Coordinates: models.Coordinates{Latitude: 12.86, Longitude: 77.56}}},
		},
		Schedule: &models.Schedule{
			Departure:          time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC),
			IsFlexible:         true,
			FlexibilityMinutes: 15,
			Recurrence:         models.Recurrence{IsRecurring: true, Days: []time.Weekday{time.Monday, time.Friday}, EndDate: &end},
		},
		Pricing:             &models.Pricing{Seats: 4, PricePerSeat: 100, AcceptsNegotiation: true, MinimumPrice: 80},
		VehicleID:           "veh-1",
		SpecialInstructions: "no smoking",
	}
}

func TestCoordinateOrderIsLngLat(t *testing.T) {
	p, err := EncodeDraft(sampleDraft(), models.StatusPublished)
	if err != nil {
		t.Fatal(err)
	}
	if p.Source.Coordinates != (Point{77.6, 12.9}) {
		t.Fatalf("source coords %v, want [77.6 12.9]", p.Source.Coordinates)
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"coordinates":[77.6,12.9]`) {
		t.Fatalf("wire body lost lng,lat order: %s", b)
	}
}

func TestEncodeDraftScenario(t *testing.T) {
	p, err := EncodeDraft(sampleDraft(), models.StatusPublished)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != "published" {
		t.Fatalf("status %q", p.Status)
	}
	if p.Pricing.Seats != 4 || p.Pricing.PricePerSeat != 100 {
		t.Fatalf("pricing %+v", p.Pricing)
	}
	if p.Schedule.Departure != "2026-09-01T08:30:00Z" {
		t.Fatalf("departure %q", p.Schedule.Departure)
	}
	if p.Schedule.Recurring == nil || len(p.Schedule.Recurring.Days) != 2 || p.Schedule.Recurring.Days[0] != "monday" {
		t.Fatalf("recurring %+v", p.Schedule.Recurring)
	}
}

func TestEncodeDraftIncomplete(t *testing.T) {
	d := sampleDraft()
	d.Pricing = nil
	if _, err := EncodeDraft(d, models.StatusDraft); !errors.Is(err, ErrIncompleteDraft) {
		t.Fatalf("expected ErrIncompleteDraft, got %v", err)
	}
}

func TestMinimumPriceOmittedWithoutNegotiation(t *testing.T) {
	d := sampleDraft()
	d.Pricing = &models.Pricing{Seats: 2, PricePerSeat: 50, AcceptsNegotiation: false, MinimumPrice: 40}
	p, err := EncodeDraft(d, models.StatusPublished)
	if err != nil {
		t.Fatal(err)
	}
	if p.Pricing.MinimumPrice != nil {
		t.Fatalf("stale floor leaked: %v", *p.Pricing.MinimumPrice)
	}
	b, _ := json.Marshal(p)
	if strings.Contains(string(b), "minimumPrice") {
		t.Fatalf("minimumPrice present in payload: %s", b)
	}
}

func TestRoundTrip(t *testing.T) {
	orig := sampleDraft()
	p, err := EncodeDraft(orig, models.StatusPublished)
	if err != nil {
		t.Fatal(err)
	}
	// through real JSON, as the backend would see it
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back OfferPayload
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	got, err := back.Draft()
	if err != nil {
		t.Fatal(err)
	}

	if *got.Source != *orig.Source || *got.Destination != *orig.Destination {
		t.Fatalf("endpoints changed: %+v / %+v", got.Source, got.Destination)
	}
	if len(got.Stops) != 2 || got.Stops[0] != orig.Stops[0] || got.Stops[1] != orig.Stops[1] {
		t.Fatalf("stops changed: %+v", got.Stops)
	}
	if !got.Schedule.Departure.Equal(orig.Schedule.Departure) ||
		got.Schedule.FlexibilityMinutes != orig.Schedule.FlexibilityMinutes {
		t.Fatalf("schedule changed: %+v", got.Schedule)
	}
	if len(got.Schedule.Recurrence.Days) != 2 || got.Schedule.Recurrence.Days[1] != time.Friday {
		t.Fatalf("recurrence days changed: %v", got.Schedule.Recurrence.Days)
	}
	if !got.Schedule.Recurrence.EndDate.Equal(*orig.Schedule.Recurrence.EndDate) {
		t.Fatalf("end date changed: %v", got.Schedule.Recurrence.EndDate)
	}
	if *got.Pricing != *orig.Pricing {
		t.Fatalf("pricing changed: %+v", got.Pricing)
	}
	if got.VehicleID != "veh-1" || got.SpecialInstructions != "no smoking" {
		t.Fatalf("details changed: %q %q", got.VehicleID, got.SpecialInstructions)
	}
}

func TestDecodeRejectsUnknownDay(t *testing.T) {
	p, _ := EncodeDraft(sampleDraft(), models.StatusPublished)
	p.Schedule.Recurring.Days = []string{"monday", "someday"}
	if _, err := p.Draft(); !errors.Is(err, ErrBadDay) {
		t.Fatalf("expected ErrBadDay, got %v", err)
	}
}
