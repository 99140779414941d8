package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/techwithPranab/ride-offers/internal/models"
)

// fakeIndex implements OfferIndex for tests
type fakeIndex struct {
	failGeo  int // number of times to fail GeoAdd before succeeding
	failH    int // number of times to fail HSet before succeeding
	geoCalls int
	hCalls   int
	zrems    []string
	meta     map[string]map[string]interface{}
}

func (f *fakeIndex) GeoAdd(ctx context.Context, key string, loc *redis.GeoLocation) error {
	f.geoCalls++
	if f.geoCalls <= f.failGeo {
		return errors.New("geo fail")
	}
	return nil
}

func (f *fakeIndex) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.hCalls++
	if f.hCalls <= f.failH {
		return errors.New("hset fail")
	}
	if f.meta == nil {
		f.meta = map[string]map[string]interface{}{}
	}
	f.meta[key] = values
	return nil
}

func (f *fakeIndex) ZRem(ctx context.Context, key string, member string) error {
	f.zrems = append(f.zrems, member)
	return nil
}

func publishedEvent() *models.OfferEvent {
	return &models.OfferEvent{
		Type: models.EventOfferPublished, OfferID: "o1", DriverID: "d1",
		Status: models.StatusPublished,
		Source: models.Coordinates{Latitude: 12.9, Longitude: 77.6},
		Seats:  4, PricePerSeat: 100, At: time.Now(),
	}
}

func TestApplyEventWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeIndex{failGeo: 1, failH: 1}
	ctx := context.Background()
	start := time.Now()
	if err := applyEventWithRetry(ctx, f, publishedEvent(), 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.geoCalls < 2 || f.hCalls < 2 {
		t.Fatalf("expected retries, got geo=%d h=%d", f.geoCalls, f.hCalls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if f.meta["offer:meta:o1"]["status"] != "published" {
		t.Fatalf("meta not written: %+v", f.meta)
	}
}

func TestApplyEventWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeIndex{failGeo: 5}
	ctx := context.Background()
	if err := applyEventWithRetry(ctx, f, publishedEvent(), 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}

func TestApplyEventCancelRemovesFromIndex(t *testing.T) {
	f := &fakeIndex{}
	ev := publishedEvent()
	ev.Type = models.EventOfferCancelled
	ev.Status = models.StatusCancelled
	if err := applyEvent(context.Background(), f, ev); err != nil {
		t.Fatal(err)
	}
	if len(f.zrems) != 1 || f.zrems[0] != "o1" {
		t.Fatalf("offer not removed: %v", f.zrems)
	}
	if f.geoCalls != 0 {
		t.Fatal("cancel must not re-add the offer")
	}
	if f.meta["offer:meta:o1"]["status"] != "cancelled" {
		t.Fatalf("meta not updated: %+v", f.meta)
	}
}

func TestApplyEventDraftIsNotIndexed(t *testing.T) {
	f := &fakeIndex{}
	ev := publishedEvent()
	ev.Type = models.EventOfferDraftSaved
	ev.Status = models.StatusDraft
	if err := applyEvent(context.Background(), f, ev); err != nil {
		t.Fatal(err)
	}
	if f.geoCalls != 0 || f.hCalls != 0 || len(f.zrems) != 0 {
		t.Fatal("draft save touched the index")
	}
}
