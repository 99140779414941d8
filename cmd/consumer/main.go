// The consumer tails offer lifecycle events and maintains the Redis
// discovery index the rider side queries: published offers land in a GEO
// set keyed by their source location with a metadata hash per offer;
// cancelled offers are removed again.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/techwithPranab/ride-offers/internal/models"
)

const (
	offersGeoKey = "offers_geo"
	metaPrefix   = "offer:meta:"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_offer_events_consumed_total",
		Help: "Total offer lifecycle events consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_offer_events_invalid_total",
		Help: "Total invalid events received",
	})
	redisUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_updates_total",
		Help: "Total successful redis index updates",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_errors_total",
		Help: "Total redis errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, redisUpdates, redisErrors)
}

func main() {
	// allow some flags for local runs
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	brokers := []string{}
	if brokersEnv != "" {
		for _, b := range strings.Split(brokersEnv, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	} else {
		brokers = []string{"localhost:9092"}
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "ride-offer-events"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "ride-offers-indexer"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rc := redis.NewClient(&redis.Options{Addr: redisAddr})
	radapter := &redisAdapter{c: rc}

	// start metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	log.Printf("consumer listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down consumer")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		// reset backoff on success
		backoff = time.Second

		msgsConsumed.Inc()

		var ev models.OfferEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.OfferID == "" {
			msgsInvalid.Inc()
			log.Printf("invalid event: %v", err)
			continue
		}

		if err := applyEventWithRetry(ctx, radapter, &ev, 3, 200*time.Millisecond); err != nil {
			redisErrors.Inc()
			log.Printf("redis update failed for offer=%s: %v", ev.OfferID, err)
			continue
		}
		redisUpdates.Inc()
	}
}

// OfferIndex defines the small subset of redis operations we need for tests
// and production.
type OfferIndex interface {
	GeoAdd(ctx context.Context, key string, loc *redis.GeoLocation) error
	HSet(ctx context.Context, key string, values map[string]interface{}) error
	ZRem(ctx context.Context, key string, member string) error
}

type redisAdapter struct{ c *redis.Client }

func (r *redisAdapter) GeoAdd(ctx context.Context, key string, loc *redis.GeoLocation) error {
	_, err := r.c.GeoAdd(ctx, key, loc).Result()
	return err
}

func (r *redisAdapter) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	_, err := r.c.HSet(ctx, key, values).Result()
	return err
}

func (r *redisAdapter) ZRem(ctx context.Context, key string, member string) error {
	// GEO sets are sorted sets underneath, so removal is a plain ZREM
	_, err := r.c.ZRem(ctx, key, member).Result()
	return err
}

// applyEventWithRetry updates the discovery index with retry/backoff.
func applyEventWithRetry(ctx context.Context, idx OfferIndex, ev *models.OfferEvent, attempts int, delay time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = applyEvent(ctx, idx, ev); lastErr == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return lastErr
}

func applyEvent(ctx context.Context, idx OfferIndex, ev *models.OfferEvent) error {
	switch ev.Type {
	case models.EventOfferPublished:
		loc := &redis.GeoLocation{Longitude: ev.Source.Longitude, Latitude: ev.Source.Latitude, Name: ev.OfferID}
		if err := idx.GeoAdd(ctx, offersGeoKey, loc); err != nil {
			return err
		}
		return idx.HSet(ctx, metaPrefix+ev.OfferID, map[string]interface{}{
			"driver_id":      ev.DriverID,
			"status":         ev.Status,
			"seats":          ev.Seats,
			"price_per_seat": ev.PricePerSeat,
			"updated":        ev.At.Format(time.RFC3339),
		})
	case models.EventOfferCancelled:
		if err := idx.ZRem(ctx, offersGeoKey, ev.OfferID); err != nil {
			return err
		}
		return idx.HSet(ctx, metaPrefix+ev.OfferID, map[string]interface{}{
			"status":  ev.Status,
			"updated": ev.At.Format(time.RFC3339),
		})
	default:
		// draft saves are not discoverable; nothing to index
		return nil
	}
}
