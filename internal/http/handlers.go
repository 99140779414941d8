package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/techwithPranab/ride-offers/internal/auth"
	"github.com/techwithPranab/ride-offers/internal/config"
	"github.com/techwithPranab/ride-offers/internal/events"
	"github.com/techwithPranab/ride-offers/internal/models"
	"github.com/techwithPranab/ride-offers/internal/notify"
	"github.com/techwithPranab/ride-offers/internal/observability"
	"github.com/techwithPranab/ride-offers/internal/places"
	"github.com/techwithPranab/ride-offers/internal/storage"
	"github.com/techwithPranab/ride-offers/internal/wire"
	"github.com/techwithPranab/ride-offers/internal/wizard"
)

// Server is the offers API: place resolution for the wizard, offer
// create/list/cancel, and live status pushes over websocket.
type Server struct {
	Resolver places.Resolver
	Store    storage.OfferStore
	Events   *events.Producer
	WSReg    *notify.WSRegistry
	Auth     *auth.Verifier

	logger *slog.Logger
	mux    *mux.Router
	now    func() time.Time
}

// NewServer wires the API from config. Redis, Kafka and Postgres are
// optional for local runs; the places endpoint and JWT secret are not.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	var resolver places.Resolver = &places.HTTPProvider{
		Endpoint: cfg.PlacesEndpoint,
		Client:   &http.Client{Timeout: cfg.PlacesTimeout},
	}
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		resolver = places.NewCachedResolver(resolver, rc, cfg.PlacesCacheTTL)
	}

	var store storage.OfferStore
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		store = ps
	} else {
		store = storage.NewMemoryStore()
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	s := &Server{
		Resolver: resolver,
		Store:    store,
		Events:   producer,
		WSReg:    notify.NewWSRegistry(),
		Auth:     verifier,
		logger:   logger,
		mux:      mux.NewRouter(),
		now:      time.Now,
	}
	s.routes()
	return s, nil
}

// NewTestServer builds a server over explicit dependencies. Test use.
func NewTestServer(resolver places.Resolver, store storage.OfferStore, verifier *auth.Verifier, logger *slog.Logger) *Server {
	s := &Server{
		Resolver: resolver,
		Store:    store,
		WSReg:    notify.NewWSRegistry(),
		Auth:     verifier,
		logger:   logger,
		mux:      mux.NewRouter(),
		now:      time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.registerMiddleware()

	s.mux.HandleFunc("/api/v1/places/search", s.handlePlaceSearch).Methods("GET")
	s.mux.HandleFunc("/api/v1/places/reverse", s.handleReverseGeocode).Methods("GET")

	offers := s.mux.PathPrefix("/api/v1/ride-offers").Subrouter()
	offers.Use(s.Auth.Middleware)
	offers.HandleFunc("", s.handleCreateOffer).Methods("POST")
	offers.HandleFunc("", s.handleListOffers).Methods("GET")
	offers.HandleFunc("/{id}/cancel", s.handleCancelOffer).Methods("PATCH")

	s.mux.HandleFunc("/ws/{driver_id}", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handlePlaceSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	var bias *models.Coordinates
	if latS, lngS := r.URL.Query().Get("lat"), r.URL.Query().Get("lng"); latS != "" && lngS != "" {
		lat, errLat := strconv.ParseFloat(latS, 64)
		lng, errLng := strconv.ParseFloat(lngS, 64)
		if errLat != nil || errLng != nil {
			writeError(w, http.StatusBadRequest, "lat and lng must be numbers")
			return
		}
		bias = &models.Coordinates{Latitude: lat, Longitude: lng}
	}

	results, err := s.Resolver.Search(r.Context(), q, bias)
	if err != nil {
		s.logger.Error("place search failed", "query", q, "error", err)
		writeError(w, http.StatusBadGateway, "place search unavailable")
		return
	}
	if results == nil {
		results = []models.Location{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, "lat and lng must be numbers")
		return
	}
	loc, err := s.Resolver.ReverseGeocode(r.Context(), lat, lng)
	if err != nil {
		s.logger.Error("reverse geocode failed", "error", err)
		writeError(w, http.StatusBadGateway, "reverse geocode unavailable")
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var payload wire.OfferPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	if payload.Status != models.StatusPublished && payload.Status != models.StatusDraft {
		writeError(w, http.StatusBadRequest, "status must be published or draft")
		return
	}
	draft, err := payload.Draft()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := wizard.ValidateForSubmit(draft); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if draft.Schedule == nil {
		writeError(w, http.StatusBadRequest, "schedule is required")
		return
	}

	now := s.now()
	offer := &models.RideOffer{
		ID:                  uuid.NewString(),
		DriverID:            auth.DriverID(r.Context()),
		Status:              payload.Status,
		Source:              *draft.Source,
		Destination:         *draft.Destination,
		Stops:               draft.Stops,
		Schedule:            *draft.Schedule,
		Pricing:             *draft.Pricing,
		VehicleID:           draft.VehicleID,
		SpecialInstructions: draft.SpecialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.Store.SaveOffer(r.Context(), offer); err != nil {
		s.logger.Error("save offer failed", "offer_id", offer.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save offer")
		return
	}

	observability.OffersSubmitted.WithLabelValues(offer.Status).Inc()
	s.publishEvent(eventType(offer.Status), offer)
	if offer.Status == models.StatusPublished && s.WSReg != nil {
		_ = s.WSReg.Notify(offer.DriverID, notify.OfferUpdate{OfferID: offer.ID, Status: offer.Status})
	}
	writeJSON(w, http.StatusCreated, wire.EncodeOffer(offer))
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.Store.ListOffersByDriver(r.Context(), auth.DriverID(r.Context()))
	if err != nil {
		s.logger.Error("list offers failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list offers")
		return
	}
	out := make([]wire.Offer, 0, len(offers))
	for _, o := range offers {
		out = append(out, wire.EncodeOffer(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"offers": out})
}

func (s *Server) handleCancelOffer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req wire.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}

	offer, err := s.Store.GetOffer(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "offer not found")
			return
		}
		s.logger.Error("load offer failed", "offer_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load offer")
		return
	}
	// cancelling someone else's offer looks the same as a missing one
	if offer.DriverID != auth.DriverID(r.Context()) {
		writeError(w, http.StatusNotFound, "offer not found")
		return
	}

	if err := s.Store.CancelOffer(r.Context(), id, req.Reason); err != nil {
		if errors.Is(err, storage.ErrNotCancelable) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("cancel offer failed", "offer_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not cancel offer")
		return
	}

	offer.Status = models.StatusCancelled
	offer.CancelReason = req.Reason
	observability.OffersCancelled.Inc()
	s.publishEvent(models.EventOfferCancelled, offer)
	if s.WSReg != nil {
		_ = s.WSReg.Notify(offer.DriverID, notify.OfferUpdate{OfferID: id, Status: models.StatusCancelled, Reason: req.Reason})
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": models.StatusCancelled})
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["driver_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an error status.
		s.logger.Error("websocket upgrade failed", "driver_id", id, "error", err)
		return
	}
	s.WSReg.Add(id, conn)
}

// publishEvent emits a lifecycle record; failures are logged, never
// propagated to the request.
func (s *Server) publishEvent(typ string, o *models.RideOffer) {
	if s.Events == nil {
		return
	}
	ev := models.OfferEvent{
		Type:         typ,
		OfferID:      o.ID,
		DriverID:     o.DriverID,
		Status:       o.Status,
		Source:       o.Source.Coordinates,
		Seats:        o.Pricing.Seats,
		PricePerSeat: o.Pricing.PricePerSeat,
		At:           s.now(),
	}
	if err := s.Events.PublishOfferEvent(ev); err != nil {
		s.logger.Error("publish offer event failed", "offer_id", o.ID, "type", typ, "error", err)
	}
}

func eventType(status string) string {
	if status == models.StatusPublished {
		return models.EventOfferPublished
	}
	return models.EventOfferDraftSaved
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
