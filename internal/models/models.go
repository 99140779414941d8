package models

import "time"

// Coordinates is a WGS84 point. This is the in-process representation; the
// wire format toward the offers API uses [longitude, latitude] arrays
// (see internal/wire).
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a resolved place. Immutable once selected; a re-selection
// replaces the whole value.
type Location struct {
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	PlaceID     string      `json:"placeId,omitempty"`
}

// Stop is an intermediate pickup point. Insertion order of the stops slice
// is the visiting order.
type Stop struct {
	ID       string   `json:"id"`
	Location Location `json:"location"`
}

// Recurrence models an optional weekly repeat of an offer.
// Days is meaningful only when IsRecurring is set.
type Recurrence struct {
	IsRecurring bool           `json:"isRecurring"`
	Days        []time.Weekday `json:"days,omitempty"`
	EndDate     *time.Time     `json:"endDate,omitempty"`
}

// Schedule is the departure plan for an offer. FlexibilityMinutes is
// meaningful only when IsFlexible is set.
type Schedule struct {
	Departure          time.Time  `json:"departure"`
	IsFlexible         bool       `json:"isFlexible"`
	FlexibilityMinutes int        `json:"flexibilityMinutes,omitempty"`
	Recurrence         Recurrence `json:"recurring"`
}

// Pricing holds the driver's seat count and per-seat price. MinimumPrice is
// the negotiation floor and binds only when AcceptsNegotiation is set.
type Pricing struct {
	Seats              int     `json:"seats"`
	PricePerSeat       float64 `json:"pricePerSeat"`
	AcceptsNegotiation bool    `json:"acceptsNegotiation"`
	MinimumPrice       float64 `json:"minimumPrice,omitempty"`
}

// RideOfferDraft accumulates the offer under construction. It is wizard
// scoped: threaded forward between steps, consumed exactly once on submit,
// and discarded afterwards. Nil pointers mean "not filled in yet".
type RideOfferDraft struct {
	Source              *Location `json:"source,omitempty"`
	Destination         *Location `json:"destination,omitempty"`
	Stops               []Stop    `json:"stops,omitempty"`
	Schedule            *Schedule `json:"schedule,omitempty"`
	Pricing             *Pricing  `json:"pricing,omitempty"`
	VehicleID           string    `json:"vehicleId,omitempty"`
	SpecialInstructions string    `json:"specialInstructions,omitempty"`
}

// Offer lifecycle statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// RideOffer is the persisted form of a draft. BookedSeats and TotalBookings
// are owned by the booking flow and only read here.
type RideOffer struct {
	ID                  string
	DriverID            string
	Status              string
	Source              Location
	Destination         Location
	Stops               []Stop
	Schedule            Schedule
	Pricing             Pricing
	VehicleID           string
	SpecialInstructions string
	CancelReason        string
	BookedSeats         int
	TotalBookings       int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Offer event types published to Kafka.
const (
	EventOfferPublished  = "offer_published"
	EventOfferDraftSaved = "offer_draft_saved"
	EventOfferCancelled  = "offer_cancelled"
)

// OfferEvent is the lifecycle record emitted on publish/draft/cancel.
// Source coordinates ride along so downstream consumers can index offers
// geographically without a read back.
type OfferEvent struct {
	Type         string      `json:"type"`
	OfferID      string      `json:"offer_id"`
	DriverID     string      `json:"driver_id"`
	Status       string      `json:"status"`
	Source       Coordinates `json:"source"`
	Seats        int         `json:"seats"`
	PricePerSeat float64     `json:"price_per_seat"`
	At           time.Time   `json:"at"`
}
