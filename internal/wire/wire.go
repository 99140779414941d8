// Package wire holds the JSON shapes of the ride-offers API. Coordinates
// travel as [longitude, latitude] arrays; the ordering is load-bearing for
// compatibility with the existing backend and must not be normalized.
package wire

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/techwithPranab/ride-offers/internal/models"
)

// Point is a [longitude, latitude] pair as it appears on the wire.
type Point [2]float64

func pointFrom(c models.Coordinates) Point {
	return Point{c.Longitude, c.Latitude}
}

func (p Point) coordinates() models.Coordinates {
	return models.Coordinates{Longitude: p[0], Latitude: p[1]}
}

// Location mirrors models.Location with wire coordinate ordering.
type Location struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Coordinates Point  `json:"coordinates"`
	PlaceID     string `json:"placeId,omitempty"`
}

func (l Location) isZero() bool {
	return l == Location{}
}

// Stop carries a stop and its position-preserving id.
type Stop struct {
	ID       string   `json:"id"`
	Location Location `json:"location"`
}

// Recurring is present only when the offer repeats weekly.
type Recurring struct {
	Days    []string `json:"days"`
	EndDate string   `json:"endDate,omitempty"`
}

// Schedule uses ISO-8601 strings for instants.
type Schedule struct {
	Departure          string     `json:"departureTime"`
	IsFlexible         bool       `json:"isFlexible"`
	FlexibilityMinutes int        `json:"flexibilityMinutes,omitempty"`
	Recurring          *Recurring `json:"recurring,omitempty"`
}

// Pricing omits the negotiation floor entirely when negotiation is off, so
// a stale floor can never arrive as a binding constraint.
type Pricing struct {
	Seats              int      `json:"seats"`
	PricePerSeat       float64  `json:"pricePerSeat"`
	AcceptsNegotiation bool     `json:"acceptsNegotiation"`
	MinimumPrice       *float64 `json:"minimumPrice,omitempty"`
}

// OfferPayload is the body of POST /ride-offers.
type OfferPayload struct {
	Source              Location `json:"source"`
	Destination         Location `json:"destination"`
	Stops               []Stop   `json:"stops"`
	Schedule            Schedule `json:"schedule"`
	Pricing             Pricing  `json:"pricing"`
	VehicleID           string   `json:"vehicleId,omitempty"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`
	Status              string   `json:"status"`
}

// Offer is the server's read model of an offer.
type Offer struct {
	ID                  string   `json:"id"`
	DriverID            string   `json:"driverId"`
	Status              string   `json:"status"`
	Source              Location `json:"source"`
	Destination         Location `json:"destination"`
	Stops               []Stop   `json:"stops"`
	Schedule            Schedule `json:"schedule"`
	Pricing             Pricing  `json:"pricing"`
	VehicleID           string   `json:"vehicleId,omitempty"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`
	BookedSeats         int      `json:"bookedSeats"`
	TotalBookings       int      `json:"totalBookings"`
	CreatedAt           string   `json:"createdAt,omitempty"`
	UpdatedAt           string   `json:"updatedAt,omitempty"`
}

// CancelRequest is the body of PATCH /ride-offers/{id}/cancel.
type CancelRequest struct {
	Reason string `json:"reason"`
}

var (
	ErrIncompleteDraft = errors.New("draft is missing source, destination, schedule or pricing")
	ErrBadDay          = errors.New("unknown weekday name")
)

// EncodeDraft serializes a completed draft for submission with the given
// target status.
func EncodeDraft(d models.RideOfferDraft, status string) (OfferPayload, error) {
	if d.Source == nil || d.Destination == nil || d.Schedule == nil || d.Pricing == nil {
		return OfferPayload{}, ErrIncompleteDraft
	}
	p := OfferPayload{
		Source:              encodeLocation(*d.Source),
		Destination:         encodeLocation(*d.Destination),
		Stops:               encodeStops(d.Stops),
		Schedule:            encodeSchedule(*d.Schedule),
		Pricing:             encodePricing(*d.Pricing),
		VehicleID:           d.VehicleID,
		SpecialInstructions: d.SpecialInstructions,
		Status:              status,
	}
	return p, nil
}

// Draft reconstructs the domain draft from a payload. Inverse of
// EncodeDraft modulo the coordinate order transform. Absent locations,
// schedule or pricing come back as nil so downstream validation sees the
// payload as the incomplete draft it is.
func (p OfferPayload) Draft() (models.RideOfferDraft, error) {
	d := models.RideOfferDraft{
		Stops:               decodeStops(p.Stops),
		VehicleID:           p.VehicleID,
		SpecialInstructions: p.SpecialInstructions,
	}
	if !p.Source.isZero() {
		src := p.Source.location()
		d.Source = &src
	}
	if !p.Destination.isZero() {
		dst := p.Destination.location()
		d.Destination = &dst
	}
	if p.Schedule.Departure != "" {
		sched, err := p.Schedule.schedule()
		if err != nil {
			return models.RideOfferDraft{}, err
		}
		d.Schedule = &sched
	}
	if p.Pricing != (Pricing{}) {
		pr := p.Pricing.pricing()
		d.Pricing = &pr
	}
	return d, nil
}

// EncodeOffer maps a stored offer to its wire form.
func EncodeOffer(o *models.RideOffer) Offer {
	out := Offer{
		ID:                  o.ID,
		DriverID:            o.DriverID,
		Status:              o.Status,
		Source:              encodeLocation(o.Source),
		Destination:         encodeLocation(o.Destination),
		Stops:               encodeStops(o.Stops),
		Schedule:            encodeSchedule(o.Schedule),
		Pricing:             encodePricing(o.Pricing),
		VehicleID:           o.VehicleID,
		SpecialInstructions: o.SpecialInstructions,
		BookedSeats:         o.BookedSeats,
		TotalBookings:       o.TotalBookings,
	}
	if !o.CreatedAt.IsZero() {
		out.CreatedAt = o.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !o.UpdatedAt.IsZero() {
		out.UpdatedAt = o.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func encodeLocation(l models.Location) Location {
	return Location{Name: l.Name, Address: l.Address, Coordinates: pointFrom(l.Coordinates), PlaceID: l.PlaceID}
}

func (l Location) location() models.Location {
	return models.Location{Name: l.Name, Address: l.Address, Coordinates: l.Coordinates.coordinates(), PlaceID: l.PlaceID}
}

func encodeStops(stops []models.Stop) []Stop {
	out := make([]Stop, 0, len(stops))
	for _, s := range stops {
		out = append(out, Stop{ID: s.ID, Location: encodeLocation(s.Location)})
	}
	return out
}

func decodeStops(stops []Stop) []models.Stop {
	if len(stops) == 0 {
		return nil
	}
	out := make([]models.Stop, 0, len(stops))
	for _, s := range stops {
		out = append(out, models.Stop{ID: s.ID, Location: s.Location.location()})
	}
	return out
}

func encodeSchedule(s models.Schedule) Schedule {
	out := Schedule{
		Departure:  s.Departure.UTC().Format(time.RFC3339),
		IsFlexible: s.IsFlexible,
	}
	if s.IsFlexible {
		out.FlexibilityMinutes = s.FlexibilityMinutes
	}
	if s.Recurrence.IsRecurring {
		rec := &Recurring{Days: make([]string, 0, len(s.Recurrence.Days))}
		for _, d := range s.Recurrence.Days {
			rec.Days = append(rec.Days, strings.ToLower(d.String()))
		}
		if s.Recurrence.EndDate != nil {
			rec.EndDate = s.Recurrence.EndDate.UTC().Format(time.RFC3339)
		}
		out.Recurring = rec
	}
	return out
}

func (s Schedule) schedule() (models.Schedule, error) {
	dep, err := time.Parse(time.RFC3339, s.Departure)
	if err != nil {
		return models.Schedule{}, fmt.Errorf("parse departureTime: %w", err)
	}
	out := models.Schedule{Departure: dep, IsFlexible: s.IsFlexible}
	if s.IsFlexible {
		out.FlexibilityMinutes = s.FlexibilityMinutes
	}
	if s.Recurring != nil {
		out.Recurrence.IsRecurring = true
		for _, name := range s.Recurring.Days {
			d, err := parseDay(name)
			if err != nil {
				return models.Schedule{}, err
			}
			out.Recurrence.Days = append(out.Recurrence.Days, d)
		}
		if s.Recurring.EndDate != "" {
			end, err := time.Parse(time.RFC3339, s.Recurring.EndDate)
			if err != nil {
				return models.Schedule{}, fmt.Errorf("parse recurring.endDate: %w", err)
			}
			out.Recurrence.EndDate = &end
		}
	}
	return out, nil
}

func encodePricing(p models.Pricing) Pricing {
	out := Pricing{
		Seats:              p.Seats,
		PricePerSeat:       p.PricePerSeat,
		AcceptsNegotiation: p.AcceptsNegotiation,
	}
	if p.AcceptsNegotiation {
		floor := p.MinimumPrice
		out.MinimumPrice = &floor
	}
	return out
}

func (p Pricing) pricing() models.Pricing {
	out := models.Pricing{
		Seats:              p.Seats,
		PricePerSeat:       p.PricePerSeat,
		AcceptsNegotiation: p.AcceptsNegotiation,
	}
	if p.AcceptsNegotiation && p.MinimumPrice != nil {
		out.MinimumPrice = *p.MinimumPrice
	}
	return out
}

var dayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseDay(name string) (time.Weekday, error) {
	if d, ok := dayNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadDay, name)
}
