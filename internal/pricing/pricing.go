package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/techwithPranab/ride-offers/internal/models"
)

// Seat bounds for a single offer.
const (
	MinSeats = 1
	MaxSeats = 8
)

var (
	ErrSeatsOutOfRange  = errors.New("seats must be between 1 and 8")
	ErrPriceNotPositive = errors.New("price per seat must be greater than zero")
	ErrMinimumPrice     = errors.New("minimum price must be greater than zero and not exceed price per seat")
	ErrPrecision        = errors.New("amounts may have at most two decimal places")
)

// TotalEarnings is the derived full take for the offer: pricePerSeat * seats.
// Recomputed on every change, never stored.
func TotalEarnings(p models.Pricing) float64 {
	return p.PricePerSeat * float64(p.Seats)
}

// CanContinue reports whether the pricing step may advance: the price must be
// positive and, when negotiation is enabled, the floor must sit in
// (0, pricePerSeat]. A disabled negotiation floor never blocks progress.
func CanContinue(p models.Pricing) bool {
	if p.PricePerSeat <= 0 {
		return false
	}
	if p.AcceptsNegotiation {
		return p.MinimumPrice > 0 && p.MinimumPrice <= p.PricePerSeat
	}
	return true
}

// Validate checks a completed pricing block before submission. It is a
// superset of CanContinue: seat bounds and currency precision are enforced
// here as well.
func Validate(p models.Pricing) error {
	if p.Seats < MinSeats || p.Seats > MaxSeats {
		return fmt.Errorf("%w: got %d", ErrSeatsOutOfRange, p.Seats)
	}
	if p.PricePerSeat <= 0 {
		return ErrPriceNotPositive
	}
	if !hasCentPrecision(p.PricePerSeat) {
		return fmt.Errorf("%w: pricePerSeat=%v", ErrPrecision, p.PricePerSeat)
	}
	if p.AcceptsNegotiation {
		if p.MinimumPrice <= 0 || p.MinimumPrice > p.PricePerSeat {
			return ErrMinimumPrice
		}
		if !hasCentPrecision(p.MinimumPrice) {
			return fmt.Errorf("%w: minimumPrice=%v", ErrPrecision, p.MinimumPrice)
		}
	}
	return nil
}

// DisplayAmount rounds to two decimals for display. Rounding is half away
// from zero and applies to presentation only; wire payloads carry the raw
// numbers.
func DisplayAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount renders an amount with two-decimal display formatting.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", DisplayAmount(v))
}

func hasCentPrecision(v float64) bool {
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}
