package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/techwithPranab/ride-offers/internal/models"
)

// Picker formats: the app sends the date and time picker values separately
// and the policy combines them into a single departure instant.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrNoRecurrenceDays = errors.New("recurring schedule needs at least one day")
	ErrFlexibility      = errors.New("flexibility window must be a positive number of minutes")
	ErrEndBeforeStart   = errors.New("recurrence end date is before departure")
)

// Input is the raw picker state for the schedule step.
type Input struct {
	DepartureDate      string
	DepartureTime      string
	IsFlexible         bool
	FlexibilityMinutes int
	Recurrence         models.Recurrence
}

// Build combines the date and time picker values into one departure instant
// and validates the flexibility and recurrence settings. loc defaults to UTC.
// No conflict checking happens here; the backend is the authority on
// overlapping schedules.
func Build(in Input, loc *time.Location) (models.Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	departure, err := time.ParseInLocation(DateLayout+" "+TimeLayout, in.DepartureDate+" "+in.DepartureTime, loc)
	if err != nil {
		return models.Schedule{}, fmt.Errorf("parse departure: %w", err)
	}

	s := models.Schedule{Departure: departure, IsFlexible: in.IsFlexible}
	if in.IsFlexible {
		if in.FlexibilityMinutes <= 0 {
			return models.Schedule{}, ErrFlexibility
		}
		s.FlexibilityMinutes = in.FlexibilityMinutes
	}

	if in.Recurrence.IsRecurring {
		if len(in.Recurrence.Days) == 0 {
			return models.Schedule{}, ErrNoRecurrenceDays
		}
		if in.Recurrence.EndDate != nil && in.Recurrence.EndDate.Before(departure) {
			return models.Schedule{}, ErrEndBeforeStart
		}
		s.Recurrence = models.Recurrence{
			IsRecurring: true,
			Days:        dedupeDays(in.Recurrence.Days),
			EndDate:     in.Recurrence.EndDate,
		}
	}
	return s, nil
}

// Validate re-checks a schedule that arrived already combined, e.g. in a
// submitted payload.
func Validate(s models.Schedule) error {
	if s.Departure.IsZero() {
		return errors.New("departure is required")
	}
	if s.IsFlexible && s.FlexibilityMinutes <= 0 {
		return ErrFlexibility
	}
	if s.Recurrence.IsRecurring {
		if len(s.Recurrence.Days) == 0 {
			return ErrNoRecurrenceDays
		}
		if s.Recurrence.EndDate != nil && s.Recurrence.EndDate.Before(s.Departure) {
			return ErrEndBeforeStart
		}
	}
	return nil
}

func dedupeDays(days []time.Weekday) []time.Weekday {
	seen := [7]bool{}
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
