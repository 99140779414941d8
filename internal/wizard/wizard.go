// Package wizard implements the ride-offer creation flow as a forward-only
// state machine over an immutable draft value. Each step receives the
// accumulated draft and returns an augmented copy; there is no shared
// mutable store behind the screens.
package wizard

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/techwithPranab/ride-offers/internal/models"
	"github.com/techwithPranab/ride-offers/internal/pricing"
	"github.com/techwithPranab/ride-offers/internal/schedule"
)

// State identifies the current step of the wizard.
type State string

const (
	StateSelectSource      State = "select_source"
	StateSelectDestination State = "select_destination"
	StateAddStops          State = "add_stops"
	StateSetSchedule       State = "set_schedule"
	StateSetPricing        State = "set_pricing"
	StateReview            State = "review"
	StatePublished         State = "published"
	StateDraft             State = "draft"
	StateCancelled         State = "cancelled"
)

var (
	ErrWrongState     = errors.New("operation not valid in current state")
	ErrGuard          = errors.New("step guard not satisfied")
	ErrReviewBlocked  = errors.New("review needs source, destination and pricing")
	ErrNotEditable    = errors.New("can only edit a step earlier than review")
	ErrWizardFinished = errors.New("wizard already reached a terminal state")
	ErrStopNotFound   = errors.New("no stop with that id")
)

// Wizard is an immutable snapshot of the flow: methods return a new value
// and never mutate the receiver, so older snapshots stay valid.
type Wizard struct {
	state   State
	draft   models.RideOfferDraft
	editing bool // set while re-entering an earlier step from review
}

// New starts the wizard at source selection with an empty draft.
func New() Wizard {
	return Wizard{state: StateSelectSource}
}

func (w Wizard) State() State                 { return w.state }
func (w Wizard) Draft() models.RideOfferDraft { return w.draft }

// Terminal reports whether the wizard reached one of its end states.
func (w Wizard) Terminal() bool {
	switch w.state {
	case StatePublished, StateDraft, StateCancelled:
		return true
	}
	return false
}

// ChooseSource records the trip origin and continues. A re-selection
// replaces the location wholesale.
func (w Wizard) ChooseSource(loc models.Location) (Wizard, error) {
	if w.state != StateSelectSource {
		return w, stateErr(w.state, StateSelectSource)
	}
	w.draft.Source = &loc
	return w.advance(StateSelectDestination), nil
}

// ChooseDestination records the trip destination and continues to the
// optional stops step.
func (w Wizard) ChooseDestination(loc models.Location) (Wizard, error) {
	if w.state != StateSelectDestination {
		return w, stateErr(w.state, StateSelectDestination)
	}
	w.draft.Destination = &loc
	return w.advance(StateAddStops), nil
}

// AddStop appends an intermediate stop. Insertion order is the visiting
// order. The wizard stays on the stops step.
func (w Wizard) AddStop(loc models.Location) (Wizard, error) {
	if w.state != StateAddStops {
		return w, stateErr(w.state, StateAddStops)
	}
	stops := make([]models.Stop, len(w.draft.Stops), len(w.draft.Stops)+1)
	copy(stops, w.draft.Stops)
	w.draft.Stops = append(stops, models.Stop{ID: uuid.NewString(), Location: loc})
	return w, nil
}

// RemoveStop drops a stop by id, preserving the order of the rest.
func (w Wizard) RemoveStop(id string) (Wizard, error) {
	if w.state != StateAddStops {
		return w, stateErr(w.state, StateAddStops)
	}
	stops := make([]models.Stop, 0, len(w.draft.Stops))
	found := false
	for _, s := range w.draft.Stops {
		if s.ID == id {
			found = true
			continue
		}
		stops = append(stops, s)
	}
	if !found {
		return w, ErrStopNotFound
	}
	w.draft.Stops = stops
	return w, nil
}

// ContinueFromStops leaves the stops step with whatever was added.
func (w Wizard) ContinueFromStops() (Wizard, error) {
	if w.state != StateAddStops {
		return w, stateErr(w.state, StateAddStops)
	}
	return w.advance(StateSetSchedule), nil
}

// SkipStops bypasses the stops step entirely, leaving the stops list empty.
func (w Wizard) SkipStops() (Wizard, error) {
	if w.state != StateAddStops {
		return w, stateErr(w.state, StateAddStops)
	}
	return w.advance(StateSetSchedule), nil
}

// SetSchedule validates and records the departure plan.
func (w Wizard) SetSchedule(s models.Schedule) (Wizard, error) {
	if w.state != StateSetSchedule {
		return w, stateErr(w.state, StateSetSchedule)
	}
	if err := schedule.Validate(s); err != nil {
		return w, fmt.Errorf("%w: %v", ErrGuard, err)
	}
	w.draft.Schedule = &s
	return w.advance(StateSetPricing), nil
}

// SetPricing records the pricing block. Continue is gated on the pricing
// guard: price > 0 and, with negotiation on, 0 < floor <= price.
func (w Wizard) SetPricing(p models.Pricing) (Wizard, error) {
	if w.state != StateSetPricing {
		return w, stateErr(w.state, StateSetPricing)
	}
	if !pricing.CanContinue(p) {
		return w, fmt.Errorf("%w: %v", ErrGuard, pricing.Validate(p))
	}
	w.draft.Pricing = &p
	return w.advance(StateReview), nil
}

// SetDetails attaches the vehicle and optional rider-facing instructions.
// Allowed any time before a terminal state; details are not step-gated.
func (w Wizard) SetDetails(vehicleID, instructions string) (Wizard, error) {
	if w.Terminal() {
		return w, ErrWizardFinished
	}
	w.draft.VehicleID = vehicleID
	w.draft.SpecialInstructions = instructions
	return w, nil
}

// Edit jumps from review back to an earlier step with the draft pre-filled
// and the rest of it untouched. Completing the edited step returns straight
// to review rather than re-walking the flow.
func (w Wizard) Edit(target State) (Wizard, error) {
	if w.state != StateReview {
		return w, stateErr(w.state, StateReview)
	}
	switch target {
	case StateSelectSource, StateSelectDestination, StateAddStops, StateSetSchedule, StateSetPricing:
	default:
		return w, ErrNotEditable
	}
	w.state = target
	w.editing = true
	return w, nil
}

// Publish finishes the wizard after a successful publish submission.
func (w Wizard) Publish() (Wizard, error) { return w.finish(StatePublished) }

// SaveDraft finishes the wizard after a successful draft save.
func (w Wizard) SaveDraft() (Wizard, error) { return w.finish(StateDraft) }

// Cancel abandons the wizard from any non-terminal state. The draft is
// discarded.
func (w Wizard) Cancel() (Wizard, error) {
	if w.Terminal() {
		return w, ErrWizardFinished
	}
	w.state = StateCancelled
	w.draft = models.RideOfferDraft{}
	return w, nil
}

// ValidateForSubmit is the review entry guard applied to the full draft:
// non-nil source, destination and a populated, valid pricing block. The
// schedule is validated when present.
func ValidateForSubmit(d models.RideOfferDraft) error {
	if d.Source == nil || d.Destination == nil || d.Pricing == nil {
		return ErrReviewBlocked
	}
	if err := pricing.Validate(*d.Pricing); err != nil {
		return err
	}
	if d.Schedule != nil {
		if err := schedule.Validate(*d.Schedule); err != nil {
			return err
		}
	}
	return nil
}

func (w Wizard) finish(terminal State) (Wizard, error) {
	if w.state != StateReview {
		return w, stateErr(w.state, StateReview)
	}
	if err := ValidateForSubmit(w.draft); err != nil {
		return w, err
	}
	w.state = terminal
	return w, nil
}

// advance moves forward, or back to review when the step was entered via
// Edit and the review guard already holds.
func (w Wizard) advance(next State) Wizard {
	if w.editing && ValidateForSubmit(w.draft) == nil {
		w.state = StateReview
		w.editing = false
		return w
	}
	w.state = next
	return w
}

func stateErr(got, want State) error {
	return fmt.Errorf("%w: in %s, want %s", ErrWrongState, got, want)
}
