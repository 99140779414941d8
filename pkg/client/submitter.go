package client

import (
	"context"
	"errors"
	"sync"

	"github.com/techwithPranab/ride-offers/internal/models"
	"github.com/techwithPranab/ride-offers/internal/wire"
	"github.com/techwithPranab/ride-offers/internal/wizard"
)

// SubmitState tracks one submission attempt:
// Idle -> Submitting -> {Published, Failed} and
// Idle -> SavingDraft -> {Saved, Failed}. Failed returns to Idle so the
// user may resubmit the retained draft.
type SubmitState string

const (
	StateIdle        SubmitState = "idle"
	StateSubmitting  SubmitState = "submitting"
	StateSavingDraft SubmitState = "saving_draft"
	StatePublished   SubmitState = "published"
	StateSaved       SubmitState = "saved"
	StateFailed      SubmitState = "failed"
)

var ErrSubmitInFlight = errors.New("a submission is already in progress")

// Submitter consumes a completed draft exactly once. On failure the draft
// is retained, not cleared, so the user can fix the cause (log in again,
// restore connectivity) and re-trigger submission.
type Submitter struct {
	client *Client

	mu    sync.Mutex
	state SubmitState
	draft *models.RideOfferDraft
}

func NewSubmitter(c *Client) *Submitter {
	return &Submitter{client: c, state: StateIdle}
}

func (s *Submitter) State() SubmitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns the retained draft after a failed attempt, nil otherwise.
func (s *Submitter) Draft() *models.RideOfferDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Publish submits the draft as a live offer and returns the new offer id.
func (s *Submitter) Publish(ctx context.Context, draft models.RideOfferDraft) (string, error) {
	return s.submit(ctx, draft, models.StatusPublished)
}

// SaveDraft stores the draft server-side without publishing it.
func (s *Submitter) SaveDraft(ctx context.Context, draft models.RideOfferDraft) (string, error) {
	return s.submit(ctx, draft, models.StatusDraft)
}

func (s *Submitter) submit(ctx context.Context, draft models.RideOfferDraft, status string) (string, error) {
	s.mu.Lock()
	if s.state == StateSubmitting || s.state == StateSavingDraft {
		s.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	if status == models.StatusPublished {
		s.state = StateSubmitting
	} else {
		s.state = StateSavingDraft
	}
	s.draft = &draft
	s.mu.Unlock()

	id, err := s.attempt(ctx, draft, status)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// terminal for this attempt; back to idle with the draft intact
		s.state = StateIdle
		return "", err
	}
	if status == models.StatusPublished {
		s.state = StatePublished
	} else {
		s.state = StateSaved
	}
	s.draft = nil // consumed
	return id, nil
}

func (s *Submitter) attempt(ctx context.Context, draft models.RideOfferDraft, status string) (string, error) {
	if err := wizard.ValidateForSubmit(draft); err != nil {
		return "", err
	}
	payload, err := wire.EncodeDraft(draft, status)
	if err != nil {
		return "", err
	}
	offer, err := s.client.CreateOffer(ctx, payload)
	if err != nil {
		return "", err
	}
	return offer.ID, nil
}
