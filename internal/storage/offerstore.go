package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/techwithPranab/ride-offers/internal/models"
)

var (
	ErrNotFound      = errors.New("offer not found")
	ErrNotCancelable = errors.New("only draft or published offers can be cancelled")
)

// OfferStore defines persistence operations for ride offers.
type OfferStore interface {
	SaveOffer(ctx context.Context, o *models.RideOffer) error
	GetOffer(ctx context.Context, id string) (*models.RideOffer, error)
	ListOffersByDriver(ctx context.Context, driverID string) ([]*models.RideOffer, error)
	CancelOffer(ctx context.Context, id, reason string) error
}

// MemoryStore keeps offers in process. Used for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	offers map[string]*models.RideOffer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{offers: make(map[string]*models.RideOffer)}
}

func (m *MemoryStore) SaveOffer(ctx context.Context, o *models.RideOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.offers[o.ID] = &cp
	return nil
}

func (m *MemoryStore) GetOffer(ctx context.Context, id string) (*models.RideOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryStore) ListOffersByDriver(ctx context.Context, driverID string) ([]*models.RideOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.RideOffer, 0)
	for _, o := range m.offers {
		if o.DriverID == driverID {
			cp := *o
			out = append(out, &cp)
		}
	}
	// newest first, matching the postgres query
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CancelOffer(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != models.StatusDraft && o.Status != models.StatusPublished {
		return ErrNotCancelable
	}
	o.Status = models.StatusCancelled
	o.CancelReason = reason
	o.UpdatedAt = time.Now()
	return nil
}
