// Package notify pushes offer status changes to connected driver apps over
// websocket. A driver without a live session simply misses the push; the
// authoritative state is always the offers API.
package notify

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// OfferUpdate is the message sent to the owning driver when an offer
// changes state.
type OfferUpdate struct {
	OfferID string `json:"offer_id"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

var ErrNoSession = errors.New("no websocket session for driver")

// WSSession wraps one driver connection. Writes are serialized because
// gorilla/websocket allows only one concurrent writer.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(u OfferUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(u)
}

// WSRegistry tracks the live session per driver. A reconnect replaces the
// previous session.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
}

func NewWSRegistry() *WSRegistry {
	return &WSRegistry{sessions: make(map[string]*WSSession)}
}

func (r *WSRegistry) Add(driverID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[driverID]; ok {
		_ = old.conn.Close()
	}
	r.sessions[driverID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(driverID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, driverID)
}

// Notify sends an update to the driver's session if one exists. A failed
// write drops the session; the app will reconnect.
func (r *WSRegistry) Notify(driverID string, u OfferUpdate) error {
	r.mu.RLock()
	s, ok := r.sessions[driverID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.Send(u); err != nil {
		r.Remove(driverID)
		return err
	}
	return nil
}
