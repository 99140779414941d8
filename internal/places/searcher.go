package places

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/techwithPranab/ride-offers/internal/models"
	"github.com/techwithPranab/ride-offers/internal/observability"
)

// DefaultDebounce is the idle time after the last keystroke before a search
// request is issued.
const DefaultDebounce = 300 * time.Millisecond

// Searcher debounces keystrokes into resolver calls and guarantees that
// only the latest query's results are ever delivered. Every scheduled
// request carries a monotonically increasing sequence number; a response
// whose sequence is no longer the newest is dropped. An in-flight HTTP
// request is not cancelled, just ignored when it lands stale.
type Searcher struct {
	resolver Resolver
	debounce time.Duration
	deliver  func(query string, results []models.Location, err error)

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewSearcher wires keystroke input to the resolver. deliver is invoked at
// most once per winning query, from the timer goroutine.
func NewSearcher(r Resolver, debounce time.Duration, deliver func(string, []models.Location, error)) *Searcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Searcher{resolver: r, debounce: debounce, deliver: deliver}
}

// Input feeds the current text box contents. Short queries (under
// MinQueryLen) cancel any pending search and issue nothing.
func (s *Searcher) Input(ctx context.Context, query string, bias *models.Coordinates) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	// a newer keystroke supersedes whatever was pending or in flight
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(query) < MinQueryLen {
		return
	}

	seq := s.seq
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(ctx, seq, query, bias)
	})
}

// Close cancels any pending search. Nothing is delivered afterwards.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Searcher) run(ctx context.Context, seq uint64, query string, bias *models.Coordinates) {
	observability.SearchesTotal.Inc()
	results, err := s.resolver.Search(ctx, query, bias)

	s.mu.Lock()
	stale := seq != s.seq
	s.mu.Unlock()
	if stale {
		observability.SearchStaleDropped.Inc()
		return
	}
	s.deliver(query, results, err)
}
