// Package suggest offers "did you mean this existing client" lookups while a
// customer name is being typed.
package suggest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/comandas-pos/pos/internal/customer"
	"github.com/rs/zerolog/log"
)

// minQueryLen avoids querying the clientes service for one or two letters.
const minQueryLen = 3

const lookupTimeout = 5 * time.Second

// ClientSearcher finds clients by (partial) name.
type ClientSearcher interface {
	SearchClients(ctx context.Context, name string) ([]customer.Client, error)
}

// Suggester debounces name input and reports the best matching client.
type Suggester struct {
	search ClientSearcher
	deb    *Debouncer
	notify func(query string, res MatchResult)

	mu  sync.Mutex
	seq uint64
}

// NewSuggester wires a searcher and a result callback. The callback runs on
// the debouncer's goroutine; results for superseded queries are dropped.
func NewSuggester(search ClientSearcher, delay time.Duration, notify func(query string, res MatchResult)) *Suggester {
	return &Suggester{
		search: search,
		deb:    NewDebouncer(delay),
		notify: notify,
	}
}

// Typed records a keystroke.
func (s *Suggester) Typed(name string) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	query := strings.TrimSpace(name)
	if len([]rune(query)) < minQueryLen {
		s.deb.Trigger(func() {})
		return
	}
	s.deb.Trigger(func() { s.lookup(seq, query) })
}

// Stop cancels any pending lookup.
func (s *Suggester) Stop() {
	s.deb.Stop()
}

func (s *Suggester) lookup(seq uint64, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	clients, err := s.search.SearchClients(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("client suggestion lookup failed")
		return
	}
	res := NewMatcher(clients).Match(query)

	s.mu.Lock()
	current := s.seq == seq
	s.mu.Unlock()
	if current && s.notify != nil {
		s.notify(query, res)
	}
}
