package market

import (
	"errors"
	"sync"
	"time"
)

// Quote is a single observation of a symbol's price on one source.
// Quotes are produced fresh each aggregation cycle and never persisted.
type Quote struct {
	Source     string
	Symbol     string
	Price      float64
	ObservedAt time.Time
}

// ErrNoQuote is returned when a store or source has no price for a symbol.
var ErrNoQuote = errors.New("no quote for symbol")

// QuoteStore holds the latest quote per symbol for one source.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewQuoteStore() *QuoteStore {
	return &QuoteStore{quotes: make(map[string]Quote)}
}

func (qs *QuoteStore) Set(q Quote) {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	qs.quotes[q.Symbol] = q
}

func (qs *QuoteStore) Get(symbol string) (Quote, error) {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	q, ok := qs.quotes[symbol]
	if !ok {
		return Quote{}, ErrNoQuote
	}
	return q, nil
}

// Age reports how old the stored quote for symbol is, or a negative
// duration when no quote exists.
func (qs *QuoteStore) Age(symbol string, now time.Time) time.Duration {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	q, ok := qs.quotes[symbol]
	if !ok {
		return -1
	}
	return now.Sub(q.ObservedAt)
}
