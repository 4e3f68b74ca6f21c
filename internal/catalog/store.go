package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

// ProductSource fetches the raw product list from the backend.
type ProductSource interface {
	GetProducts(ctx context.Context) ([]models.RawProduct, error)
}

// Snapshot is an immutable view of the cache at one version.
type Snapshot struct {
	Products  []models.Product
	Version   uint64
	FetchedAt time.Time
}

// Store is the shared, read-mostly product cache. Any caller may trigger a
// Refresh; concurrent refreshes are not coalesced and the response that
// arrives last becomes the visible state.
type Store struct {
	source ProductSource
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	products []models.Product
	index    map[string]int
	version  uint64
	fetched  time.Time

	// publishMu serializes replacement and fan-out so subscribers observe
	// versions in increasing order.
	publishMu   sync.Mutex
	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewStore wires a product cache over the given source.
func NewStore(source ProductSource, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		source:      source,
		logger:      logger,
		now:         time.Now,
		index:       map[string]int{},
		subscribers: map[int]func(Snapshot){},
	}
}

// Refresh fetches and normalizes the product list, then publishes it to all
// subscribers. On error the previous snapshot stays in place.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	raw, err := s.source.GetProducts(ctx)
	if err != nil {
		s.logger.Warn("product refresh failed", zap.Error(err))
		return s.Snapshot(), fmt.Errorf("refresh products: %w", err)
	}

	products := Normalize(raw)
	if dropped := len(raw) - len(products); dropped > 0 {
		s.logger.Debug("dropped malformed or duplicate products", zap.Int("dropped", dropped))
	}

	snap := s.publish(products)
	s.logger.Debug("product cache refreshed", zap.Int("products", len(products)), zap.Uint64("version", snap.Version))
	return snap, nil
}

// Replace installs an already canonical list, bypassing the source.
func (s *Store) Replace(products []models.Product) Snapshot {
	return s.publish(append([]models.Product(nil), products...))
}

func (s *Store) publish(products []models.Product) Snapshot {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	index := make(map[string]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}

	s.mu.Lock()
	s.products = products
	s.index = index
	s.version++
	s.fetched = s.now()
	snap := Snapshot{Products: s.copyLocked(), Version: s.version, FetchedAt: s.fetched}
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

// Subscribe registers fn to be called after every publish. Callbacks run on
// the refreshing goroutine and must not call Refresh themselves. The returned
// function cancels the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
}

// Snapshot returns the current cache contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Products: s.copyLocked(), Version: s.version, FetchedAt: s.fetched}
}

// Products returns a copy of the cached products.
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Lookup finds a cached product by id.
func (s *Store) Lookup(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Product{}, false
	}
	return s.products[i], true
}

// StockOf returns the cached on-hand quantity, zero for unknown products.
func (s *Store) StockOf(id string) int {
	p, ok := s.Lookup(id)
	if !ok {
		return 0
	}
	return p.Quantity
}

// Version returns the number of publishes so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) copyLocked() []models.Product {
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}
