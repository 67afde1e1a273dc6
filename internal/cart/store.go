package cart

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

const (
	defaultLoadTimeout = 5 * time.Second
	defaultSaveTimeout = 5 * time.Second
)

// StoreParams configures a Store.
type StoreParams struct {
	Documents   DocumentStore
	Logger      *logger.Logger
	Metrics     *metrics.CartMetrics
	LoadTimeout time.Duration
	SaveTimeout time.Duration
	Now         func() time.Time
}

// Store holds the cart of at most one identity. Mutations are applied in memory
// immediately and persisted in the background; remote faults are logged, never
// returned.
type Store struct {
	docs        DocumentStore
	logg        *logger.Logger
	metrics     *metrics.CartMetrics
	loadTimeout time.Duration
	saveTimeout time.Duration
	now         func() time.Time

	mu         sync.RWMutex
	identity   *Identity
	items      []LineItem
	loaded     bool
	generation uint64
	writer     *Writer
	lastUsed   time.Time
}

// NewStore builds an empty store with no identity.
func NewStore(params StoreParams) (*Store, error) {
	if params.Documents == nil {
		return nil, errors.New("cart document store is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	loadTimeout := params.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}
	saveTimeout := params.SaveTimeout
	if saveTimeout <= 0 {
		saveTimeout = defaultSaveTimeout
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		docs:        params.Documents,
		logg:        logg,
		metrics:     params.Metrics,
		loadTimeout: loadTimeout,
		saveTimeout: saveTimeout,
		now:         now,
		items:       []LineItem{},
		lastUsed:    now(),
	}, nil
}

// SetIdentity switches the store to identity and loads its remote cart. A nil
// identity empties the store without touching the document store. Setting the
// identity that is already loaded does nothing.
func (s *Store) SetIdentity(ctx context.Context, identity *Identity) {
	s.mu.Lock()
	if identity == nil {
		s.identity = nil
		s.items = []LineItem{}
		s.loaded = false
		s.writer = nil
		s.generation++
		s.mu.Unlock()
		return
	}
	if s.identity != nil && s.identity.ID == identity.ID && s.loaded {
		current := *identity
		s.identity = &current
		s.mu.Unlock()
		return
	}

	current := *identity
	s.identity = &current
	s.items = []LineItem{}
	s.loaded = false
	s.generation++
	generation := s.generation
	s.writer = newWriter(current.ID, s.docs, s.logg, s.metrics, s.saveTimeout)
	s.mu.Unlock()

	items := s.load(ctx, current.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		// identity changed while the load was running
		return
	}
	s.items = items
	s.loaded = true
}

func (s *Store) load(ctx context.Context, userID string) []LineItem {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
	defer cancel()
	logCtx := s.logg.WithUserID(ctx, userID)

	doc, err := s.docs.Read(ctx, userID)
	switch {
	case err == nil:
		s.metrics.IncLoad(metrics.LoadFound)
		if doc == nil {
			return []LineItem{}
		}
		return cloneItems(doc.Items)
	case errors.Is(err, ErrDocumentNotFound):
		now := s.now()
		empty := &Document{UserID: userID, Items: []LineItem{}, CreatedAt: now, UpdatedAt: now}
		if err := s.docs.Create(ctx, userID, empty); err != nil {
			s.metrics.IncLoad(metrics.LoadFallback)
			s.logg.Error(s.logg.WithField(logCtx, "op", "cart.create"), "cart create failed", err)
			return []LineItem{}
		}
		s.metrics.IncLoad(metrics.LoadCreated)
		return []LineItem{}
	default:
		s.metrics.IncLoad(metrics.LoadFallback)
		s.logg.Error(s.logg.WithField(logCtx, "op", "cart.load"), "cart load failed", err)
		return []LineItem{}
	}
}

// Add appends item or, when an item with the same ID exists, increases its
// quantity while keeping the stored price, name and image. Items without an ID
// or with a quantity below one are ignored, as is a merge that would overflow.
func (s *Store) Add(item LineItem) {
	if item.ID == "" || item.Quantity < 1 {
		return
	}
	s.mutate(func(items []LineItem) []LineItem {
		for i := range items {
			if items[i].ID == item.ID {
				if item.Quantity > math.MaxInt-items[i].Quantity {
					return items
				}
				items[i].Quantity += item.Quantity
				return items
			}
		}
		return append(items, item)
	})
}

// UpdateQuantity sets the quantity of the item with id. Quantities below one
// are ignored.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity < 1 {
		return
	}
	s.mutate(func(items []LineItem) []LineItem {
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity = quantity
				break
			}
		}
		return items
	})
}

// Remove drops the item with id, if present.
func (s *Store) Remove(id string) {
	s.mutate(func(items []LineItem) []LineItem {
		out := items[:0]
		for _, item := range items {
			if item.ID != id {
				out = append(out, item)
			}
		}
		return out
	})
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mutate(func([]LineItem) []LineItem {
		return []LineItem{}
	})
}

// mutate applies fn to a private copy of the items and schedules a save. It is
// a no-op while no identity is set.
func (s *Store) mutate(fn func([]LineItem) []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return
	}
	next := fn(cloneItems(s.items))
	if next == nil {
		next = []LineItem{}
	}
	s.items = next
	s.lastUsed = s.now()
	s.enqueueLocked()
}

func (s *Store) enqueueLocked() {
	if !s.loaded || s.identity == nil || s.writer == nil {
		s.metrics.IncSave(metrics.SaveSuppressed)
		return
	}
	now := s.now()
	s.writer.Enqueue(Document{
		UserID:    s.identity.ID,
		Items:     cloneItems(s.items),
		UpdatedAt: now,
	})
}

// Items returns a copy of the current line items.
func (s *Store) Items() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// TotalItems is the sum of all quantities.
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// Total is the sum of price times quantity, rounded to cents.
func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, item := range s.items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.Round(2).InexactFloat64()
}

// Loaded reports whether the initial load for the current identity finished.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Identity returns the current identity, or nil when signed out.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	current := *s.identity
	return &current
}

// Flush blocks until every queued save has been attempted or ctx ends.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	writer := s.writer
	s.mu.RUnlock()
	if writer == nil {
		return nil
	}
	return writer.Flush(ctx)
}

func (s *Store) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

func (s *Store) touch() {
	s.mu.Lock()
	s.lastUsed = s.now()
	s.mu.Unlock()
}
