package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

// errSessionReleased reports that the user signed out while their store was loading.
var errSessionReleased = errors.New("cart session released during load")

// Sessions keeps one Store per signed-in user for the lifetime of their session.
// A user never has two stores with live writers: a store being released stays
// reachable in releasing until its pending saves are flushed, and Acquire waits
// for that before building a new one.
type Sessions struct {
	params StoreParams
	logg   *logger.Logger

	mu        sync.Mutex
	stores    map[string]*Store
	releasing map[string]chan struct{}
	loading   map[string]bool // first loads in flight; true once the user signed out
	group     singleflight.Group
}

// NewSessions builds a registry whose stores share params.
func NewSessions(params StoreParams) (*Sessions, error) {
	if params.Documents == nil {
		return nil, errors.New("cart document store is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Sessions{
		params:    params,
		logg:      logg,
		stores:    make(map[string]*Store),
		releasing: make(map[string]chan struct{}),
		loading:   make(map[string]bool),
	}, nil
}

// Acquire returns the store for identity, loading the remote cart on first use.
// Concurrent first requests for the same user share a single load.
func (s *Sessions) Acquire(ctx context.Context, identity Identity) (*Store, error) {
	if identity.ID == "" {
		return nil, errors.New("identity id is required")
	}
	for {
		store, wait := s.lookup(identity.ID)
		if wait != nil {
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if store == nil {
			loaded, err := s.load(ctx, identity)
			if errors.Is(err, errSessionReleased) {
				continue
			}
			if err != nil {
				return nil, err
			}
			store = loaded
		}
		if store.Identity() == nil {
			continue
		}
		return store, nil
	}
}

// lookup returns the live store for userID and marks it used, or the channel to
// wait on while a previous store for the user is still being released.
func (s *Sessions) lookup(userID string) (*Store, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if done, ok := s.releasing[userID]; ok {
		return nil, done
	}
	store := s.stores[userID]
	if store != nil {
		store.touch()
	}
	return store, nil
}

func (s *Sessions) load(ctx context.Context, identity Identity) (*Store, error) {
	v, err, _ := s.group.Do(identity.ID, func() (any, error) {
		s.mu.Lock()
		if store := s.stores[identity.ID]; store != nil {
			store.touch()
			s.mu.Unlock()
			return store, nil
		}
		if _, ok := s.releasing[identity.ID]; ok {
			s.mu.Unlock()
			return nil, errSessionReleased
		}
		s.loading[identity.ID] = false
		s.mu.Unlock()

		store, err := NewStore(s.params)
		if err != nil {
			s.mu.Lock()
			delete(s.loading, identity.ID)
			s.mu.Unlock()
			return nil, err
		}
		store.SetIdentity(context.WithoutCancel(ctx), &identity)

		s.mu.Lock()
		released := s.loading[identity.ID]
		delete(s.loading, identity.ID)
		if released {
			s.mu.Unlock()
			store.SetIdentity(ctx, nil)
			return nil, errSessionReleased
		}
		s.stores[identity.ID] = store
		s.mu.Unlock()
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Release signs the user out: pending saves are flushed, the store is emptied
// and forgotten. When ctx ends first the flush keeps running in the background
// and the user's next Acquire waits for it.
func (s *Sessions) Release(ctx context.Context, userID string) error {
	return s.release(ctx, userID, nil)
}

// release detaches the user's store when keep is nil or returns false for it.
// The check runs under the registry lock so a store touched by Acquire is never
// swept.
func (s *Sessions) release(ctx context.Context, userID string, keep func(*Store) bool) error {
	s.mu.Lock()
	if done, ok := s.releasing[userID]; ok {
		s.mu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	store, ok := s.stores[userID]
	if ok && keep != nil && keep(store) {
		s.mu.Unlock()
		return nil
	}
	if _, loading := s.loading[userID]; loading && keep == nil {
		s.loading[userID] = true
	}
	if !ok {
		s.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	delete(s.stores, userID)
	s.releasing[userID] = done
	s.mu.Unlock()

	finish := func() {
		store.SetIdentity(context.Background(), nil)
		s.mu.Lock()
		delete(s.releasing, userID)
		s.mu.Unlock()
		close(done)
	}

	if err := store.Flush(ctx); err != nil {
		go func() {
			_ = store.Flush(context.Background())
			finish()
		}()
		return fmt.Errorf("flush cart for %s: %w", userID, err)
	}
	finish()
	return nil
}

// Len reports how many stores are live.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}

// Sweep releases stores that have not been used since cutoff.
func (s *Sessions) Sweep(ctx context.Context, cutoff time.Time) error {
	idle := func(store *Store) bool {
		return store.idleSince().Before(cutoff)
	}
	s.mu.Lock()
	stale := make([]string, 0)
	for userID, store := range s.stores {
		if idle(store) {
			stale = append(stale, userID)
		}
	}
	s.mu.Unlock()

	var errs error
	for _, userID := range stale {
		errs = multierr.Append(errs, s.release(ctx, userID, func(store *Store) bool {
			return !idle(store)
		}))
	}
	if len(stale) > 0 {
		s.logg.Debug(s.logg.WithField(ctx, "candidates", len(stale)), "idle cart sessions swept")
	}
	return errs
}

// RunSweeper releases sessions idle for longer than ttl every interval until ctx ends.
func (s *Sessions) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := s.Sweep(ctx, now.Add(-ttl)); err != nil {
				s.logg.Error(ctx, "cart session sweep failed", err)
			}
		}
	}
}

// Close flushes every live store. Stores stay registered.
func (s *Sessions) Close(ctx context.Context) error {
	s.mu.Lock()
	stores := make(map[string]*Store, len(s.stores))
	for userID, store := range s.stores {
		stores[userID] = store
	}
	s.mu.Unlock()

	var errs error
	for userID, store := range stores {
		if err := store.Flush(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("flush cart for %s: %w", userID, err))
		}
	}
	return errs
}
