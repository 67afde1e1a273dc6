package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes the circuit breaker in front of the document store.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
}

// BreakerDocuments trips after consecutive document store failures so a degraded
// backend fails fast instead of stalling every cart load and save.
type BreakerDocuments struct {
	next DocumentStore
	cb   *gobreaker.CircuitBreaker[*Document]
}

// NewBreakerDocuments wraps next with a gobreaker circuit breaker.
func NewBreakerDocuments(next DocumentStore, settings BreakerSettings, logg *logger.Logger) *BreakerDocuments {
	if logg == nil {
		logg = logger.Nop()
	}
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	name := settings.Name
	if name == "" {
		name = "cart-documents"
	}
	cb := gobreaker.NewCircuitBreaker[*Document](gobreaker.Settings{
		Name:    name,
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDocumentNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "cart document breaker state changed")
		},
	})
	return &BreakerDocuments{next: next, cb: cb}
}

func (b *BreakerDocuments) Read(ctx context.Context, userID string) (*Document, error) {
	doc, err := b.cb.Execute(func() (*Document, error) {
		return b.next.Read(ctx, userID)
	})
	return doc, wrapBreakerErr(err)
}

func (b *BreakerDocuments) Create(ctx context.Context, userID string, doc *Document) error {
	_, err := b.cb.Execute(func() (*Document, error) {
		return nil, b.next.Create(ctx, userID, doc)
	})
	return wrapBreakerErr(err)
}

func (b *BreakerDocuments) Overwrite(ctx context.Context, userID string, doc *Document) error {
	_, err := b.cb.Execute(func() (*Document, error) {
		return nil, b.next.Overwrite(ctx, userID, doc)
	})
	return wrapBreakerErr(err)
}

// State exposes the breaker state for readiness reporting.
func (b *BreakerDocuments) State() gobreaker.State {
	return b.cb.State()
}

func wrapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("cart document store unavailable: %w", err)
	}
	return err
}
