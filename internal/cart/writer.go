package cart

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// Writer persists cart snapshots for one identity. At most one overwrite is in
// flight; while it runs only the newest snapshot is kept pending, so the last
// mutation is always the last write.
type Writer struct {
	userID  string
	docs    DocumentStore
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	timeout time.Duration

	mu      sync.Mutex
	running bool
	pending *Document
	idle    chan struct{}
}

func newWriter(userID string, docs DocumentStore, logg *logger.Logger, m *metrics.CartMetrics, timeout time.Duration) *Writer {
	return &Writer{
		userID:  userID,
		docs:    docs,
		logg:    logg,
		metrics: m,
		timeout: timeout,
	}
}

// Enqueue schedules doc for persistence without blocking the caller.
func (w *Writer) Enqueue(doc Document) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		if w.pending != nil {
			w.metrics.IncSave(metrics.SaveSuperseded)
		}
		w.pending = &doc
		return
	}

	w.running = true
	w.idle = make(chan struct{})
	go w.drain(doc, w.idle)
}

func (w *Writer) drain(doc Document, idle chan struct{}) {
	for {
		w.persist(doc)

		w.mu.Lock()
		if w.pending == nil {
			w.running = false
			close(idle)
			w.mu.Unlock()
			return
		}
		doc = *w.pending
		w.pending = nil
		w.mu.Unlock()
	}
}

func (w *Writer) persist(doc Document) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	err := w.docs.Overwrite(ctx, w.userID, &doc)
	w.metrics.ObserveSave(time.Since(start))
	if err != nil {
		w.metrics.IncSave(metrics.SaveFailure)
		logCtx := w.logg.WithFields(ctx, map[string]any{
			"user_id": w.userID,
			"op":      "cart.save",
			"items":   len(doc.Items),
		})
		w.logg.Error(logCtx, "cart save failed", err)
		return
	}
	w.metrics.IncSave(metrics.SaveSuccess)
}

// Flush waits until no save is in flight or pending, or ctx ends.
func (w *Writer) Flush(ctx context.Context) error {
	for {
		w.mu.Lock()
		if !w.running {
			w.mu.Unlock()
			return nil
		}
		idle := w.idle
		w.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
