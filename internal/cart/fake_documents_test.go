package cart

import (
	"context"
	"sync"
)

// memDocuments is an in-memory DocumentStore with hooks for blocking and failing calls.
type memDocuments struct {
	mu   sync.Mutex
	docs map[string]Document

	readErr      error
	createErr    error
	overwriteErr error

	readGate      chan struct{}
	readStarted   chan struct{}
	overwriteGate chan struct{}

	reads      int
	creates    int
	overwrites []Document
}

func newMemDocuments() *memDocuments {
	return &memDocuments{docs: make(map[string]Document)}
}

func (m *memDocuments) put(userID string, items ...LineItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID] = Document{UserID: userID, Items: cloneItems(items)}
}

func (m *memDocuments) Read(ctx context.Context, userID string) (*Document, error) {
	m.mu.Lock()
	m.reads++
	gate, started := m.readGate, m.readStarted
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	doc, ok := m.docs[userID]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	doc.Items = cloneItems(doc.Items)
	return &doc, nil
}

func (m *memDocuments) Create(_ context.Context, userID string, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.docs[userID]; !ok {
		m.docs[userID] = Document{UserID: userID, Items: cloneItems(doc.Items)}
	}
	return nil
}

func (m *memDocuments) Overwrite(ctx context.Context, userID string, doc *Document) error {
	m.mu.Lock()
	gate := m.overwriteGate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := Document{UserID: userID, Items: cloneItems(doc.Items)}
	m.overwrites = append(m.overwrites, snapshot)
	if m.overwriteErr != nil {
		return m.overwriteErr
	}
	m.docs[userID] = snapshot
	return nil
}

func (m *memDocuments) stats() (reads, creates, overwrites int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads, m.creates, len(m.overwrites)
}

func (m *memDocuments) saved() []Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Document, len(m.overwrites))
	copy(out, m.overwrites)
	return out
}

func (m *memDocuments) stored(userID string) (Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[userID]
	return doc, ok
}
