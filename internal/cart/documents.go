package cart

import (
	"context"
	"errors"
)

// ErrDocumentNotFound is returned by DocumentStore.Read when no cart exists for the key.
var ErrDocumentNotFound = errors.New("cart document not found")

// DocumentStore is the remote per-user cart persistence.
type DocumentStore interface {
	Read(ctx context.Context, userID string) (*Document, error)
	Create(ctx context.Context, userID string, doc *Document) error
	Overwrite(ctx context.Context, userID string, doc *Document) error
}
