package profile

import (
	"context"

	"github.com/Abraxas-365/portal/pkg/kernel"
)

// Store is the profile store adapter. Keys are lower-cased emails.
type Store interface {
	// Get fails with NOT_FOUND when no document exists.
	Get(ctx context.Context, email kernel.Email) (RawDocument, error)
	// Create inserts a new document; ALREADY_EXISTS when one is present.
	Create(ctx context.Context, email kernel.Email, doc RawDocument) error
	// Set creates or replaces the document.
	Set(ctx context.Context, email kernel.Email, doc RawDocument) error
	// Update merges fields into an existing document; NOT_FOUND otherwise.
	Update(ctx context.Context, email kernel.Email, fields map[string]any) error
	// Delete fails with NOT_FOUND when no document exists.
	Delete(ctx context.Context, email kernel.Email) error
	OrganizationExists(ctx context.Context, id kernel.OrganizationID) (bool, error)
}

// PlaceholderStore holds the per-user auxiliary resource
type PlaceholderStore interface {
	CreatePlaceholder(ctx context.Context, email kernel.Email) error
}
