package storage

import (
	"context"

	"blocket-watcher/models"
)

// ListingStore is the durable home of Listing records. Implementations must
// guarantee that URL is unique, so an upsert for a known URL updates the
// existing record rather than creating a duplicate.
type ListingStore interface {
	FindByURL(ctx context.Context, url string) (*models.Listing, error)
	Upsert(ctx context.Context, listing *models.Listing) (*models.Listing, error)
}

// RecipientStore provides the recipients whose interest profiles are
// matched against newly reconciled listings.
type RecipientStore interface {
	ListActive(ctx context.Context) ([]*models.Recipient, error)
}
