// Package media attaches images and external media to storefront products.
package media

import (
	"context"

	"github.com/google/uuid"
)

// Media types.
const (
	TypeImage    = "image"
	TypeExternal = "external"
)

// AltCharLimit caps the alt text length.
const AltCharLimit = 250

// Asset is one media row attached to a product, optionally pinned to a
// variant. URL is the stored object's URL for images and the remote URL
// as given for external media.
type Asset struct {
	ID        uuid.UUID `json:"id"`
	ProductID int64     `json:"product_id"`
	VariantID *int64    `json:"variant_id,omitempty"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	Alt       string    `json:"alt,omitempty"`
	SortOrder int       `json:"sort_order"`
}

// Repository persists media assets.
type Repository interface {
	// CreateBatch inserts all assets atomically.
	CreateBatch(ctx context.Context, assets []Asset) error

	// ListByProduct returns a product's assets in sort order.
	ListByProduct(ctx context.Context, productID int64) ([]Asset, error)

	// NextSortOrder returns the next free sort position for a product.
	NextSortOrder(ctx context.Context, productID int64) (int, error)
}
