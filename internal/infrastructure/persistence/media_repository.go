package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/draheim/zoho-sync/internal/application/media"
	"github.com/draheim/zoho-sync/internal/infrastructure/persistence/models"
)

var _ media.Repository = (*GormMediaRepository)(nil)

// GormMediaRepository stores media assets this service attaches to
// storefront products.
type GormMediaRepository struct {
	db *gorm.DB
}

func NewGormMediaRepository(db *gorm.DB) *GormMediaRepository {
	return &GormMediaRepository{db: db}
}

// CreateBatch inserts all assets in one transaction; all-or-nothing.
func (r *GormMediaRepository) CreateBatch(ctx context.Context, assets []media.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	rows := make([]models.MediaAssetModel, len(assets))
	for i, a := range assets {
		rows[i] = models.MediaAssetModel{
			ID:        a.ID,
			ProductID: a.ProductID,
			VariantID: a.VariantID,
			Type:      a.Type,
			URL:       a.URL,
			Alt:       a.Alt,
			SortOrder: a.SortOrder,
			CreatedAt: time.Now(),
		}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
}

// ListByProduct returns a product's assets in sort order.
func (r *GormMediaRepository) ListByProduct(ctx context.Context, productID int64) ([]media.Asset, error) {
	var rows []models.MediaAssetModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sort_order, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	assets := make([]media.Asset, len(rows))
	for i, row := range rows {
		assets[i] = media.Asset{
			ID:        row.ID,
			ProductID: row.ProductID,
			VariantID: row.VariantID,
			Type:      row.Type,
			URL:       row.URL,
			Alt:       row.Alt,
			SortOrder: row.SortOrder,
		}
	}
	return assets, nil
}

// NextSortOrder returns the next free sort position for a product.
func (r *GormMediaRepository) NextSortOrder(ctx context.Context, productID int64) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.MediaAssetModel{}).
		Where("product_id = ?", productID).
		Select("MAX(sort_order)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}
