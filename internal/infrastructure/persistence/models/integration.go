package models

import (
	"time"

	"github.com/google/uuid"
)

// EstimateSyncRecordModel is the observability sink for order sync
// attempts. One row per attempt, owned by this service.
type EstimateSyncRecordModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID        string    `gorm:"not null;index"`
	Status         string    `gorm:"not null"`
	EstimateID     string
	EstimateNumber string
	FailureKind    string
	Message        string
	Trace          string
	CreatedAt      time.Time `gorm:"not null"`
}

func (EstimateSyncRecordModel) TableName() string { return "estimate_sync_records" }

// MediaAssetModel is a media file or external URL attached to a product by
// this service. Owned by this service.
type MediaAssetModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID int64     `gorm:"not null;index"`
	VariantID *int64    `gorm:"index"`
	Type      string    `gorm:"not null"` // image or external
	URL       string    `gorm:"not null"` // object key (image) or external URL
	Alt       string
	SortOrder int
	CreatedAt time.Time `gorm:"not null"`
}

func (MediaAssetModel) TableName() string { return "product_media_assets" }
