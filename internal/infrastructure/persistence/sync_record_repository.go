package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draheim/zoho-sync/internal/application/sync"
	"github.com/draheim/zoho-sync/internal/infrastructure/persistence/models"
)

// GormSyncRecordRepository persists order sync outcomes for later
// inspection. Records are append-only.
type GormSyncRecordRepository struct {
	db *gorm.DB
}

func NewGormSyncRecordRepository(db *gorm.DB) *GormSyncRecordRepository {
	return &GormSyncRecordRepository{db: db}
}

// Record stores one sync result.
func (r *GormSyncRecordRepository) Record(ctx context.Context, result sync.Result) error {
	model := models.EstimateSyncRecordModel{
		ID:          uuid.New(),
		OrderID:     result.OrderID,
		Status:      result.Status,
		FailureKind: string(result.Kind),
		Message:     result.Message,
		Trace:       result.Trace,
		CreatedAt:   time.Now(),
	}
	if result.Estimate != nil {
		model.EstimateID = result.Estimate.EstimateID
		model.EstimateNumber = result.Estimate.EstimateNumber
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListRecent returns the most recent records, newest first.
func (r *GormSyncRecordRepository) ListRecent(ctx context.Context, limit int) ([]models.EstimateSyncRecordModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []models.EstimateSyncRecordModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// ListByOrder returns all records for one order, newest first.
func (r *GormSyncRecordRepository) ListByOrder(ctx context.Context, orderID string) ([]models.EstimateSyncRecordModel, error) {
	var records []models.EstimateSyncRecordModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
