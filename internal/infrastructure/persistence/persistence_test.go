package persistence

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/draheim/zoho-sync/internal/infrastructure/persistence/models"
)

// newTestDB opens an in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// One shared in-memory database per test; the DSN name keeps parallel
	// tests isolated while letting the connection pool see the same tables.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.AddressModel{},
		&models.UserModel{},
		&models.ChannelModel{},
		&models.CategoryModel{},
		&models.ProductModel{},
		&models.VariantModel{},
		&models.VariantChannelListingModel{},
		&models.OrderModel{},
		&models.OrderLineModel{},
		&models.AttributeModel{},
		&models.AttributeValueModel{},
		&models.AssignedProductAttributeValueModel{},
		&models.AssignedVariantAttributeModel{},
		&models.AssignedVariantAttributeValueModel{},
		&models.EstimateSyncRecordModel{},
		&models.MediaAssetModel{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func intPtr(i int) *int       { return &i }
func int64Ptr(i int64) *int64 { return &i }
