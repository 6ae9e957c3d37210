package repository

import (
	"testing"

	"app/internal/domain/model"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// テストごとに独立したインメモリDBを用意する
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	//:memory:はコネクションごとに別DBになるため1本に固定する
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
	))

	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, priceStr string, stock int64, active bool) model.Product {
	t.Helper()

	price, err := decimal.NewFromString(priceStr)
	require.NoError(t, err)

	p := model.Product{
		Name:     name,
		Price:    price,
		Stock:    stock,
		IsActive: active,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}
