package services

import (
	"testing"

	"carelink-backend/internal/models"
	"carelink-backend/internal/payment"
	"carelink-backend/internal/payment/outcome"
	"carelink-backend/internal/payment/payhere"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testReturnURL = "https://app.carelink.test/payment/success"
	testCancelURL = "https://app.carelink.test/payment/cancel"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.PaymentAttempt{}))
	return db
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func testPaymentConfig() payment.Config {
	return payment.Config{
		Credentials:         payment.MerchantCredentials{MerchantID: "1211149", MerchantSecret: "secret123"},
		ReturnURL:           testReturnURL,
		CancelURL:           testCancelURL,
		NotifyURL:           "https://api.carelink.test/api/v1/payment/notify",
		Currency:            "LKR",
		SupportedCurrencies: []string{"LKR", "USD"},
		Sandbox:             true,
	}
}

func newTestPaymentService(t *testing.T) (*PaymentService, *gorm.DB, *outcome.Registry) {
	t.Helper()
	db := setupTestDB(t)
	registry := outcome.NewRegistry()
	svc := NewPaymentService(db, payhere.NewDriver(testPaymentConfig(), zap.NewNop()), registry, zap.NewNop())
	return svc, db, registry
}
