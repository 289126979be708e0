package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending
}

// PaymentAttempt is one checkout. Its ID is the order id sent to the gateway
// and is never reused.
type PaymentAttempt struct {
	ID       string          `gorm:"primarykey;type:varchar(32)"`
	UserID   uint            `gorm:"index;not null"`
	Amount   decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Currency string          `gorm:"type:varchar(3);not null"`
	Items    string          `gorm:"type:varchar(255)"`
	Status   PaymentStatus   `gorm:"type:varchar(20);index;default:'pending'"`

	// Client side outcome
	ResolvedBy     string `gorm:"type:varchar(20)"` // redirect, message, load_error, dismiss
	PaymentID      string `gorm:"type:varchar(64);index"`
	FailureMessage string `gorm:"type:text"`
	ResolvedAt     *time.Time

	// Server to server notification from the gateway
	GatewayStatus    string `gorm:"type:varchar(20)"`
	GatewayPaymentID string `gorm:"type:varchar(64)"`
	GatewayMethod    string `gorm:"type:varchar(20)"`
	NotifiedAt       *time.Time

	Payload   datatypes.JSON `gorm:"type:json"` // form fields sent to the gateway
	CreatedAt time.Time
	UpdatedAt time.Time
}
