package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderRecord is the persisted outcome of one instruction within a session.
type OrderRecord struct {
	gorm.Model
	SessionUUID    string `gorm:"index;not null"`
	Symbol         string
	Action         string // "BUY" or "SELL"
	Quantity       int64
	OrderType      string
	GatewayOrderID int64
	State          string
	RejectedBy     string
	RejectReason   string
	SubmittedAt    time.Time
}
