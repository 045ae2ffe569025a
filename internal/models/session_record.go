package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionRecord is one persisted batch-run summary. Records are append-only:
// a session is written once at the end of its run and never updated.
type SessionRecord struct {
	gorm.Model
	SessionUUID            string `gorm:"uniqueIndex;not null"`
	StartedAt              time.Time
	FinishedAt             time.Time
	OrdersAttempted        int
	OrdersAccepted         int
	OrdersRejectedBySafety int
	OrdersFailedAtGateway  int
}
