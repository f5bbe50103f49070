package model

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription holds the information for a browser push subscription,
// keyed by the employee who registered it.
type PushSubscription struct {
	Endpoint   string    `gorm:"primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`
	P256DH     string    `gorm:"column:p256dh;not null"`
	Auth       string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}
