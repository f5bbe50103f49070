package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Employee roles recognized by the attendance API.
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
	RoleHR       = "hr"
)

// Employee is the directory entry the attendance engine reads. Profile CRUD
// lives outside this service; rows are seeded out-of-band.
type Employee struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string          `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Role           string          `gorm:"size:32;not null" json:"role"`
	HireDate       time.Time       `gorm:"not null" json:"hireDate"`
	FaceDescriptor json.RawMessage `gorm:"type:json" json:"-"` // 128-float embedding, set out-of-band
	CreatedAt      time.Time       `gorm:"not null" json:"-"`
	UpdatedAt      time.Time       `gorm:"not null" json:"-"`
}

// Descriptor decodes the stored face embedding. A nil slice with a nil error
// means the employee is not enrolled.
func (e *Employee) Descriptor() ([]float64, error) {
	if len(e.FaceDescriptor) == 0 {
		return nil, nil
	}
	var vec []float64
	if err := json.Unmarshal(e.FaceDescriptor, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}
