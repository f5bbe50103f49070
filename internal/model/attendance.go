package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationMethod is how a check-in proved the claimed identity.
type VerificationMethod string

const (
	MethodManual VerificationMethod = "manual"
	MethodQR     VerificationMethod = "qr"
	MethodFacial VerificationMethod = "facial"
)

// Valid reports whether m is one of the recognized methods.
func (m VerificationMethod) Valid() bool {
	switch m {
	case MethodManual, MethodQR, MethodFacial:
		return true
	}
	return false
}

// Point is a longitude/latitude coordinate pair.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// AttendanceRecord is one physical presence interval. ExitTime is nil while
// the session is open and set exactly once on check-out.
type AttendanceRecord struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"employeeId"`
	EntryTime      time.Time          `gorm:"not null;index" json:"entryTime"`
	ExitTime       *time.Time         `gorm:"index" json:"exitTime,omitempty"`
	EntryLongitude float64            `json:"-"`
	EntryLatitude  float64            `json:"-"`
	ExitLongitude  *float64           `json:"-"`
	ExitLatitude   *float64           `json:"-"`
	Method         VerificationMethod `gorm:"size:16;not null" json:"method"`
	CreatedAt      time.Time          `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time          `gorm:"not null" json:"updatedAt"`
}

// BeforeCreate assigns the record id.
func (r *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// EntryLocation returns the coordinates captured at check-in.
func (r *AttendanceRecord) EntryLocation() Point {
	return Point{Longitude: r.EntryLongitude, Latitude: r.EntryLatitude}
}

// ExitLocation returns the coordinates captured at check-out, if recorded.
func (r *AttendanceRecord) ExitLocation() *Point {
	if r.ExitLongitude == nil || r.ExitLatitude == nil {
		return nil
	}
	return &Point{Longitude: *r.ExitLongitude, Latitude: *r.ExitLatitude}
}

// Open reports whether the session has no recorded exit yet.
func (r *AttendanceRecord) Open() bool {
	return r.ExitTime == nil
}
