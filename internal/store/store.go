package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hr-attendance-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// CreateRecord persists a new attendance record and assigns its id.
	CreateRecord(ctx context.Context, rec *model.AttendanceRecord) error

	// OpenSession returns the most recent record with no exit for the
	// employee, scanning entries no older than since. ErrNotFound when the
	// employee has no open session in that window.
	OpenSession(ctx context.Context, employeeID uuid.UUID, since time.Time) (*model.AttendanceRecord, error)

	// CloseRecord sets the exit fields on an open record. The update is
	// conditional on the exit still being unset, so a racing duplicate
	// check-out loses with ErrNotFound instead of overwriting.
	CloseRecord(ctx context.Context, id uuid.UUID, exitTime time.Time, loc model.Point) (*model.AttendanceRecord, error)

	// RecordsInRange returns the employee's records with entry_time in
	// [from, to), ordered by entry_time ascending. Returns
	// ErrIndexUnavailable when the composite employee+time query shape is
	// not executable on this deployment.
	RecordsInRange(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]model.AttendanceRecord, error)

	// RecordsByEmployee returns all records for the employee, unordered.
	// This is the single-predicate query the report fallback relies on.
	RecordsByEmployee(ctx context.Context, employeeID uuid.UUID) ([]model.AttendanceRecord, error)

	// RecentRecords returns the employee's latest records, newest first.
	RecentRecords(ctx context.Context, employeeID uuid.UUID, limit int) ([]model.AttendanceRecord, error)

	// OpenSessionsBefore returns every open record whose entry predates the
	// cutoff, across all employees.
	OpenSessionsBefore(ctx context.Context, cutoff time.Time) ([]model.AttendanceRecord, error)

	// GetEmployee resolves a directory entry. ErrNotFound when absent.
	GetEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error)

	// ListEmployees returns every directory entry.
	ListEmployees(ctx context.Context) ([]model.Employee, error)

	// SubscriptionsFor returns the employee's registered push subscriptions.
	SubscriptionsFor(ctx context.Context, employeeID uuid.UUID) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
	// rangeQueries is false when the employee+entry_time composite index
	// could not be provisioned at startup; RecordsInRange then reports
	// ErrIndexUnavailable instead of issuing a query the store cannot serve.
	rangeQueries bool
}

// NewGormStore creates a new GORM-backed store. rangeQueries mirrors whether
// the composite-index DDL succeeded during database init.
func NewGormStore(db *gorm.DB, rangeQueries bool) Store {
	return &gormStore{db: db, rangeQueries: rangeQueries}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) CreateRecord(ctx context.Context, rec *model.AttendanceRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create attendance record for employee %s: %w", rec.EmployeeID, err)
	}
	return nil
}

func (s *gormStore) OpenSession(ctx context.Context, employeeID uuid.UUID, since time.Time) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND exit_time IS NULL AND entry_time >= ?", employeeID, since).
		Order("entry_time DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query open session for employee %s: %w", employeeID, err)
	}
	return &rec, nil
}

func (s *gormStore) CloseRecord(ctx context.Context, id uuid.UUID, exitTime time.Time, loc model.Point) (*model.AttendanceRecord, error) {
	res := s.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("id = ? AND exit_time IS NULL", id).
		Updates(map[string]any{
			"exit_time":      exitTime,
			"exit_longitude": loc.Longitude,
			"exit_latitude":  loc.Latitude,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to close attendance record %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var rec model.AttendanceRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload attendance record %s: %w", id, err)
	}
	return &rec, nil
}

func (s *gormStore) RecordsInRange(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]model.AttendanceRecord, error) {
	if !s.rangeQueries {
		return nil, ErrIndexUnavailable
	}

	var recs []model.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND entry_time >= ? AND entry_time < ?", employeeID, from, to).
		Order("entry_time ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed range query for employee %s: %w", employeeID, err)
	}
	return recs, nil
}

func (s *gormStore) RecordsByEmployee(ctx context.Context, employeeID uuid.UUID) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	if err := s.db.WithContext(ctx).Where("employee_id = ?", employeeID).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to load records for employee %s: %w", employeeID, err)
	}
	return recs, nil
}

func (s *gormStore) RecentRecords(ctx context.Context, employeeID uuid.UUID, limit int) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("entry_time DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent records for employee %s: %w", employeeID, err)
	}
	return recs, nil
}

func (s *gormStore) OpenSessionsBefore(ctx context.Context, cutoff time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("exit_time IS NULL AND entry_time < ?", cutoff).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan stale open sessions: %w", err)
	}
	return recs, nil
}

func (s *gormStore) GetEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	var emp model.Employee
	err := s.db.WithContext(ctx).First(&emp, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee %s: %w", id, err)
	}
	return &emp, nil
}

func (s *gormStore) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	var emps []model.Employee
	if err := s.db.WithContext(ctx).Find(&emps).Error; err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return emps, nil
}

func (s *gormStore) SubscriptionsFor(ctx context.Context, employeeID uuid.UUID) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("employee_id = ?", employeeID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions for employee %s: %w", employeeID, err)
	}
	return subs, nil
}
