package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hr-attendance-backend/config"
	"hr-attendance-backend/internal/model"
)

// Init initializes the database connection and runs migrations. The second
// return value reports whether the composite attendance index is in place;
// when it is not, range queries degrade to by-employee scans rather than
// failing requests.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, bool, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Employee{},
		&model.AttendanceRecord{},
		&model.PushSubscription{},
	); err != nil {
		return nil, false, fmt.Errorf("automigrate failed: %w", err)
	}

	rangeReady := true
	if err := applyAttendanceDDL(db); err != nil {
		log.Printf("Warning: failed to provision composite attendance index: %v. Report queries will fall back to by-employee scans.", err)
		rangeReady = false
	}

	log.Println("Database initialization complete.")
	return db, rangeReady, nil
}

// applyAttendanceDDL provisions the composite index backing the
// employee+time-range report query.
func applyAttendanceDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE INDEX IF NOT EXISTS idx_attendance_employee_entry ON attendance_records (employee_id, entry_time DESC);",
		"CREATE INDEX IF NOT EXISTS idx_attendance_employee_open ON attendance_records (employee_id) WHERE exit_time IS NULL;",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
