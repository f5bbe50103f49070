package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"hr-attendance-backend/config"
	"hr-attendance-backend/internal/model"
	"hr-attendance-backend/internal/notification"
)

// Dispatcher receives reminder events; deliveries are best-effort.
type Dispatcher interface {
	Dispatch(evt notification.Event)
}

// Store is the slice of the attendance store the sweeper reads.
type Store interface {
	OpenSessionsBefore(ctx context.Context, cutoff time.Time) ([]model.AttendanceRecord, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error)
}

// Service periodically scans for sessions left open past the configured
// cutoff and reminds the employee to check out. It never closes a session
// itself; presence data is only ever written by an explicit check-out.
type Service struct {
	cfg        config.SweeperConfig
	store      Store
	dispatcher Dispatcher
}

// NewService creates the open-session sweeper.
func NewService(cfg config.SweeperConfig, s Store, d Dispatcher) *Service {
	return &Service{cfg: cfg, store: s, dispatcher: d}
}

// Run starts the sweep loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Open-session sweeper is disabled. Not starting.")
		return
	}
	log.Println("Starting open-session sweeper...")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Open-session sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SweepOnce performs a single scan for stale open sessions.
func (s *Service) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-time.Duration(s.cfg.OpenSessionMaxHours) * time.Hour)

	stale, err := s.store.OpenSessionsBefore(ctx, cutoff)
	if err != nil {
		log.Printf("Error scanning stale open sessions: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Printf("Found %d sessions open for more than %dh", len(stale), s.cfg.OpenSessionMaxHours)
	for _, rec := range stale {
		emp, err := s.store.GetEmployee(ctx, rec.EmployeeID)
		if err != nil {
			log.Printf("Error resolving employee %s for reminder: %v", rec.EmployeeID, err)
			continue
		}
		s.dispatcher.Dispatch(notification.Event{
			Kind:       notification.EventOpenSessionReminder,
			EmployeeID: emp.ID,
			Email:      emp.Email,
			OccurredAt: rec.EntryTime,
		})
	}
}
