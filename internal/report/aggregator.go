package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"hr-attendance-backend/config"
	"hr-attendance-backend/internal/metrics"
	"hr-attendance-backend/internal/model"
	"hr-attendance-backend/internal/store"
)

// Report holds presence statistics for one employee over a window.
type Report struct {
	EmployeeID uuid.UUID `json:"employeeId"`
	Email      string    `json:"email,omitempty"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	TotalDays  int       `json:"totalDays"`
	TotalHours float64   `json:"totalHours"`
	LateDays   int       `json:"lateDays"`
}

// Periods accepted by ResolveWindow.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// ErrInvalidPeriod is returned for an unrecognized period name.
var ErrInvalidPeriod = errors.New("invalid report period")

// ResolveWindow turns the report query parameters into a half-open
// [from, to) window. With no period, an explicit end bounds the window;
// otherwise it defaults to [hireDate, now).
func ResolveWindow(period string, start time.Time, end *time.Time, hireDate, now time.Time) (time.Time, time.Time, error) {
	switch period {
	case PeriodDaily:
		return start, start.AddDate(0, 0, 1), nil
	case PeriodWeekly:
		return start, start.AddDate(0, 0, 7), nil
	case PeriodMonthly:
		first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
		return first, first.AddDate(0, 1, 0), nil
	case "":
		if start.IsZero() {
			return hireDate, now, nil
		}
		if end != nil {
			return start, *end, nil
		}
		return start, now, nil
	}
	return time.Time{}, time.Time{}, ErrInvalidPeriod
}

// Store is the slice of the attendance store the aggregator reads.
type Store interface {
	RecordsInRange(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]model.AttendanceRecord, error)
	RecordsByEmployee(ctx context.Context, employeeID uuid.UUID) ([]model.AttendanceRecord, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)
}

// Aggregator computes presence reports from the attendance store.
type Aggregator struct {
	store    Store
	loc      *time.Location
	lateHour int
	metrics  *metrics.Metrics
}

// NewAggregator creates a report aggregator.
func NewAggregator(s Store, attCfg config.AttendanceConfig, m *metrics.Metrics) (*Aggregator, error) {
	loc, err := time.LoadLocation(attCfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid attendance timezone %q: %w", attCfg.Timezone, err)
	}
	return &Aggregator{store: s, loc: loc, lateHour: attCfg.LateHour, metrics: m}, nil
}

// BuildReport computes presence statistics for one employee over [from, to).
// A store that cannot serve the composite range query degrades silently to a
// by-employee scan filtered in process; the caller never sees that happen.
func (a *Aggregator) BuildReport(ctx context.Context, emp *model.Employee, from, to time.Time) (*Report, error) {
	recs, err := a.store.RecordsInRange(ctx, emp.ID, from, to)
	if errors.Is(err, store.ErrIndexUnavailable) {
		recs, err = a.fallbackScan(ctx, emp.ID, from, to)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate records for employee %s: %w", emp.ID, err)
	}

	rep := &Report{
		EmployeeID: emp.ID,
		Email:      emp.Email,
		StartDate:  from,
		EndDate:    to,
	}
	for _, r := range recs {
		if r.EntryTime.IsZero() {
			continue
		}
		rep.TotalDays++
		if r.EntryTime.In(a.loc).Hour() >= a.lateHour {
			rep.LateDays++
		}
		// Sessions without a recorded exit contribute zero hours; elapsed
		// time is never guessed.
		if r.ExitTime != nil {
			rep.TotalHours += r.ExitTime.Sub(r.EntryTime).Hours()
		}
	}
	return rep, nil
}

// BuildAllReports computes the per-employee report across the directory.
// Employees degrade independently; one failed employee is logged and skipped
// rather than aborting the batch.
func (a *Aggregator) BuildAllReports(ctx context.Context, from, to time.Time) ([]Report, error) {
	emps, err := a.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	reports := make([]Report, 0, len(emps))
	for i := range emps {
		emp := &emps[i]
		start, end := from, to
		if start.IsZero() {
			start, end = emp.HireDate, time.Now()
		}
		rep, err := a.BuildReport(ctx, emp, start, end)
		if err != nil {
			log.Printf("Warning: skipping report for employee %s: %v", emp.ID, err)
			continue
		}
		reports = append(reports, *rep)
	}
	return reports, nil
}

// fallbackScan re-issues the range query as a single-predicate scan and
// applies the window filter and ordering in process.
func (a *Aggregator) fallbackScan(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]model.AttendanceRecord, error) {
	log.Printf("Warning: composite range query unavailable for employee %s, scanning by employee", employeeID)
	a.metrics.ReportFallback()

	all, err := a.store.RecordsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	filtered := make([]model.AttendanceRecord, 0, len(all))
	for _, r := range all {
		if !r.EntryTime.Before(from) && r.EntryTime.Before(to) {
			filtered = append(filtered, r)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].EntryTime.Before(filtered[j].EntryTime)
	})
	return filtered, nil
}
