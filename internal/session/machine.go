package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"hr-attendance-backend/config"
	"hr-attendance-backend/internal/geofence"
	"hr-attendance-backend/internal/model"
	"hr-attendance-backend/internal/notification"
	"hr-attendance-backend/internal/store"
	"hr-attendance-backend/internal/verify"
)

// Dispatcher receives domain events without blocking or failing the
// operation that emitted them.
type Dispatcher interface {
	Dispatch(evt notification.Event)
}

// EntryRequest carries everything needed to record a check-in.
type EntryRequest struct {
	EmployeeID uuid.UUID
	CallerID   uuid.UUID
	CallerRole string
	Method     model.VerificationMethod
	Proof      verify.Proof
	Location   model.Point
	ClientTime time.Time
}

// EntryResult is a successful check-in together with the verifier's
// diagnostic confidence (facial verification only, 0 otherwise).
type EntryResult struct {
	Record     *model.AttendanceRecord
	Confidence float64
}

// ExitRequest carries everything needed to record a check-out.
type ExitRequest struct {
	EmployeeID uuid.UUID
	CallerID   uuid.UUID
	CallerRole string
	Location   model.Point
	ClientTime time.Time
}

// Machine orchestrates check-in and check-out. Each employee is a two-state
// machine (no open session / open session); the state is derived from the
// store, never held in memory.
type Machine struct {
	store      store.Store
	geofence   *geofence.Validator
	verifiers  map[model.VerificationMethod]verify.Verifier
	dispatcher Dispatcher
	loc        *time.Location
	lateHour   int
	lookback   time.Duration
	adminRoles map[string]bool
}

// NewMachine wires the session machine from its collaborators.
func NewMachine(
	s store.Store,
	gv *geofence.Validator,
	verifiers map[model.VerificationMethod]verify.Verifier,
	dispatcher Dispatcher,
	attCfg config.AttendanceConfig,
	adminRoles []string,
) (*Machine, error) {
	loc, err := time.LoadLocation(attCfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid attendance timezone %q: %w", attCfg.Timezone, err)
	}

	admin := make(map[string]bool, len(adminRoles))
	for _, r := range adminRoles {
		admin[r] = true
	}

	return &Machine{
		store:      s,
		geofence:   gv,
		verifiers:  verifiers,
		dispatcher: dispatcher,
		loc:        loc,
		lateHour:   attCfg.LateHour,
		lookback:   time.Duration(attCfg.OpenSessionLookbackDays) * 24 * time.Hour,
		adminRoles: admin,
	}, nil
}

// RecordEntry validates a check-in claim and opens a session.
func (m *Machine) RecordEntry(ctx context.Context, req EntryRequest) (*EntryResult, error) {
	emp, err := m.store.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	verifier, ok := m.verifiers[req.Method]
	if !ok {
		return nil, ErrUnknownMethod
	}

	res, err := verifier.Verify(ctx, req.EmployeeID, req.Proof)
	if err != nil {
		if errors.Is(err, verify.ErrExpiredCredential) {
			m.dispatcher.Dispatch(notification.Event{
				Kind:       notification.EventExpiredCredential,
				EmployeeID: emp.ID,
				Email:      emp.Email,
				OccurredAt: req.ClientTime,
			})
		}
		return nil, err
	}

	// A QR payload names its own employee; the claim follows the credential.
	employeeID := res.EmployeeID
	if employeeID != emp.ID {
		if emp, err = m.store.GetEmployee(ctx, employeeID); err != nil {
			return nil, err
		}
	}

	if !m.authorized(req.CallerID, req.CallerRole, employeeID) {
		return nil, ErrForbidden
	}

	// Advisory check only: a failed read must not block the entry. Two
	// racing entries for the same employee can still both pass; see the
	// conditional update on the exit path for why that stays bounded.
	_, err = m.store.OpenSession(ctx, employeeID, req.ClientTime.Add(-m.lookback))
	switch {
	case err == nil:
		return nil, ErrDuplicateOpenSession
	case errors.Is(err, store.ErrNotFound):
		// No open session, proceed.
	default:
		log.Printf("Warning: open-session check failed for employee %s, proceeding: %v", employeeID, err)
	}

	if !m.geofence.IsWithin(req.Location) {
		m.dispatcher.Dispatch(notification.Event{
			Kind:       notification.EventLocationViolation,
			EmployeeID: employeeID,
			Email:      emp.Email,
			OccurredAt: req.ClientTime,
		})
		return nil, ErrOutOfBounds
	}

	if req.ClientTime.In(m.loc).Hour() >= m.lateHour {
		m.dispatcher.Dispatch(notification.Event{
			Kind:       notification.EventLateArrival,
			EmployeeID: employeeID,
			Email:      emp.Email,
			OccurredAt: req.ClientTime,
		})
	}

	rec := &model.AttendanceRecord{
		EmployeeID:     employeeID,
		EntryTime:      req.ClientTime,
		EntryLongitude: req.Location.Longitude,
		EntryLatitude:  req.Location.Latitude,
		Method:         req.Method,
	}
	if err := m.store.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}
	return &EntryResult{Record: rec, Confidence: res.Confidence}, nil
}

// RecordExit closes the employee's most recent open session.
func (m *Machine) RecordExit(ctx context.Context, req ExitRequest) (*model.AttendanceRecord, error) {
	emp, err := m.store.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	if !m.authorized(req.CallerID, req.CallerRole, req.EmployeeID) {
		return nil, ErrForbidden
	}

	open, err := m.store.OpenSession(ctx, req.EmployeeID, req.ClientTime.Add(-m.lookback))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, err
	}

	if !req.ClientTime.After(open.EntryTime) {
		return nil, ErrInvalidChronology
	}

	closed, err := m.store.CloseRecord(ctx, open.ID, req.ClientTime, req.Location)
	if errors.Is(err, store.ErrNotFound) {
		// The conditional update lost a race with another check-out.
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, err
	}

	m.dispatcher.Dispatch(notification.Event{
		Kind:       notification.EventExitRecorded,
		EmployeeID: req.EmployeeID,
		Email:      emp.Email,
		OccurredAt: req.ClientTime,
	})
	return closed, nil
}

func (m *Machine) authorized(callerID uuid.UUID, callerRole string, employeeID uuid.UUID) bool {
	return callerID == employeeID || m.adminRoles[callerRole]
}
