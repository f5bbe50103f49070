package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"hr-attendance-backend/config"
	"hr-attendance-backend/internal/model"
	"hr-attendance-backend/internal/notification"
	"hr-attendance-backend/internal/store"
)

type fakeStore struct {
	open      []model.AttendanceRecord
	employees map[uuid.UUID]*model.Employee
}

func (f *fakeStore) OpenSessionsBefore(_ context.Context, cutoff time.Time) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for _, r := range f.open {
		if r.EntryTime.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetEmployee(_ context.Context, id uuid.UUID) (*model.Employee, error) {
	emp, ok := f.employees[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return emp, nil
}

type recordingDispatcher struct {
	events []notification.Event
}

func (d *recordingDispatcher) Dispatch(evt notification.Event) {
	d.events = append(d.events, evt)
}

func TestSweepOnce_RemindsStaleSessionsOnly(t *testing.T) {
	emp := &model.Employee{ID: uuid.New(), Email: "e1@example.com"}
	now := time.Now()
	fs := &fakeStore{
		employees: map[uuid.UUID]*model.Employee{emp.ID: emp},
		open: []model.AttendanceRecord{
			{ID: uuid.New(), EmployeeID: emp.ID, EntryTime: now.Add(-20 * time.Hour)},
			{ID: uuid.New(), EmployeeID: emp.ID, EntryTime: now.Add(-2 * time.Hour)},
		},
	}
	d := &recordingDispatcher{}
	svc := NewService(config.SweeperConfig{Enabled: true, OpenSessionMaxHours: 12}, fs, d)

	svc.SweepOnce(context.Background())

	assert.Len(t, d.events, 1)
	assert.Equal(t, notification.EventOpenSessionReminder, d.events[0].Kind)
	assert.Equal(t, emp.ID, d.events[0].EmployeeID)
}

func TestSweepOnce_SkipsUnknownEmployee(t *testing.T) {
	fs := &fakeStore{
		employees: map[uuid.UUID]*model.Employee{},
		open: []model.AttendanceRecord{
			{ID: uuid.New(), EmployeeID: uuid.New(), EntryTime: time.Now().Add(-24 * time.Hour)},
		},
	}
	d := &recordingDispatcher{}
	svc := NewService(config.SweeperConfig{Enabled: true, OpenSessionMaxHours: 12}, fs, d)

	svc.SweepOnce(context.Background())
	assert.Empty(t, d.events)
}
