package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hr-attendance-backend/config"
	"hr-attendance-backend/internal/geofence"
	"hr-attendance-backend/internal/model"
	"hr-attendance-backend/internal/mw"
	"hr-attendance-backend/internal/notification"
	"hr-attendance-backend/internal/report"
	"hr-attendance-backend/internal/session"
	"hr-attendance-backend/internal/store"
	"hr-attendance-backend/internal/verify"
)

// fakeStore is an in-memory store.Store for handler tests.
type fakeStore struct {
	employees map[uuid.UUID]*model.Employee
	records   map[uuid.UUID]*model.AttendanceRecord
	subs      []model.PushSubscription
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		employees: make(map[uuid.UUID]*model.Employee),
		records:   make(map[uuid.UUID]*model.AttendanceRecord),
	}
}

func (f *fakeStore) DB() *gorm.DB { return nil }

func (f *fakeStore) CreateRecord(_ context.Context, rec *model.AttendanceRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeStore) OpenSession(_ context.Context, employeeID uuid.UUID, since time.Time) (*model.AttendanceRecord, error) {
	var latest *model.AttendanceRecord
	for _, r := range f.records {
		if r.EmployeeID != employeeID || r.ExitTime != nil || r.EntryTime.Before(since) {
			continue
		}
		if latest == nil || r.EntryTime.After(latest.EntryTime) {
			latest = r
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) CloseRecord(_ context.Context, id uuid.UUID, exitTime time.Time, loc model.Point) (*model.AttendanceRecord, error) {
	rec, ok := f.records[id]
	if !ok || rec.ExitTime != nil {
		return nil, store.ErrNotFound
	}
	rec.ExitTime = &exitTime
	rec.ExitLongitude = &loc.Longitude
	rec.ExitLatitude = &loc.Latitude
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) RecordsInRange(_ context.Context, employeeID uuid.UUID, from, to time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	for _, r := range f.records {
		if r.EmployeeID == employeeID && !r.EntryTime.Before(from) && r.EntryTime.Before(to) {
			recs = append(recs, *r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].EntryTime.Before(recs[j].EntryTime) })
	return recs, nil
}

func (f *fakeStore) RecordsByEmployee(_ context.Context, employeeID uuid.UUID) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	for _, r := range f.records {
		if r.EmployeeID == employeeID {
			recs = append(recs, *r)
		}
	}
	return recs, nil
}

func (f *fakeStore) RecentRecords(_ context.Context, employeeID uuid.UUID, limit int) ([]model.AttendanceRecord, error) {
	recs, _ := f.RecordsByEmployee(context.Background(), employeeID)
	sort.Slice(recs, func(i, j int) bool { return recs[i].EntryTime.After(recs[j].EntryTime) })
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (f *fakeStore) OpenSessionsBefore(_ context.Context, cutoff time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	for _, r := range f.records {
		if r.ExitTime == nil && r.EntryTime.Before(cutoff) {
			recs = append(recs, *r)
		}
	}
	return recs, nil
}

func (f *fakeStore) GetEmployee(_ context.Context, id uuid.UUID) (*model.Employee, error) {
	emp, ok := f.employees[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return emp, nil
}

func (f *fakeStore) ListEmployees(_ context.Context) ([]model.Employee, error) {
	var emps []model.Employee
	for _, e := range f.employees {
		emps = append(emps, *e)
	}
	return emps, nil
}

func (f *fakeStore) SubscriptionsFor(_ context.Context, employeeID uuid.UUID) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	for _, s := range f.subs {
		if s.EmployeeID == employeeID {
			subs = append(subs, s)
		}
	}
	return subs, nil
}

type dropDispatcher struct{}

func (dropDispatcher) Dispatch(notification.Event) {}

func newTestHandler(t *testing.T, s store.Store) *Handler {
	t.Helper()

	attCfg := config.AttendanceConfig{Timezone: "UTC", LateHour: 9, OpenSessionLookbackDays: 30}
	gv := geofence.NewValidator(config.GeofenceConfig{RadiusMeters: 500})
	verifiers := map[model.VerificationMethod]verify.Verifier{
		model.MethodManual: verify.NewManualVerifier(),
	}
	machine, err := session.NewMachine(s, gv, verifiers, dropDispatcher{}, attCfg, []string{"admin", "hr"})
	require.NoError(t, err)

	agg, err := report.NewAggregator(s, attCfg, nil)
	require.NoError(t, err)

	qr := verify.NewQRVerifier("handler-test-secret", 12*time.Hour, 5*time.Minute)
	return NewHandler(s, machine, agg, qr, nil, nil, []string{"admin", "hr"})
}

// newTestRouter wires routes with a stub auth layer injecting the caller.
func newTestRouter(h *Handler, callerID uuid.UUID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(mw.CtxCallerID, callerID)
		c.Set(mw.CtxCallerRole, role)
	})
	r.POST("/api/attendance/check-in", h.CheckIn)
	r.POST("/api/attendance/check-out", h.CheckOut)
	r.GET("/api/attendance/records/:employee_id", h.ListRecords)
	r.GET("/api/attendance/qr/:employee_id", h.IssueQR)
	r.GET("/api/reports/:employee_id", h.GetReport)
	r.GET("/api/reports", h.GetAllReports)
	r.GET("/api/subscriptions", h.GetSubscriptions)
	r.GET("/api/vapid_public_key", h.GetVAPIDPublicKey)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedEmployee(f *fakeStore, role string) uuid.UUID {
	id := uuid.New()
	f.employees[id] = &model.Employee{
		ID:       id,
		Email:    fmt.Sprintf("%s@example.com", id),
		Role:     role,
		HireDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	return id
}

func checkInBody(employeeID uuid.UUID, at time.Time) gin.H {
	return gin.H{
		"employeeId": employeeID.String(),
		"entryTime":  at.Format(time.RFC3339),
		"location":   gin.H{"coordinates": []float64{0, 0}},
		"method":     "manual",
	}
}

func TestCheckIn_Success(t *testing.T) {
	fs := newFakeStore()
	empID := seedEmployee(fs, model.RoleEmployee)
	r := newTestRouter(newTestHandler(t, fs), empID, model.RoleEmployee)

	w := doJSON(r, http.MethodPost, "/api/attendance/check-in", checkInBody(empID, time.Now().UTC()))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp checkInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, empID, resp.Record.EmployeeID)
	assert.Nil(t, resp.Record.ExitTime)
}

func TestCheckIn_BadPayload(t *testing.T) {
	fs := newFakeStore()
	empID := seedEmployee(fs, model.RoleEmployee)
	r := newTestRouter(newTestHandler(t, fs), empID, model.RoleEmployee)

	cases := []gin.H{
		{},
		{"employeeId": "not-a-uuid", "entryTime": time.Now(), "location": gin.H{"coordinates": []float64{0, 0}}, "method": "manual"},
		{"employeeId": empID.String(), "entryTime": time.Now(), "location": gin.H{"coordinates": []float64{0}}, "method": "manual"},
		{"employeeId": empID.String(), "entryTime": time.Now(), "location": gin.H{"coordinates": []float64{0, 0}}, "method": "retina"},
	}
	for _, body := range cases {
		w := doJSON(r, http.MethodPost, "/api/attendance/check-in", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	}
}

func TestCheckIn_DuplicateOpenSession(t *testing.T) {
	fs := newFakeStore()
	empID := seedEmployee(fs, model.RoleEmployee)
	r := newTestRouter(newTestHandler(t, fs), empID, model.RoleEmployee)

	w := doJSON(r, http.MethodPost, "/api/attendance/check-in", checkInBody(empID, time.Now().UTC()))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/api/attendance/check-in", checkInBody(empID, time.Now().UTC()))
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestCheckIn_OutOfBounds(t *testing.T) {
	fs := newFakeStore()
	empID := seedEmployee(fs, model.RoleEmployee)
	r := newTestRouter(newTestHandler(t, fs), empID, model.RoleEmployee)

	body := checkInBody(empID, time.Now().UTC())
	body["location"] = gin.H{"coordinates": []float64{0.1, 0.1}} // ~15 km out
	w := doJSON(r, http.MethodPost, "/api/attendance/check-in", body)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Empty(t, fs.records)
}

func TestCheckIn_ForbiddenForOtherEmployee(t *testing.T) {
	fs := newFakeStore()
	empID := seedEmployee(fs, model.RoleEmployee)
	otherID := seedEmployee(fs, model.RoleEmployee)
	h := newTestHandler(t, fs)

	r := newTestRouter(h, otherID, model.RoleEmployee)
	w := doJSON(r, http.MethodPost, "/api/attendance/check-in", checkInBody(empID, time.Now().UTC()))
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	adminID := seedEmployee(fs, model.RoleAdmin)
	r = newTestRouter(h, adminID, model.RoleAdmin)
	w = doJSON(r, http.MethodPost, "/api/attendance/check-in", checkInBody(empID, time.Now().UTC()))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCheckOut_Lifecycle(t *testing.T) {
	fs := newFakeStore()
	empID := seedEmployee(fs, model.RoleEmployee)
	r := newTestRouter(newTestHandler(t, fs), empID, model.RoleEmployee)

	entry := time.Now().UTC().Add(-8 * time.Hour)
	outBody := gin.H{
		"employeeId": empID.String(),
		"exitTime":   time.Now().UTC().Format(time.RFC3339),
		"location":   gin.H{"coordinates": []float64{0, 0}},
	}

	// No open session yet.
	w := doJSON(r, http.MethodPost, "/api/attendance/check-out", outBody)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/attendance/check-in", checkInBody(empID, entry))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/api/attendance/check-out", outBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Record model.AttendanceRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Record.ExitTime)

	// The session is closed now, so a second check-out conflicts.
	w = doJSON(r, http.MethodPost, "/api/attendance/check-out", outBody)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestListRecords_SelfOrAdmin(t *testing.T) {
	fs := newFakeStore()
	empID := seedEmployee(fs, model.RoleEmployee)
	otherID := seedEmployee(fs, model.RoleEmployee)
	h := newTestHandler(t, fs)

	r := newTestRouter(h, otherID, model.RoleEmployee)
	w := doJSON(r, http.MethodGet, "/api/attendance/records/"+empID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = newTestRouter(h, empID, model.RoleEmployee)
	w = doJSON(r, http.MethodGet, "/api/attendance/records/"+empID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetReport(t *testing.T) {
	fs := newFakeStore()
	empID := seedEmployee(fs, model.RoleEmployee)
	exit := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	fs.records[uuid.New()] = &model.AttendanceRecord{
		ID:         uuid.New(),
		EmployeeID: empID,
		EntryTime:  time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC),
		ExitTime:   &exit,
		Method:     model.MethodManual,
	}
	r := newTestRouter(newTestHandler(t, fs), empID, model.RoleEmployee)

	w := doJSON(r, http.MethodGet, "/api/reports/"+empID.String()+"?period=weekly&startDate=2026-03-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep report.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, 1, rep.TotalDays)
	assert.InDelta(t, 8.5, rep.TotalHours, 0.01)
	assert.Equal(t, 0, rep.LateDays)

	// period without startDate is rejected.
	w = doJSON(r, http.MethodGet, "/api/reports/"+empID.String()+"?period=weekly", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown period maps to 400.
	w = doJSON(r, http.MethodGet, "/api/reports/"+empID.String()+"?period=hourly&startDate=2026-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueQR_RoundTrips(t *testing.T) {
	fs := newFakeStore()
	empID := seedEmployee(fs, model.RoleEmployee)
	h := newTestHandler(t, fs)
	r := newTestRouter(h, empID, model.RoleEmployee)

	w := doJSON(r, http.MethodGet, "/api/attendance/qr/"+empID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	res, err := h.qr.Verify(context.Background(), empID, verify.Proof{QRData: resp.Token})
	require.NoError(t, err)
	assert.Equal(t, empID, res.EmployeeID)
}

func TestGetVAPIDPublicKey_Unconfigured(t *testing.T) {
	fs := newFakeStore()
	empID := seedEmployee(fs, model.RoleEmployee)
	r := newTestRouter(newTestHandler(t, fs), empID, model.RoleEmployee)

	w := doJSON(r, http.MethodGet, "/api/vapid_public_key", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
